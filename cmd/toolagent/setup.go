package main

import (
	"context"
	"log/slog"
	"os"

	toolagent "github.com/wagiedev/toolagent-go"
	"github.com/wagiedev/toolagent-go/internal/config"
)

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// agentOptions turns flags, environment, and the config file into agent
// options. Precedence, lowest first: file, environment, flags.
func agentOptions(f *flags, getenv func(string) string) ([]toolagent.Option, error) {
	explicit := f.configPath
	if explicit == "" {
		explicit = getenv(config.EnvConfig)
	}

	path, err := config.FindFile(explicit)
	if err != nil {
		return nil, err
	}

	var opts []toolagent.Option

	if path != "" {
		opts = append(opts, toolagent.WithConfigFile(path))
	}

	opts = append(opts, func(o *toolagent.Options) {
		config.ApplyEnv(o, getenv)
	})

	if f.model != "" {
		opts = append(opts, toolagent.WithModel(f.model))
	}

	if f.maxToolTurns > 0 {
		opts = append(opts, toolagent.WithMaxToolTurns(f.maxToolTurns))
	}

	if f.parallelism > 1 {
		opts = append(opts, toolagent.WithParallelism(f.parallelism))
	}

	if f.defaultServices {
		opts = append(opts, toolagent.WithDefaultServices())
	}

	if f.noHandshake {
		opts = append(opts, toolagent.WithHandshake(false))
	}

	if f.permissionMode != "" {
		opts = append(opts, toolagent.WithPermissionMode(f.permissionMode))
	}

	if len(f.allowedTools) > 0 {
		opts = append(opts, toolagent.WithAllowedTools(f.allowedTools...))
	}

	if len(f.disallowedTools) > 0 {
		opts = append(opts, toolagent.WithDisallowedTools(f.disallowedTools...))
	}

	return opts, nil
}

func newAgent(ctx context.Context, f *flags, extra ...toolagent.Option) (*toolagent.Agent, error) {
	opts, err := agentOptions(f, os.Getenv)
	if err != nil {
		return nil, err
	}

	opts = append(opts, toolagent.WithLogger(newLogger(f.verbose)))

	return toolagent.New(ctx, append(opts, extra...)...)
}
