// Command toolagent is an interactive chat with a Claude model that can use
// local filesystem tools and the operations of configured MCP services.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		if !stderrors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		os.Exit(1)
	}
}

// errReported marks errors already shown to the user.
var errReported = stderrors.New("error already reported")

// flags are shared by every subcommand.
type flags struct {
	configPath      string
	model           string
	maxToolTurns    int
	parallelism     int
	verbose         bool
	defaultServices bool
	noHandshake     bool
	permissionMode  string
	allowedTools    []string
	disallowedTools []string
}

func rootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "toolagent",
		Short: "Chat with Claude using local and MCP tools",
		Long: `Chat with Claude in the terminal. The model can list directories, read
files, and call operations of MCP services configured in toolagent.yaml.

Examples:
  toolagent                         # Interactive chat
  toolagent --default-services      # Add the filesystem and git MCP services
  toolagent tools                   # List the tools the model can use
  toolagent models                  # List known models`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), f)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "config file (default: ./toolagent.yaml or ~/.config/toolagent/config.yaml)")
	pf.StringVarP(&f.model, "model", "m", "", "model id or alias (sonnet, haiku, opus)")
	pf.IntVar(&f.maxToolTurns, "max-tool-turns", 0, "stop after this many consecutive tool turns (default 25)")
	pf.IntVar(&f.parallelism, "parallelism", 1, "tool uses of one turn to run at once")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging on stderr")
	pf.BoolVar(&f.defaultServices, "default-services", false, "add the filesystem and git MCP services")
	pf.BoolVar(&f.noHandshake, "no-handshake", false, "skip the MCP initialize handshake")
	pf.StringVar(&f.permissionMode, "permission-mode", "", "tool approval: default, plan, or bypassPermissions")
	pf.StringSliceVar(&f.allowedTools, "allowed-tools", nil, "tool name patterns that always run")
	pf.StringSliceVar(&f.disallowedTools, "disallowed-tools", nil, "tool name patterns that never run")

	cmd.AddCommand(toolsCmd(f), modelsCmd())

	return cmd
}
