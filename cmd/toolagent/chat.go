package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	toolagent "github.com/wagiedev/toolagent-go"
)

func runChat(ctx context.Context, f *flags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	theme := newTheme()
	printer := newPrinter(os.Stdout, theme)

	agent, err := newAgent(ctx, f, toolagent.WithPrinter(printer))
	if err != nil {
		return err
	}

	fmt.Println(theme.banner.Render("Chat with Claude (Ctrl-C to quit)"))

	in := toolagent.NewLineReader(os.Stdin, os.Stdout, theme.prompt.Render("You")+": ")

	if err := agent.Run(ctx, in); err != nil {
		// The printer has shown it.
		return fmt.Errorf("%w: %w", errReported, err)
	}

	fmt.Println()

	return nil
}
