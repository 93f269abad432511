package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	toolagent "github.com/wagiedev/toolagent-go"
)

func toolsCmd(f *flags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered to the model",
		Long: `Discover every configured MCP service and list the resulting tools.
No API key is needed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The endpoint is never called.
			agent, err := newAgent(cmd.Context(), f, toolagent.WithEndpoint(toolagent.EndpointFunc(nil)))
			if err != nil {
				return err
			}

			specs := agent.Tools()

			if jsonOutput {
				data, err := json.MarshalIndent(specs, "", "  ")
				if err != nil {
					return err
				}

				fmt.Println(string(data))

				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "TOOL\tDESCRIPTION\n")

			for _, s := range specs {
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", s.Name, firstLine(s.Description))
			}

			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output tool declarations as JSON")

	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models and their aliases",
		Run: func(_ *cobra.Command, _ []string) {
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(tw, "MODEL\tFAMILY\tALIASES\tMAX OUTPUT\n")

			for _, m := range toolagent.Models() {
				status := ""
				if m.ID == toolagent.DefaultModel {
					status = " (default)"
				}

				_, _ = fmt.Fprintf(tw, "%s%s\t%s\t%v\t%d\n", m.ID, status, m.Family, m.Aliases, m.MaxOutputTokens)
			}

			_ = tw.Flush()
		},
	}
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}

	return s
}
