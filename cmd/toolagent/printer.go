package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	toolagent "github.com/wagiedev/toolagent-go"
)

type theme struct {
	banner    lipgloss.Style
	prompt    lipgloss.Style
	assistant lipgloss.Style
	tool      lipgloss.Style
	notice    lipgloss.Style
	muted     lipgloss.Style
}

func newTheme() theme {
	blue := lipgloss.Color("#01cdfe")
	orange := lipgloss.Color("#d97757")
	mint := lipgloss.Color("#05ffa1")
	red := lipgloss.Color("#ff5f5f")
	gray := lipgloss.Color("#8a8a8a")

	return theme{
		banner:    lipgloss.NewStyle().Bold(true),
		prompt:    lipgloss.NewStyle().Foreground(blue).Bold(true),
		assistant: lipgloss.NewStyle().Foreground(orange).Bold(true),
		tool:      lipgloss.NewStyle().Foreground(mint),
		notice:    lipgloss.NewStyle().Foreground(red),
		muted:     lipgloss.NewStyle().Foreground(gray),
	}
}

// printer writes conversation output to a terminal.
type printer struct {
	out   io.Writer
	theme theme
}

var _ toolagent.Printer = (*printer)(nil)

func newPrinter(out io.Writer, t theme) *printer {
	return &printer{out: out, theme: t}
}

func (p *printer) Assistant(text string) {
	_, _ = fmt.Fprintf(p.out, "%s: %s\n", p.theme.assistant.Render("Claude"), text)
}

func (p *printer) ToolUse(use *toolagent.ToolUseBlock) {
	input, err := json.Marshal(use.Input)
	if err != nil {
		input = []byte("{}")
	}

	_, _ = fmt.Fprintf(p.out, "%s %s\n",
		p.theme.tool.Render("tool: "+use.Name),
		p.theme.muted.Render(string(input)),
	)
}

func (p *printer) Notice(text string) {
	_, _ = fmt.Fprintln(p.out, p.theme.notice.Render(text))
}
