package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/dispatch"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skills"
)

// theme holds the CLI styles for one output stream. Colors degrade to plain
// text when the stream is not a terminal.
type theme struct {
	Heading lipgloss.Style
	Command lipgloss.Style
	Dim     lipgloss.Style
	Error   lipgloss.Style
	Warn    lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)
	return theme{
		Heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF")),
		Command: r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		Dim:     r.NewStyle().Foreground(lipgloss.Color("#888888")),
		Error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F5F")),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
	}
}

// usageColumn is the width of the command column in printUsage.
const usageColumn = 28

func printUsage(w io.Writer) {
	t := newTheme(w)
	row := func(cmd, desc string) string {
		if len(cmd) > usageColumn {
			return fmt.Sprintf("  %s\n  %s %s\n", t.Command.Render(cmd), strings.Repeat(" ", usageColumn), desc)
		}
		return fmt.Sprintf("  %s %s\n", t.Command.Render(fmt.Sprintf("%-*s", usageColumn, cmd)), desc)
	}

	var b strings.Builder
	b.WriteString("pai - personal AI skill dispatcher\n\n")
	b.WriteString(t.Heading.Render("Usage:") + "\n")
	b.WriteString("  pai <command> [args...]\n\n")
	if registry, err := skills.Builtin(); err == nil {
		b.WriteString(t.Heading.Render("Skills:") + "\n")
		for _, cmd := range registry.All() {
			usage := strings.TrimPrefix(cmd.Usage, "pai ")
			if usage == "" {
				usage = cmd.Name
			}
			b.WriteString(row(usage, cmd.Description))
		}
		b.WriteString("\n")
	}
	b.WriteString(t.Heading.Render("Service:") + "\n")
	b.WriteString(row("serve [--listen addr]", "Start the HTTP skill service"))
	b.WriteString(row("doctor [--json]", "Validate configuration and skill prerequisites"))
	b.WriteString(row("skills", "List the allowed skills"))
	b.WriteString("\n")
	b.WriteString(t.Heading.Render("General:") + "\n")
	b.WriteString(row("version [--json]", "Show version information"))
	b.WriteString(row("help", "Show this help message"))

	fmt.Fprint(w, b.String())
}

// printError writes a styled error line to stderr. Subprocess failures keep
// the child's stderr below the headline.
func printError(err error) {
	t := newTheme(os.Stderr)
	msg := dispatch.FormatError(err)
	head, rest, _ := strings.Cut(msg, "\n")
	label, detail, found := strings.Cut(head, ": ")
	if found {
		head = t.Error.Render(label+":") + " " + detail
	}
	fmt.Fprint(os.Stderr, head+"\n"+rest)
}
