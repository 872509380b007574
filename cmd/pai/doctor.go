package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/config"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/doctor"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skills"
)

func runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output results as JSON")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	registry, err := skills.Builtin()
	if err != nil {
		printError(err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		return 1
	}

	result := doctor.New(cfg, registry).Validate()

	if *jsonOut {
		out, err := doctor.FormatJSON(result)
		if err != nil {
			printError(err)
			return 1
		}
		fmt.Println(out)
	} else {
		t := newTheme(os.Stdout)
		if cfg.SourceFile != "" {
			fmt.Println(t.Dim.Render("config: " + cfg.SourceFile))
		}
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	return 0
}

func runSkills(args []string) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: pai skills")
		return 1
	}
	registry, err := skills.Builtin()
	if err != nil {
		printError(err)
		return 1
	}

	t := newTheme(os.Stdout)
	var b strings.Builder
	for _, cmd := range registry.All() {
		line := fmt.Sprintf("%-10s %-11s", cmd.Name, cmd.Mode.String())
		if cmd.RequiresCredential {
			line += " " + t.Warn.Render("credential")
		}
		b.WriteString(strings.TrimRight(line, " ") + "\n")
		if cmd.Usage != "" {
			b.WriteString("  " + t.Dim.Render(cmd.Usage) + "\n")
		}
	}
	fmt.Print(b.String())
	return 0
}
