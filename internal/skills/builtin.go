// Package skills holds the built-in skill handlers and assembles the allow-list.
package skills

import (
	_ "embed"
	"fmt"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

//go:embed external.yaml
var externalManifest []byte

// InProcess returns the skills implemented by this binary.
func InProcess() []skill.Command {
	return []skill.Command{
		{
			Name:               "ask",
			Description:        "Ask a question; the answer is checked by a validator",
			Usage:              "pai ask [--stream] <prompt...>",
			Mode:               skill.ModeInProcess,
			RequiresCredential: true,
			Handler:            Ask,
		},
		{
			Name:               "wisdom",
			Description:        "Extract wisdom from text or a web page",
			Usage:              "pai wisdom (--text <text> | --url <url>) [--stream]",
			Mode:               skill.ModeInProcess,
			RequiresCredential: true,
			Handler:            Wisdom,
		},
		{
			Name:        "sharaba",
			Description: "Analyze emotions in an image",
			Usage:       "pai sharaba <image_path>",
			Mode:        skill.ModeInProcess,
			Handler:     Sharaba,
		},
		{
			Name:        "roo-code",
			Description: "Manage Roo Code modes and models",
			Usage:       "pai roo-code <list-modes|show-config|set-model|create-mode|mcp|index|search|browse> [args...]",
			Mode:        skill.ModeInProcess,
			Handler:     RooCode,
		},
		{
			Name:        "route",
			Description: "Show the model a prompt would be routed to",
			Usage:       "pai route [prompt...]",
			Mode:        skill.ModeInProcess,
			Handler:     Route,
		},
	}
}

// Builtin returns the full allow-list: in-process skills followed by the
// external skills declared in the embedded manifest.
func Builtin() (*skill.Registry, error) {
	external, err := skill.ParseManifest(externalManifest)
	if err != nil {
		return nil, fmt.Errorf("embedded manifest: %w", err)
	}
	return skill.NewRegistry(append(InProcess(), external...)...)
}
