package skills

import (
	"context"
	"strings"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

// DefaultRouterModel is reported when no router model is configured.
const DefaultRouterModel = "mistralai/mistral-7b-instruct"

// SelectModel picks the model for prompt. Every prompt currently routes to
// the configured general-purpose model.
func SelectModel(env *skill.Env, _ string) string {
	if env.RouterModel != "" {
		return env.RouterModel
	}
	return DefaultRouterModel
}

// Route prints the model a prompt would be sent to.
func Route(_ context.Context, env *skill.Env, args []string) (skill.Result, error) {
	fs := newFlagSet("route")
	rest, err := parseArgs(fs, "pai route [prompt...]", args)
	if err != nil {
		return skill.Result{}, err
	}
	return skill.Text(SelectModel(env, strings.Join(rest, " ")) + "\n"), nil
}
