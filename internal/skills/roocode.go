package skills

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/roocfg"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

const rooUsage = `pai roo-code <command> [args...]

commands:
  list-modes                          list the available modes
  show-config                         show the model configured for each mode
  set-model --mode <m> --model <id>   set the model for a mode
  create-mode <name> --prompt <p>     create a custom mode
  mcp <server> --prompt <p>           interact with an MCP server
  index <path>                        index a codebase
  search <query>                      semantic search
  browse <url> --prompt <p>           automate browser interactions`

// RooCode manages the Roo Code mode/model configuration file.
func RooCode(_ context.Context, env *skill.Env, args []string) (skill.Result, error) {
	if len(args) == 0 {
		return skill.Result{}, skill.Usagef("a roo-code command is required\nusage: %s", rooUsage)
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list-modes", "show-config", "set-model", "create-mode":
		return rooConfigCommand(env, sub, rest)
	case "mcp":
		return rooPromptCommand(sub, rest, "server", "Interacting with MCP server '%s' with prompt: '%s'...")
	case "browse":
		return rooPromptCommand(sub, rest, "url", "Browsing to '%s' with prompt: '%s'...")
	case "index":
		return rooPositionalCommand(sub, rest, "path", "Indexing codebase at '%s'...")
	case "search":
		return rooPositionalCommand(sub, rest, "query", "Searching for '%s'...")
	default:
		return skill.Result{}, skill.Usagef("unknown roo-code command %q\nusage: %s", sub, rooUsage)
	}
}

func rooConfigCommand(env *skill.Env, sub string, args []string) (skill.Result, error) {
	fs := newFlagSet("roo-code " + sub)
	mode := fs.String("mode", "", "mode to configure")
	model := fs.String("model", "", "model to use")
	prompt := fs.String("prompt", "", "system prompt for the new mode")
	rest, err := parseArgs(fs, rooUsage, args)
	if err != nil {
		return skill.Result{}, err
	}

	doc, err := roocfg.Load(env.RooConfigPath, env.Logger)
	if err != nil {
		return skill.Result{}, skill.NewError(skill.KindConfig, "", err)
	}

	var b strings.Builder
	switch sub {
	case "list-modes":
		b.WriteString("Available Roo Code modes:\n")
		for _, m := range doc.Modes {
			fmt.Fprintf(&b, "- %s\n", m)
		}

	case "show-config":
		b.WriteString("Current model configuration:\n")
		for _, m := range doc.SortedModels() {
			fmt.Fprintf(&b, "- %s: %s\n", m, doc.ModelConfig[m])
		}

	case "set-model":
		if *mode == "" || *model == "" {
			return skill.Result{}, skill.Usagef("set-model requires --mode and --model")
		}
		if err := doc.SetModel(*mode, *model); err != nil {
			if errors.Is(err, roocfg.ErrModeNotFound) {
				return skill.Result{}, skill.NotFoundf("mode '%s' not found", *mode)
			}
			return skill.Result{}, err
		}
		if err := doc.Save(); err != nil {
			return skill.Result{}, err
		}
		fmt.Fprintf(&b, "Model for mode '%s' has been set to '%s'.\n", *mode, *model)

	case "create-mode":
		if len(rest) != 1 || *prompt == "" {
			return skill.Result{}, skill.Usagef("create-mode requires <name> and --prompt")
		}
		name := rest[0]
		if err := doc.CreateMode(name); err != nil {
			if errors.Is(err, roocfg.ErrModeExists) {
				return skill.Result{}, skill.Usagef("mode '%s' already exists", name)
			}
			return skill.Result{}, err
		}
		if err := doc.Save(); err != nil {
			return skill.Result{}, err
		}
		fmt.Fprintf(&b, "New mode '%s' has been created.\n", name)
	}
	return skill.Text(b.String()), nil
}

func rooPromptCommand(sub string, args []string, target, format string) (skill.Result, error) {
	fs := newFlagSet("roo-code " + sub)
	prompt := fs.String("prompt", "", "prompt to send")
	rest, err := parseArgs(fs, rooUsage, args)
	if err != nil {
		return skill.Result{}, err
	}
	if len(rest) != 1 || *prompt == "" {
		return skill.Result{}, skill.Usagef("%s requires <%s> and --prompt", sub, target)
	}
	return skill.Text(fmt.Sprintf(format+"\n", rest[0], *prompt)), nil
}

func rooPositionalCommand(sub string, args []string, target, format string) (skill.Result, error) {
	rest, err := parseArgs(newFlagSet("roo-code "+sub), rooUsage, args)
	if err != nil {
		return skill.Result{}, err
	}
	if len(rest) != 1 {
		return skill.Result{}, skill.Usagef("%s requires <%s>", sub, target)
	}
	return skill.Text(fmt.Sprintf(format+"\n", rest[0])), nil
}
