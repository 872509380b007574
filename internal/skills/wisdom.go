package skills

import (
	"context"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

const (
	wisdomPattern = "extract_wisdom"
	wisdomUsage   = "pai wisdom (--text <text> | --url <url>) [--stream]"
)

// Wisdom runs the extract_wisdom pattern over text or a fetched web page.
func Wisdom(ctx context.Context, env *skill.Env, args []string) (skill.Result, error) {
	fs := newFlagSet("wisdom")
	text := fs.String("text", "", "text content to process")
	url := fs.String("url", "", "URL of the content to process")
	stream := fs.Bool("stream", false, "stream the response")
	rest, err := parseArgs(fs, wisdomUsage, args)
	if err != nil {
		return skill.Result{}, err
	}
	if len(rest) > 0 {
		return skill.Result{}, skill.Usagef("unexpected argument %q\nusage: %s", rest[0], wisdomUsage)
	}
	if *text == "" && *url == "" {
		return skill.Result{}, skill.Usagef("either --text or --url must be provided\nusage: %s", wisdomUsage)
	}

	system, err := env.Docs.Pattern(wisdomPattern)
	if err != nil {
		return skill.Result{}, err
	}

	input := *text
	if *url != "" {
		if env.Fetcher == nil {
			return skill.Result{}, skill.NewError(skill.KindConfig, "", errNoFetcher)
		}
		input, err = env.Fetcher.Fetch(ctx, *url)
		if err != nil {
			return skill.Result{}, err
		}
		env.Logger.Debug("fetched content", "url", *url, "bytes", len(input))
	}

	req := chatRequest(env.Model, system, input)
	if *stream {
		return skill.Stream(env.LLM.Stream(ctx, req)), nil
	}
	out, err := env.LLM.Complete(ctx, req)
	if err != nil {
		return skill.Result{}, err
	}
	return skill.Text(out), nil
}
