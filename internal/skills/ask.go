package skills

import (
	"context"
	"fmt"
	"strings"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

// Verdict is the validator's judgement of an answer.
type Verdict string

const (
	VerdictValid   Verdict = "VALID"
	VerdictInvalid Verdict = "INVALID"
	VerdictUnknown Verdict = "UNKNOWN"
)

const askUsage = "pai ask [--stream] <prompt...>"

// Classify maps a validator reply to a Verdict. INVALID is checked first
// because it contains VALID as a substring.
func Classify(reply string) Verdict {
	r := strings.ToUpper(strings.TrimSpace(reply))
	switch {
	case strings.Contains(r, string(VerdictInvalid)):
		return VerdictInvalid
	case strings.Contains(r, string(VerdictValid)):
		return VerdictValid
	default:
		return VerdictUnknown
	}
}

// ValidationPrompt is the user message sent to the validator.
func ValidationPrompt(question, answer string) string {
	return fmt.Sprintf("Original Question: \"%s\"\n\nResponse to Validate: \"%s\"", question, answer)
}

// Ask answers a prompt with the personality context. Without --stream the
// answer is checked by a second call with the validator context.
func Ask(ctx context.Context, env *skill.Env, args []string) (skill.Result, error) {
	fs := newFlagSet("ask")
	stream := fs.Bool("stream", false, "stream the answer as it is generated (skips validation)")
	rest, err := parseArgs(fs, askUsage, args)
	if err != nil {
		return skill.Result{}, err
	}
	if len(rest) == 0 {
		return skill.Result{}, skill.Usagef("a prompt is required\nusage: %s", askUsage)
	}
	prompt := strings.Join(rest, " ")

	generation := chatRequest(env.Model, env.Docs.Context("personality"), prompt)
	if *stream {
		return skill.Stream(env.LLM.Stream(ctx, generation)), nil
	}

	answer, err := env.LLM.Complete(ctx, generation)
	if err != nil {
		return skill.Result{}, err
	}

	validation := chatRequest(env.Model, env.Docs.Context("validator"), ValidationPrompt(prompt, answer))
	verdict := VerdictUnknown
	reply, err := env.LLM.Complete(ctx, validation)
	if err != nil {
		env.Logger.Warn("validation call failed, verdict unknown", "error", err)
	} else {
		verdict = Classify(reply)
	}

	return skill.Text(fmt.Sprintf("[VALIDATION: %s] %s", verdict, answer)), nil
}
