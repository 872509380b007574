package skills

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

const sharabaUsage = "pai sharaba <image_path>"

type emotionScore struct {
	name  string
	score float64
}

// Placeholder scores until a real emotion model is wired in.
var mockEmotions = []emotionScore{
	{"Joy", 0.7},
	{"Sadness", 0.1},
	{"Surprise", 0.2},
}

// Sharaba reports the emotions detected in an image file.
func Sharaba(_ context.Context, env *skill.Env, args []string) (skill.Result, error) {
	flags := newFlagSet("sharaba")
	imagePath := flags.String("image_path", "", "path to the image file")
	rest, err := parseArgs(flags, sharabaUsage, args)
	if err != nil {
		return skill.Result{}, err
	}
	path := *imagePath
	if path == "" && len(rest) > 0 {
		path = rest[0]
	}
	if path == "" {
		return skill.Result{}, skill.Usagef("an image path is required\nusage: %s", sharabaUsage)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return skill.Result{}, skill.NotFoundf("image file not found at %s", path)
		}
		return skill.Result{}, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return skill.Result{}, skill.Usagef("%s is a directory, not an image", path)
	}
	env.Logger.Debug("analyzing image", "path", path, "bytes", info.Size())

	var b strings.Builder
	b.WriteString("\n--- Sharaba Kavacham Analysis ---\n")
	b.WriteString("Detected emotions from the provided image:\n")
	for _, e := range mockEmotions {
		fmt.Fprintf(&b, "- %s: %.1f%%\n", e.name, e.score*100)
	}
	b.WriteString("---------------------------------\n")
	return skill.Text(b.String()), nil
}
