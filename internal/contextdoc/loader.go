// Package contextdoc loads the markdown documents skills send as system prompts.
package contextdoc

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

// Loader reads context documents (<dir>/<name>.md) and fabric patterns.
type Loader struct {
	contextDir  string
	patternPath func(name string) string
	logger      *slog.Logger
}

// New creates a Loader. patternPath maps a pattern name to its system.md path.
func New(contextDir string, patternPath func(name string) string, logger *slog.Logger) *Loader {
	return &Loader{
		contextDir:  contextDir,
		patternPath: patternPath,
		logger:      logger,
	}
}

// Context returns the named context document. A missing or unreadable file is
// not fatal: a warning is logged and the empty string returned.
func (l *Loader) Context(name string) string {
	if !validName(name) {
		l.logger.Warn("invalid context name, proceeding without it", "context", name)
		return ""
	}

	path := filepath.Join(l.contextDir, name+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn(fmt.Sprintf("%s.md not found, proceeding without this context", name), "path", path)
		} else {
			l.logger.Warn("failed to load context", "context", name, "error", err)
		}
		return ""
	}
	return string(data)
}

// Pattern returns the system prompt of a named pattern. Unlike Context, a
// missing or empty pattern is an error.
func (l *Loader) Pattern(name string) (string, error) {
	if !validName(name) {
		return "", skill.NotFoundf("pattern %q not found", name)
	}

	path := l.patternPath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", skill.NotFoundf("pattern %q not found at %s", name, path)
		}
		return "", fmt.Errorf("load pattern %q: %w", name, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", skill.NotFoundf("pattern %q is empty", name)
	}
	return string(data), nil
}

// validName rejects names that would leave the document directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
