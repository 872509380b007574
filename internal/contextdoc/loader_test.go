package contextdoc

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

func newTestLoader(t *testing.T) (*Loader, string, *bytes.Buffer) {
	t.Helper()
	root := t.TempDir()
	contextDir := filepath.Join(root, "context")
	require.NoError(t, os.MkdirAll(contextDir, 0o755))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	patternPath := func(name string) string {
		return filepath.Join(root, "patterns", name, "system.md")
	}
	return New(contextDir, patternPath, logger), root, &logs
}

func TestContextReadsDocument(t *testing.T) {
	l, root, logs := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "context", "personality.md"), []byte("Be kind."), 0o644))

	assert.Equal(t, "Be kind.", l.Context("personality"))
	assert.Empty(t, logs.String())
}

func TestContextMissingDegradesToEmpty(t *testing.T) {
	l, _, logs := newTestLoader(t)

	assert.Equal(t, "", l.Context("validator"))
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "validator.md not found")
}

func TestContextRejectsTraversal(t *testing.T) {
	l, root, logs := newTestLoader(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.md"), []byte("nope"), 0o644))

	assert.Equal(t, "", l.Context("../secret"))
	assert.Contains(t, logs.String(), "invalid context name")
}

func TestPattern(t *testing.T) {
	l, root, _ := newTestLoader(t)
	dir := filepath.Join(root, "patterns", "extract_wisdom")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "system.md"), []byte("# IDENTITY\nExtract wisdom."), 0o644))

	got, err := l.Pattern("extract_wisdom")
	require.NoError(t, err)
	assert.Contains(t, got, "Extract wisdom.")
}

func TestPatternErrors(t *testing.T) {
	l, root, _ := newTestLoader(t)
	emptyDir := filepath.Join(root, "patterns", "blank")
	require.NoError(t, os.MkdirAll(emptyDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(emptyDir, "system.md"), []byte("  \n"), 0o644))

	for _, name := range []string{"missing", "blank", "../x", ""} {
		t.Run(name, func(t *testing.T) {
			_, err := l.Pattern(name)
			require.Error(t, err)
			assert.Equal(t, skill.KindNotFound, skill.KindOf(err))
		})
	}
}
