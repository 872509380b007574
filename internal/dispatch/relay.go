package dispatch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

// Relay writes skill output to a destination as it arrives.
type Relay struct {
	out   io.Writer
	wrote bool
}

func NewRelay(out io.Writer) *Relay {
	return &Relay{out: out}
}

// Write forwards one chunk. Empty chunks are ignored.
func (r *Relay) Write(chunk string) error {
	if chunk == "" {
		return nil
	}
	if _, err := io.WriteString(r.out, chunk); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	r.wrote = true
	if f, ok := r.out.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Copy relays every chunk of res in order and stops at the first error.
func (r *Relay) Copy(res skill.Result) error {
	for chunk, err := range res.Chunks() {
		if err != nil {
			return err
		}
		if err := r.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Finish appends exactly one newline if any output was produced.
func (r *Relay) Finish() error {
	if !r.wrote {
		return nil
	}
	return r.Write("\n")
}

// FormatError renders err for the error stream. Captured child stderr follows
// the failure line.
func FormatError(err error) string {
	var se *skill.Error
	if errors.As(err, &se) && se.Kind == skill.KindSubprocess && se.Stderr != "" {
		header := fmt.Sprintf("Error: skill %q failed (exit %d):", se.Skill, se.ExitCode)
		return header + "\n" + strings.TrimRight(se.Stderr, "\n") + "\n"
	}
	return "Error: " + err.Error() + "\n"
}
