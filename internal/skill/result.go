package skill

import (
	"iter"
	"strings"
)

// Result is the output of a skill: one complete string or a stream of chunks.
type Result struct {
	text      string
	stream    iter.Seq2[string, error]
	streaming bool
}

// Text returns a single-chunk result.
func Text(s string) Result {
	return Result{text: s}
}

// Stream returns a result whose chunks are produced lazily by seq.
func Stream(seq iter.Seq2[string, error]) Result {
	return Result{stream: seq, streaming: seq != nil}
}

// Streaming reports whether the result is produced lazily.
func (r Result) Streaming() bool { return r.streaming }

// Chunks yields the result's content in order. A single result yields at most
// one chunk; an empty string yields nothing.
func (r Result) Chunks() iter.Seq2[string, error] {
	if r.streaming {
		return r.stream
	}
	return func(yield func(string, error) bool) {
		if r.text != "" {
			yield(r.text, nil)
		}
	}
}

// Collect concatenates every chunk. It stops at the first error and returns
// what was produced so far alongside it.
func Collect(r Result) (string, error) {
	var b strings.Builder
	for chunk, err := range r.Chunks() {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk)
	}
	return b.String(), nil
}
