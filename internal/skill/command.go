package skill

import (
	"context"
	"iter"
	"log/slog"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/protocol"
)

// Mode is the closed set of invocation strategies.
type Mode int

const (
	ModeInProcess Mode = iota
	ModeExternal
)

func (m Mode) String() string {
	if m == ModeExternal {
		return "external"
	}
	return "in-process"
}

// Handler implements an in-process skill.
type Handler func(ctx context.Context, env *Env, args []string) (Result, error)

// External describes a skill implemented in another runtime.
type External struct {
	Language   string // selects the interpreter binary
	Entrypoint string // script path, relative to the skill workdir
	WorkDir    string // relative to the configured skills dir; "" means the skills dir itself
}

// Command is one entry of the allow-list.
type Command struct {
	Name               string
	Description        string
	Usage              string
	Mode               Mode
	RequiresCredential bool

	Handler  Handler   // ModeInProcess only
	External *External // ModeExternal only
}

// Completer sends chat-completion requests to the hosted model.
type Completer interface {
	Complete(ctx context.Context, req protocol.Request) (string, error)
	Stream(ctx context.Context, req protocol.Request) iter.Seq2[string, error]
}

// DocumentLoader reads context documents and prompt patterns from disk.
type DocumentLoader interface {
	// Context returns the named context document, or "" if it cannot be read.
	Context(name string) string
	// Pattern returns the system prompt of a named pattern.
	Pattern(name string) (string, error)
}

// Fetcher retrieves the text content of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Env is built once per process and handed to every in-process handler.
type Env struct {
	LLM     Completer
	Docs    DocumentLoader
	Fetcher Fetcher
	Logger  *slog.Logger

	Model         string // default chat model
	RouterModel   string // model reported by the route skill
	RooConfigPath string
}
