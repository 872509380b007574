package skill

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownCommand    = errors.New("unknown command")
	ErrMissingCredential = errors.New("API credential not set")
)

// Kind classifies a skill failure.
type Kind int

const (
	KindInternal Kind = iota
	KindConfig
	KindNotFound
	KindUsage
	KindTransport
	KindSubprocess
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not_found"
	case KindUsage:
		return "usage"
	case KindTransport:
		return "transport"
	case KindSubprocess:
		return "subprocess"
	default:
		return "internal"
	}
}

// Error is the typed failure returned by resolution and invocation.
type Error struct {
	Kind  Kind
	Skill string
	Err   error

	// Subprocess only.
	ExitCode int
	Stderr   string
}

func (e *Error) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Skill == "" {
		return msg
	}
	if e.Kind == KindSubprocess && e.ExitCode > 0 {
		return fmt.Sprintf("skill %q failed (exit %d): %s", e.Skill, e.ExitCode, msg)
	}
	return fmt.Sprintf("skill %q: %s", e.Skill, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind. skill may be empty; the dispatcher fills it in.
func NewError(kind Kind, skill string, err error) *Error {
	return &Error{Kind: kind, Skill: skill, Err: err}
}

// Usagef reports invalid skill arguments.
func Usagef(format string, args ...any) error {
	return NewError(KindUsage, "", fmt.Errorf(format, args...))
}

// NotFoundf reports a missing skill, file or resource.
func NotFoundf(format string, args ...any) error {
	return NewError(KindNotFound, "", fmt.Errorf(format, args...))
}

// Transport wraps a network or API failure.
func Transport(err error) error {
	return NewError(KindTransport, "", err)
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// ExitCode maps err to a process exit code. Subprocess failures propagate the
// child's exit code; every other failure exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *Error
	if errors.As(err, &se) && se.Kind == KindSubprocess && se.ExitCode > 0 {
		return se.ExitCode
	}
	return 1
}

// Attribute names skill on err, preserving an existing kind. Untyped errors
// become KindInternal.
func Attribute(err error, skill string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		if se.Skill == "" {
			cp := *se
			cp.Skill = skill
			return &cp
		}
		return err
	}
	return &Error{Kind: KindInternal, Skill: skill, Err: err}
}
