package dispatch

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/log"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/telemetry"
)

const (
	// maxStderrBytes caps the amount of stderr captured from a child process.
	maxStderrBytes = 64 * 1024

	// terminationGracePeriod is the time we wait after SIGTERM before sending SIGKILL.
	terminationGracePeriod = 5 * time.Second
)

// Credential is the API key handed to skills that require it.
type Credential struct {
	EnvVar string
	Value  string
}

// Options configures a Dispatcher.
type Options struct {
	Registry     *skill.Registry
	Env          *skill.Env
	Emitter      *telemetry.Emitter
	Credential   Credential
	SkillsDir    string
	Interpreters map[string]string
	Timeout      time.Duration // 0 means no timeout
	SessionID    string        // default session for invocations without one in ctx

	// Diagnostics receives stderr of external skills that exit successfully.
	// When nil it is logged instead.
	Diagnostics io.Writer
}

// Dispatcher runs skills from the allow-list.
type Dispatcher struct {
	registry     *skill.Registry
	env          *skill.Env
	emitter      *telemetry.Emitter
	credential   Credential
	skillsDir    string
	interpreters map[string]string
	timeout      time.Duration
	sessionID    string
	diagnostics  io.Writer
	gracePeriod  time.Duration
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	env := opts.Env
	if env == nil {
		env = &skill.Env{}
	}
	if env.Logger == nil {
		env.Logger = log.WithComponent("skill")
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = telemetry.NewEmitter(telemetry.NopSink{}, telemetry.SourceCLI, 0, nil)
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Dispatcher{
		registry:     opts.Registry,
		env:          env,
		emitter:      emitter,
		credential:   opts.Credential,
		skillsDir:    opts.SkillsDir,
		interpreters: opts.Interpreters,
		timeout:      opts.Timeout,
		sessionID:    sessionID,
		diagnostics:  opts.Diagnostics,
		gracePeriod:  terminationGracePeriod,
	}
}

type sessionKey struct{}

// WithSession attaches a telemetry session id to ctx.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

func (d *Dispatcher) session(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey{}).(string); ok && id != "" {
		return id
	}
	return d.sessionID
}

// Invoke resolves name, checks the credential, emits telemetry and starts the
// skill. External skills are started lazily when the result is iterated.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args []string) (skill.Result, error) {
	cmd, err := d.registry.Resolve(name)
	if err != nil {
		return skill.Result{}, err
	}

	if cmd.RequiresCredential && d.credential.Value == "" {
		return skill.Result{}, skill.NewError(skill.KindConfig, name,
			fmt.Errorf("%w: set %s", skill.ErrMissingCredential, d.credential.EnvVar))
	}

	session := d.session(ctx)
	d.emitter.Emit(ctx, session, name, args)

	logger := log.WithSkill(name).With("component", "dispatch", "session_id", session, "mode", cmd.Mode.String())
	logger.Debug("invoking skill", "args", len(args))

	switch cmd.Mode {
	case skill.ModeExternal:
		return d.invokeExternal(ctx, cmd, args, logger)
	default:
		return d.invokeInProcess(ctx, cmd, args, logger)
	}
}

// Run invokes name and relays its output to w as it is produced.
func (d *Dispatcher) Run(ctx context.Context, name string, args []string, w io.Writer) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	res, err := d.Invoke(ctx, name, args)
	if err != nil {
		return skill.Attribute(err, name)
	}

	relay := NewRelay(w)
	err = relay.Copy(res)
	if ferr := relay.Finish(); err == nil {
		err = ferr
	}
	return skill.Attribute(err, name)
}

// Output invokes name and returns its complete output.
func (d *Dispatcher) Output(ctx context.Context, name string, args []string) (string, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	res, err := d.Invoke(ctx, name, args)
	if err != nil {
		return "", skill.Attribute(err, name)
	}
	out, err := skill.Collect(res)
	return out, skill.Attribute(err, name)
}

func (d *Dispatcher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout > 0 {
		return context.WithTimeout(ctx, d.timeout)
	}
	return context.WithCancel(ctx)
}

func (d *Dispatcher) invokeInProcess(ctx context.Context, cmd skill.Command, args []string, logger *slog.Logger) (res skill.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = d.recovered(cmd.Name, r, logger)
		}
	}()

	res, err = cmd.Handler(ctx, d.env, args)
	if err != nil {
		return skill.Result{}, skill.Attribute(err, cmd.Name)
	}
	if res.Streaming() {
		return skill.Stream(d.guardStream(cmd.Name, res, logger)), nil
	}
	return res, nil
}

// guardStream converts a panic raised while producing chunks into an error.
// Panics raised by the consumer propagate unchanged.
func (d *Dispatcher) guardStream(name string, res skill.Result, logger *slog.Logger) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		inYield := false
		defer func() {
			if r := recover(); r != nil {
				if inYield {
					panic(r)
				}
				yield("", d.recovered(name, r, logger))
			}
		}()
		for chunk, err := range res.Chunks() {
			inYield = true
			ok := yield(chunk, err)
			inYield = false
			if !ok || err != nil {
				return
			}
		}
	}
}

func (d *Dispatcher) recovered(name string, r any, logger *slog.Logger) error {
	logger.Error("skill panicked", "panic", r, "stack", string(debug.Stack()))
	return skill.NewError(skill.KindInternal, name, fmt.Errorf("skill panicked: %v", r))
}
