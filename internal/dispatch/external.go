package dispatch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

func (d *Dispatcher) invokeExternal(ctx context.Context, cmd skill.Command, args []string, logger *slog.Logger) (skill.Result, error) {
	ext := cmd.External
	interpreter, ok := d.interpreters[ext.Language]
	if !ok || interpreter == "" {
		return skill.Result{}, skill.NewError(skill.KindConfig, cmd.Name,
			fmt.Errorf("no interpreter configured for language %q", ext.Language))
	}

	workDir := d.skillsDir
	if ext.WorkDir != "" {
		workDir = filepath.Join(d.skillsDir, ext.WorkDir)
	}

	argv := append([]string{ext.Entrypoint}, args...)
	env := os.Environ()
	if cmd.RequiresCredential && d.credential.EnvVar != "" {
		env = append(env, d.credential.EnvVar+"="+d.credential.Value)
	}

	return skill.Stream(d.spawn(ctx, cmd.Name, interpreter, argv, workDir, env, logger)), nil
}

// spawn starts the child when iterated and yields its stdout line by line.
// Breaking out of the iteration terminates the child.
func (d *Dispatcher) spawn(
	ctx context.Context,
	name string,
	interpreter string,
	argv []string,
	workDir string,
	env []string,
	logger *slog.Logger,
) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// Don't use CommandContext: termination is SIGTERM first, see watch.
		c := exec.Command(interpreter, argv...)
		c.Dir = workDir
		c.Env = env
		stderr := &cappedBuffer{limit: maxStderrBytes}
		c.Stderr = stderr

		stdout, err := c.StdoutPipe()
		if err != nil {
			yield("", skill.NewError(skill.KindSubprocess, name, fmt.Errorf("create stdout pipe: %w", err)))
			return
		}

		logger.Debug("spawning skill", "interpreter", interpreter, "argv", argv, "dir", workDir)
		if err := c.Start(); err != nil {
			yield("", skill.NewError(skill.KindSubprocess, name, fmt.Errorf("start %s: %w", interpreter, err)))
			return
		}

		exited := make(chan struct{})
		watchDone := make(chan struct{})
		go func() {
			defer close(watchDone)
			d.watch(ctx, c.Process, exited, logger)
		}()

		stopped := false
		reader := bufio.NewReader(stdout)
		for {
			line, rerr := reader.ReadString('\n')
			if line != "" && !yield(line, nil) {
				stopped = true
				cancel()
				break
			}
			if rerr != nil {
				if !errors.Is(rerr, io.EOF) {
					logger.Warn("reading skill output failed", "error", rerr)
				}
				break
			}
		}
		if stopped {
			// Unblock the child if it is still writing.
			go io.Copy(io.Discard, stdout)
		}

		waitErr := c.Wait()
		close(exited)
		<-watchDone

		if stopped {
			return
		}
		if err := d.exitError(ctx, name, waitErr, stderr.String(), logger); err != nil {
			yield("", err)
		}
	}
}

// watch terminates the process when ctx is done: SIGTERM, then SIGKILL once
// the grace period expires.
func (d *Dispatcher) watch(ctx context.Context, proc *os.Process, exited <-chan struct{}, logger *slog.Logger) {
	select {
	case <-exited:
		return
	case <-ctx.Done():
	}

	logger.Warn("terminating skill process, sending SIGTERM", "reason", context.Cause(ctx))
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		logger.Debug("failed to send SIGTERM", "error", err)
	}

	grace := time.NewTimer(d.gracePeriod)
	defer grace.Stop()

	select {
	case <-exited:
		logger.Info("skill process exited after SIGTERM")
	case <-grace.C:
		logger.Warn("skill process did not exit after SIGTERM, sending SIGKILL")
		if err := proc.Kill(); err != nil {
			logger.Error("failed to send SIGKILL", "error", err)
		}
	}
}

func (d *Dispatcher) exitError(ctx context.Context, name string, waitErr error, stderr string, logger *slog.Logger) error {
	if waitErr == nil {
		if stderr != "" {
			if d.diagnostics != nil {
				io.WriteString(d.diagnostics, stderr)
			} else {
				logger.Info("skill wrote to stderr", "stderr", stderr)
			}
		}
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return &skill.Error{Kind: skill.KindSubprocess, Skill: name, Err: fmt.Errorf("wait for process: %w", waitErr), Stderr: stderr}
	}

	code := exitErr.ExitCode()
	cause := fmt.Errorf("process exited with status %d", code)
	if ctx.Err() != nil {
		cause = fmt.Errorf("process terminated: %w", ctx.Err())
	}
	logger.Warn("skill exited with non-zero status", "exit_code", code)
	return &skill.Error{
		Kind:     skill.KindSubprocess,
		Skill:    name,
		Err:      cause,
		ExitCode: code,
		Stderr:   stderr,
	}
}

// cappedBuffer keeps the first limit bytes written and discards the rest.
type cappedBuffer struct {
	buf   []byte
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string { return string(b.buf) }
