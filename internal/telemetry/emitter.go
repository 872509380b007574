package telemetry

import (
	"context"
	"log/slog"
	"time"
)

const DefaultTimeout = 2 * time.Second

// Emitter sends one event per invocation. Delivery is best-effort and
// at-most-once: failures are logged and never returned to the caller.
type Emitter struct {
	sink      Sink
	sourceApp string
	timeout   time.Duration
	logger    *slog.Logger
}

func NewEmitter(sink Sink, sourceApp string, timeout time.Duration, logger *slog.Logger) *Emitter {
	if sink == nil {
		sink = NopSink{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{sink: sink, sourceApp: sourceApp, timeout: timeout, logger: logger}
}

// Emit builds and sends the event for skill. It blocks for at most the
// configured timeout and returns the event that was attempted.
func (e *Emitter) Emit(ctx context.Context, sessionID, skill string, args []string) Event {
	ev := NewEvent(e.sourceApp, sessionID, skill, args)

	sendCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.sink.Send(sendCtx, ev); err != nil {
		e.logger.Warn("telemetry delivery failed", "skill", skill, "event_id", ev.ID, "error", err)
		return ev
	}
	e.logger.Debug("telemetry sent", "skill", skill, "event_id", ev.ID)
	return ev
}
