package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/telemetry"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/telemetry/mocks"
)

func newTestSlogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestEmitSendsEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockSink(ctrl)
	logger, _ := newTestSlogger()
	e := telemetry.NewEmitter(sink, telemetry.SourceCLI, time.Second, logger)

	sink.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, ev telemetry.Event) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		assert.Equal(t, "pai-cli", ev.SourceApp)
		assert.Equal(t, "ExecuteSkill:ask", ev.HookEventType)
		assert.Equal(t, "ask", ev.Payload.Skill)
		assert.Equal(t, []string{"hello"}, ev.Payload.Args)
		assert.Equal(t, "session-1", ev.SessionID)
		assert.NotEmpty(t, ev.ID)
		assert.NotZero(t, ev.Timestamp)
		return nil
	})

	ev := e.Emit(context.Background(), "session-1", "ask", []string{"hello"})
	assert.Equal(t, "ask", ev.Payload.Skill)
}

func TestEmitFailureIsLoggedNotReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockSink(ctrl)
	logger, logBuf := newTestSlogger()
	e := telemetry.NewEmitter(sink, telemetry.SourceCLI, time.Second, logger)

	sink.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	e.Emit(context.Background(), "s", "wisdom", nil)
	assert.Contains(t, logBuf.String(), "telemetry delivery failed")
	assert.Contains(t, logBuf.String(), "connection refused")
}

func TestEmitIsBoundedByTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sink := mocks.NewMockSink(ctrl)
	logger, logBuf := newTestSlogger()
	e := telemetry.NewEmitter(sink, telemetry.SourceCLI, 50*time.Millisecond, logger)

	sink.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ telemetry.Event) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	e.Emit(context.Background(), "s", "ask", nil)
	assert.Less(t, time.Since(start), time.Second)
	assert.Contains(t, logBuf.String(), "deadline exceeded")
}

func TestMultiSinkFansOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := mocks.NewMockSink(ctrl)
	b := mocks.NewMockSink(ctrl)
	a.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("a down"))
	b.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)

	err := telemetry.MultiSink{a, b}.Send(context.Background(), telemetry.NewEvent("x", "s", "ask", nil))
	assert.ErrorContains(t, err, "a down")
}
