package telemetry

import (
	"context"
	"errors"
)

//go:generate mockgen -destination=mocks/mock_sink.go -package=mocks github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/telemetry Sink

// Sink delivers events somewhere.
type Sink interface {
	Send(ctx context.Context, ev Event) error
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Send(context.Context, Event) error { return nil }

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Send(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
