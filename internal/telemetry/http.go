package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPSink POSTs events as JSON to an observability endpoint.
type HTTPSink struct {
	endpoint string
	client   *resty.Client
}

func NewHTTPSink(endpoint string, timeout time.Duration) *HTTPSink {
	c := resty.New().SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &HTTPSink{endpoint: endpoint, client: c}
}

func (s *HTTPSink) Send(ctx context.Context, ev Event) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(ev).
		Post(s.endpoint)
	if err != nil {
		return fmt.Errorf("send telemetry: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send telemetry: HTTP %d", resp.StatusCode())
	}
	return nil
}
