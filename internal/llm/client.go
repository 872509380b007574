// Package llm is the chat-completion client shared by every in-process skill.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/log"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/protocol"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

const (
	completionsPath = "/chat/completions"

	// maxErrorBody caps how much of an error response is quoted back to the user.
	maxErrorBody = 2048
)

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // 0 means no timeout
	AppName string        // sent as X-Title for provider attribution
}

// Client talks to an OpenAI-compatible chat-completion API.
// Build one per process and share it.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetHeader("Content-Type", "application/json")
	if opts.APIKey != "" {
		rc.SetAuthToken(opts.APIKey)
	}
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	if opts.AppName != "" {
		rc.SetHeader("X-Title", opts.AppName)
	}

	return &Client{
		http:   rc,
		logger: log.WithComponent("llm"),
	}
}

// Complete sends req and returns the full text of the first choice.
func (c *Client) Complete(ctx context.Context, req protocol.Request) (string, error) {
	req.Stream = false
	body, err := encode(&req)
	if err != nil {
		return "", err
	}

	c.logger.Debug("chat completion", "model", req.Model, "messages", len(req.Messages))

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(completionsPath)
	if err != nil {
		return "", skill.Transport(fmt.Errorf("chat completion request failed: %w", err))
	}
	if resp.IsError() {
		return "", skill.Transport(fmt.Errorf("chat completion failed: HTTP %d: %s",
			resp.StatusCode(), truncate(resp.String())))
	}

	parsed, err := protocol.ParseResponse(resp.Body())
	if err != nil {
		return "", skill.Transport(fmt.Errorf("chat completion: %w", err))
	}

	return parsed.Content(), nil
}

// Stream sends req with streaming enabled and yields content fragments as the
// server produces them. Iteration stops at the first error.
func (c *Client) Stream(ctx context.Context, req protocol.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req.Stream = true
		body, err := encode(&req)
		if err != nil {
			yield("", err)
			return
		}

		c.logger.Debug("chat completion stream", "model", req.Model, "messages", len(req.Messages))

		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Accept", "text/event-stream").
			SetBody(body).
			SetDoNotParseResponse(true).
			Post(completionsPath)
		if err != nil {
			yield("", skill.Transport(fmt.Errorf("chat completion request failed: %w", err)))
			return
		}

		raw := resp.RawBody()
		defer raw.Close()

		if resp.StatusCode() >= 400 {
			data, _ := io.ReadAll(io.LimitReader(raw, maxErrorBody))
			yield("", skill.Transport(fmt.Errorf("chat completion failed: HTTP %d: %s",
				resp.StatusCode(), strings.TrimSpace(string(data)))))
			return
		}

		reader := bufio.NewReader(raw)
		for {
			line, readErr := reader.ReadString('\n')
			if line != "" {
				chunk, err := protocol.DecodeStreamLine(line)
				if errors.Is(err, protocol.ErrStreamDone) {
					return
				}
				if err != nil {
					yield("", skill.Transport(fmt.Errorf("chat completion stream: %w", err)))
					return
				}
				if chunk != "" && !yield(chunk, nil) {
					return
				}
			}
			if readErr == io.EOF {
				return
			}
			if readErr != nil {
				yield("", skill.Transport(fmt.Errorf("chat completion stream read failed: %w", readErr)))
				return
			}
		}
	}
}

func encode(req *protocol.Request) ([]byte, error) {
	var buf bytes.Buffer
	if err := protocol.EncodeRequest(&buf, req); err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
