package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrStreamDone is returned by DecodeStreamLine for the "[DONE]" sentinel.
var ErrStreamDone = errors.New("stream done")

const ssePrefix = "data:"

// EncodeRequest serializes a Request to JSON and writes it to w.
// Returns an error if the request is invalid or writing fails.
func EncodeRequest(w io.Writer, req *Request) error {
	if req.Model == "" {
		return fmt.Errorf("request missing required field: model")
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("request has no messages")
	}

	encoder := json.NewEncoder(w)
	if err := encoder.Encode(req); err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	return nil
}

// ParseResponse validates a raw non-streaming response body.
func ParseResponse(data []byte) (*Response, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", err)
	}

	if resp.Error != nil && resp.Error.Message != "" {
		return nil, fmt.Errorf("api error: %s", resp.Error.Message)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("response has no choices")
	}

	if resp.Choices[0].Message == nil {
		return nil, fmt.Errorf("response choice has no message")
	}

	return &resp, nil
}

// DecodeStreamLine parses one server-sent-events line of a streamed completion.
// It returns the content fragment (possibly empty), ErrStreamDone at the
// terminator, or an error for malformed data. Blank lines, comments and
// non-data fields yield ("", nil).
func DecodeStreamLine(line string) (string, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, ":") {
		return "", nil
	}
	if !strings.HasPrefix(line, ssePrefix) {
		return "", nil
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, ssePrefix))
	if payload == "[DONE]" {
		return "", ErrStreamDone
	}

	var chunk Response
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", fmt.Errorf("stream chunk is not valid JSON: %w", err)
	}
	if chunk.Error != nil && chunk.Error.Message != "" {
		return "", fmt.Errorf("api error: %s", chunk.Error.Message)
	}

	return chunk.DeltaContent(), nil
}
