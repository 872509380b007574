package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/log"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/protocol"
	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/skill"
)

func TestMain(m *testing.M) {
	log.Setup(log.Options{Level: "ERROR", Output: io.Discard}) // Suppress logs in tests
	os.Exit(m.Run())
}

var franceChunks = []string{"The ", "capital ", "of ", "France ", "is ", "Paris."}

// fakeAPI serves both non-streaming and streaming completions of the same text.
func fakeAPI(t *testing.T, chunks []string, seen *protocol.Request) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}

		var req protocol.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if seen != nil {
			*seen = req
		}

		if !req.Stream {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":%q}}]}`, strings.Join(chunks, ""))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": OPENROUTER PROCESSING\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", c)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func newTestClient(srv *httptest.Server) *Client {
	return New(Options{BaseURL: srv.URL + "/api/v1/", APIKey: "sk-test", AppName: "PAI"})
}

func userRequest(content string) protocol.Request {
	return protocol.Request{
		Model:       "minimax/minimax-m2:free",
		Temperature: 0.1,
		Messages:    []protocol.Message{{Role: protocol.RoleUser, Content: content}},
	}
}

func TestComplete(t *testing.T) {
	var seen protocol.Request
	srv := fakeAPI(t, franceChunks, &seen)
	defer srv.Close()

	got, err := newTestClient(srv).Complete(context.Background(), userRequest("What is the capital of France?"))
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", got)
	assert.False(t, seen.Stream)
	assert.Equal(t, 0.1, seen.Temperature)
}

func TestStreamRelaysChunksInOrder(t *testing.T) {
	var seen protocol.Request
	srv := fakeAPI(t, franceChunks, &seen)
	defer srv.Close()

	var got []string
	for chunk, err := range newTestClient(srv).Stream(context.Background(), userRequest("q")) {
		require.NoError(t, err)
		got = append(got, chunk)
	}

	assert.Equal(t, franceChunks, got)
	assert.Equal(t, "The capital of France is Paris.", strings.Join(got, ""))
	assert.True(t, seen.Stream)
}

func TestStreamConcatenationMatchesComplete(t *testing.T) {
	chunks := []string{"Line one.\n", "Line ", "two, with \"quotes\"", " and unicode: é."}
	srv := fakeAPI(t, chunks, nil)
	defer srv.Close()
	client := newTestClient(srv)

	full, err := client.Complete(context.Background(), userRequest("q"))
	require.NoError(t, err)

	streamed, err := skill.Collect(skill.Stream(client.Stream(context.Background(), userRequest("q"))))
	require.NoError(t, err)

	assert.Equal(t, full, streamed)
}

func TestStreamEarlyBreak(t *testing.T) {
	srv := fakeAPI(t, franceChunks, nil)
	defer srv.Close()

	var got []string
	for chunk, err := range newTestClient(srv).Stream(context.Background(), userRequest("q")) {
		require.NoError(t, err)
		got = append(got, chunk)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"The ", "capital "}, got)
}

func TestCompleteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"No auth credentials found"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Complete(context.Background(), userRequest("q"))
	require.Error(t, err)
	assert.Equal(t, skill.KindTransport, skill.KindOf(err))
	assert.Contains(t, err.Error(), "HTTP 401")
	assert.Contains(t, err.Error(), "No auth credentials found")
}

func TestCompleteMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Complete(context.Background(), userRequest("q"))
	require.Error(t, err)
	assert.Equal(t, skill.KindTransport, skill.KindOf(err))
}

func TestStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "rate limited")
	}))
	defer srv.Close()

	var errs []error
	for _, err := range newTestClient(srv).Stream(context.Background(), userRequest("q")) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.Equal(t, skill.KindTransport, skill.KindOf(errs[0]))
	assert.Contains(t, errs[0].Error(), "rate limited")
}

func TestStreamMalformedChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\ndata: {oops\n\n")
	}))
	defer srv.Close()

	var chunks []string
	var lastErr error
	for chunk, err := range newTestClient(srv).Stream(context.Background(), userRequest("q")) {
		if err != nil {
			lastErr = err
			continue
		}
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, []string{"ok"}, chunks)
	require.Error(t, lastErr)
	assert.Equal(t, skill.KindTransport, skill.KindOf(lastErr))
}

func TestCompleteConnectionRefused(t *testing.T) {
	srv := fakeAPI(t, franceChunks, nil)
	url := srv.URL
	srv.Close()

	client := New(Options{BaseURL: url, APIKey: "sk-test"})
	_, err := client.Complete(context.Background(), userRequest("q"))
	require.Error(t, err)
	assert.Equal(t, skill.KindTransport, skill.KindOf(err))
}

func TestCompleteRejectsInvalidRequest(t *testing.T) {
	client := New(Options{BaseURL: "http://127.0.0.1:1", APIKey: "sk-test"})
	_, err := client.Complete(context.Background(), protocol.Request{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages")
}
