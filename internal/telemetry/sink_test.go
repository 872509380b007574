package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSinkPostsJSON(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/events", r.URL.Path)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ev := NewEvent(SourceWeb, "sess", "route", []string{"--x"})
	require.NoError(t, NewHTTPSink(srv.URL+"/events", time.Second).Send(context.Background(), ev))

	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, "pai-web", got.SourceApp)
	assert.Equal(t, "ExecuteSkill:route", got.HookEventType)
	assert.Equal(t, []string{"--x"}, got.Payload.Args)
}

func TestHTTPSinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPSink(srv.URL, time.Second).Send(context.Background(), NewEvent(SourceCLI, "s", "ask", nil))
	assert.ErrorContains(t, err, "HTTP 502")
}

func TestNewEventDefaults(t *testing.T) {
	ev := NewEvent(SourceCLI, "s", "ask", nil)
	assert.NotNil(t, ev.Payload.Args)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hook_event_type":"ExecuteSkill:ask"`)
	assert.Contains(t, string(data), `"args":[]`)
}

func TestHubSnapshotSince(t *testing.T) {
	h := NewHub(3)
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.Send(context.Background(), NewEvent(SourceWeb, "s", name, nil)))
	}

	all := h.SnapshotSince(0)
	require.Len(t, all, 3)
	assert.Equal(t, int64(2), all[0].Seq)
	assert.Equal(t, "b", all[0].Event.Payload.Skill)
	assert.Equal(t, "d", all[2].Event.Payload.Skill)

	recent := h.SnapshotSince(3)
	require.Len(t, recent, 1)
	assert.Equal(t, "d", recent[0].Event.Payload.Skill)
}

func TestHubSubscribe(t *testing.T) {
	h := NewHub(10)
	ch, cancel := h.Subscribe()

	require.NoError(t, h.Send(context.Background(), NewEvent(SourceWeb, "s", "ask", nil)))
	select {
	case rec := <-ch:
		assert.Equal(t, int64(1), rec.Seq)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	cancel()
	_, open := <-ch
	assert.False(t, open)
}
