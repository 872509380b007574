package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valentinuuiuiu/Personal-AI-Infrastructure/internal/telemetry"
)

// handleEventStream streams invocation events as server-sent events.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	// The stream outlives the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Debug("cannot clear write deadline for event stream", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	lastID := parseSince(r.Header.Get("Last-Event-ID"))
	if q := r.URL.Query().Get("since"); q != "" {
		lastID = parseSince(q)
	}

	// Subscribe before the snapshot so nothing published in between is lost.
	ch, cancel := s.events.Subscribe()
	defer cancel()

	for _, rec := range s.events.SnapshotSince(lastID) {
		if err := writeSSE(w, rec); err != nil {
			return
		}
		lastID = rec.Seq
	}
	flusher.Flush()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case rec, ok := <-ch:
			if !ok {
				return
			}
			if rec.Seq <= lastID {
				continue
			}
			if err := writeSSE(w, rec); err != nil {
				return
			}
			lastID = rec.Seq
			flusher.Flush()
		case <-keepAlive.C:
			// SSE comment line as keep-alive.
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, rec telemetry.Record) error {
	data, err := json.Marshal(rec.Event)
	if err != nil {
		return err
	}
	// SSE framing: https://html.spec.whatwg.org/multipage/server-sent-events.html
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", rec.Seq, rec.Event.HookEventType, data)
	return err
}
