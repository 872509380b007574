package telemetry

import (
	"context"
	"sync"
)

// Record is an event held by the Hub, numbered for incremental polling.
type Record struct {
	Seq   int64 `json:"seq"`
	Event Event `json:"event"`
}

// Hub is an in-memory pub/sub with a small ring buffer for late clients.
// It implements Sink so the HTTP service can expose recent invocations.
type Hub struct {
	mu      sync.Mutex
	nextSeq int64
	ring    []Record
	start   int
	size    int

	subs      map[int]chan Record
	nextSubID int
}

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring: make([]Record, capacity),
		subs: make(map[int]chan Record),
	}
}

func (h *Hub) Send(_ context.Context, ev Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	rec := Record{Seq: h.nextSeq, Event: ev}
	h.pushLocked(rec)
	for _, ch := range h.subs {
		// Don't let slow clients block producers.
		select {
		case ch <- rec:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe() (<-chan Record, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Record, 64)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// SnapshotSince returns buffered records with Seq > since, oldest-first.
func (h *Hub) SnapshotSince(since int64) []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Record, 0, h.size)
	for i := 0; i < h.size; i++ {
		rec := h.ring[(h.start+i)%len(h.ring)]
		if rec.Seq > since {
			out = append(out, rec)
		}
	}
	return out
}

func (h *Hub) pushLocked(rec Record) {
	capacity := len(h.ring)
	if h.size < capacity {
		h.ring[(h.start+h.size)%capacity] = rec
		h.size++
		return
	}

	// Overwrite oldest.
	h.ring[h.start] = rec
	h.start = (h.start + 1) % capacity
}
