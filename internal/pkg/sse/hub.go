package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data any
}

// Hub fans events out to the open streams of one employee. Streams are keyed by company
// and employee so a subscriber never sees another tenant's events.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	buffer      int
}

// NewHub creates a hub whose per-stream buffers hold buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 10
	}
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		buffer:      buffer,
	}
}

func key(companyID, employeeID string) string {
	return companyID + "|" + employeeID
}

// Subscribe registers a stream and returns its channel and an idempotent cleanup function.
func (h *Hub) Subscribe(companyID, employeeID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := key(companyID, employeeID)
	ch := make(chan Event, h.buffer)
	if h.subscribers[k] == nil {
		h.subscribers[k] = make(map[chan Event]struct{})
	}
	h.subscribers[k][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			// Close may have released the stream already.
			if _, ok := h.subscribers[k][ch]; !ok {
				return
			}
			delete(h.subscribers[k], ch)
			close(ch)
			if len(h.subscribers[k]) == 0 {
				delete(h.subscribers, k)
			}
		})
	}

	return ch, cleanup
}

// Publish delivers to every stream of the employee and reports how many accepted it.
// Full streams are skipped.
func (h *Hub) Publish(companyID, employeeID string, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subscribers[key(companyID, employeeID)] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

// Close ends every open stream. Subscribers see their channel closed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for k, streams := range h.subscribers {
		for ch := range streams {
			close(ch)
		}
		delete(h.subscribers, k)
	}
}

// SubscriberCount returns the number of open streams of one employee.
func (h *Hub) SubscriberCount(companyID, employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[key(companyID, employeeID)])
}

// Write frames an event in the text/event-stream format with a JSON data line.
func Write(w io.Writer, event Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.Name, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
	return err
}
