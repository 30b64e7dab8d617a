// Package events keeps a bounded in-memory log of recent webhook events
// for the status endpoints. Purely observational; nothing reads it for
// correctness.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity bounds the ring unless a caller asks for another size.
const DefaultCapacity = 200

// Event is one received webhook delivery.
type Event struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"event"`
	Action     string                 `json:"action,omitempty"`
	Repo       string                 `json:"repo,omitempty"`
	Summary    map[string]interface{} `json:"summary,omitempty"`
	ReceivedAt time.Time              `json:"received_at"`
}

// Ring is a fixed-capacity, lock-protected event buffer. Oldest entries
// are evicted first.
type Ring struct {
	mu       sync.Mutex
	items    []Event
	capacity int
}

// NewRing creates a ring holding at most capacity events.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{capacity: capacity}
}

// Add records an event, stamping id and receive time, and returns it.
func (r *Ring) Add(event Event) Event {
	event.ID = uuid.NewString()
	event.ReceivedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, event)
	if len(r.items) > r.capacity {
		r.items = r.items[len(r.items)-r.capacity:]
	}
	return event
}

// Recent returns up to n events, newest first. n <= 0 returns everything.
func (r *Ring) Recent(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n <= 0 || n > len(r.items) {
		n = len(r.items)
	}
	out := make([]Event, n)
	for i := 0; i < n; i++ {
		out[i] = r.items[len(r.items)-1-i]
	}
	return out
}

// Last returns the most recent event, or false when the ring is empty.
func (r *Ring) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Event{}, false
	}
	return r.items[len(r.items)-1], true
}

// Len reports how many events are currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
