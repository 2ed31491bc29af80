package game

import (
	"sync"
	"time"
)

// recorder collects published events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(_ string, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) ofType(eventType EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, event := range r.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func (r *recorder) count(eventType EventType) int {
	return len(r.ofType(eventType))
}

func (r *recorder) ticks() []int {
	var out []int
	for _, event := range r.ofType(EventTimerTick) {
		out = append(out, event.Payload.(TickPayload).RemainingSeconds)
	}
	return out
}

const testTick = 10 * time.Millisecond
