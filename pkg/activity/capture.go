package activity

import (
	"context"
	"sync"
)

// CaptureHook records events in memory; tests and examples read them back.
type CaptureHook struct {
	// Err is returned from every Notify call.
	Err error

	mu     sync.Mutex
	events []Event
}

func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	h.events = append(h.events, NormalizeEvent(event))
	h.mu.Unlock()
	return h.Err
}

// Events returns a copy of the recorded events in arrival order.
func (h *CaptureHook) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

// Verbs lists the verb of every recorded event.
func (h *CaptureHook) Verbs() []string {
	events := h.Events()
	verbs := make([]string, len(events))
	for i, event := range events {
		verbs[i] = event.Verb
	}
	return verbs
}

// Reset drops every recorded event.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	h.events = nil
	h.mu.Unlock()
}
