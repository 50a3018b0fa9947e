package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/tasker-api/internal/events"
)

// RecordingEmitter implements events.EventEmitter by recording every event.
type RecordingEmitter struct {
	// Err, when set, is returned from EmitEvent after recording.
	Err error

	mu     sync.Mutex
	events []*events.Event
}

var _ events.EventEmitter = (*RecordingEmitter)(nil)

// EmitEvent implements events.EventEmitter.
func (r *RecordingEmitter) EmitEvent(_ context.Context, event *events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return r.Err
}

// Types returns the types of the recorded events in order.
func (r *RecordingEmitter) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// Events returns the recorded events.
func (r *RecordingEmitter) Events() []*events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*events.Event(nil), r.events...)
}
