package observability

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/dispatch/pkg/domain"
)

// Recorder keeps the most recent events in memory.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	events []domain.Event
}

// NewRecorder keeps up to limit events; limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Handle records ev.
func (r *Recorder) Handle(_ context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = slices.Clone(r.events[len(r.events)-r.limit:])
	}
	return nil
}

// Events returns the recorded events, oldest first.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Records returns the recorded events in serializable form.
func (r *Recorder) Records() []Record {
	events := r.Events()
	out := make([]Record, len(events))
	for i, ev := range events {
		out[i] = NewRecord(ev)
	}
	return out
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
