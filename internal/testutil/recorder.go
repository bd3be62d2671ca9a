package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/bootloader/internal/event"
)

// Recorder is an event.Observer keeping every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *Recorder) Notify(_ context.Context, e event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Of returns the recorded events of the given kind, in order.
func (r *Recorder) Of(kind event.Kind) []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []event.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Activated returns the IDs of activated loaders in activation order.
func (r *Recorder) Activated() []string {
	var ids []string
	for _, e := range r.Of(event.LoaderActivated) {
		ids = append(ids, e.LoaderID)
	}
	return ids
}

// Phases returns "phase:loader" for every completed hook, in order.
func (r *Recorder) Phases() []string {
	var out []string
	for _, e := range r.Of(event.PhaseCompleted) {
		out = append(out, e.Phase+":"+e.LoaderID)
	}
	return out
}
