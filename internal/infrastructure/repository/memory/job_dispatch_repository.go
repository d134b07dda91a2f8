package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/bracket-pool/internal/domain/jobdispatch"
)

type JobDispatchRepository struct {
	mu     sync.RWMutex
	events map[string]jobdispatch.Event
}

func NewJobDispatchRepository() *JobDispatchRepository {
	return &JobDispatchRepository{events: make(map[string]jobdispatch.Event)}
}

// UpsertEvent mirrors the postgres repository's terminal-state rule: a
// completed or failed event never regresses to started.
func (r *JobDispatchRepository) UpsertEvent(_ context.Context, event jobdispatch.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.events[event.DispatchID]
	if ok && stored.Status != jobdispatch.StatusStarted && event.Status == jobdispatch.StatusStarted {
		return nil
	}
	r.events[event.DispatchID] = event

	return nil
}

func (r *JobDispatchRepository) Events() []jobdispatch.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]jobdispatch.Event, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event)
	}

	return out
}
