package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nvandessel/aisim/internal/world"
)

// InMemoryRunStore implements RunStore with in-memory storage.
// Useful for testing and for runs that are not meant to outlive the process.
type InMemoryRunStore struct {
	mu     sync.RWMutex
	runs   map[string]Run
	events map[string][]world.Event
}

// NewInMemoryRunStore creates a new in-memory run store.
func NewInMemoryRunStore() *InMemoryRunStore {
	return &InMemoryRunStore{
		runs:   make(map[string]Run),
		events: make(map[string][]world.Event),
	}
}

// SaveRun stores a run and a copy of its events.
func (s *InMemoryRunStore) SaveRun(ctx context.Context, run Run, events []world.Event) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; ok {
		return fmt.Errorf("%w: %s", ErrRunExists, run.ID)
	}
	s.runs[run.ID] = run
	s.events[run.ID] = append([]world.Event(nil), events...)
	return nil
}

// GetRun retrieves a run by ID. Returns nil, nil if not found.
func (s *InMemoryRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

// ListRuns returns runs newest first, ties broken by ID.
func (s *InMemoryRunStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []Run
	for _, r := range s.runs {
		if filter.matches(r) {
			runs = append(runs, r)
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	if filter.Limit > 0 && len(runs) > filter.Limit {
		runs = runs[:filter.Limit]
	}
	return runs, nil
}

// RunEvents returns a run's events in emission order.
func (s *InMemoryRunStore) RunEvents(ctx context.Context, id string) ([]world.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]world.Event(nil), s.events[id]...), nil
}

// DeleteRun removes a run and its events.
func (s *InMemoryRunStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, id)
	delete(s.events, id)
	return nil
}

// Close is a no-op for in-memory storage.
func (s *InMemoryRunStore) Close() error {
	return nil
}
