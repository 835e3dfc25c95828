// Package store persists finished simulation runs and their event streams.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/aisim/internal/engine"
	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/world"
)

// ErrRunExists is returned by SaveRun when a run with the same ID is
// already stored.
var ErrRunExists = errors.New("run already exists")

// Run is a stored simulation run.
type Run struct {
	ID        string               `json:"id"`
	Label     string               `json:"label,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	Config    engine.Config        `json:"config"`
	Summary   engine.Summary       `json:"summary"`
	History   []engine.TickSummary `json:"history,omitempty"`
}

// RunFilter narrows ListRuns. Zero values match everything.
type RunFilter struct {
	Outcome outcome.Outcome
	Seed    *int64
	Limit   int
}

func (f RunFilter) matches(r Run) bool {
	if f.Outcome != "" && r.Summary.Outcome != f.Outcome {
		return false
	}
	if f.Seed != nil && r.Summary.Seed != *f.Seed {
		return false
	}
	return true
}

// RunStore defines the interface for run persistence.
type RunStore interface {
	// SaveRun stores a run and its events in one transaction.
	SaveRun(ctx context.Context, run Run, events []world.Event) error

	// GetRun retrieves a run by ID. Returns nil, nil if not found.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)

	// RunEvents returns a run's events in emission order.
	RunEvents(ctx context.Context, id string) ([]world.Event, error)

	// DeleteRun removes a run and its events.
	DeleteRun(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}

// NewRunID returns a fresh run identifier. IDs come from the system's
// UUID source and never from a simulation's random stream.
func NewRunID() string {
	return uuid.NewString()
}

// NewRun builds a stored run from an engine result.
func NewRun(cfg engine.Config, res engine.RunResult) Run {
	return Run{
		ID:        NewRunID(),
		CreatedAt: time.Now().UTC(),
		Config:    cfg,
		Summary:   res.Summary,
		History:   res.History,
	}
}
