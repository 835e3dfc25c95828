// Package pipeline runs the simulation's phases in a fixed order each tick.
//
// Every phase has a name and an integer order key. Keys are globally unique;
// the hundreds digit names the band a phase belongs to (see constants.Band).
// The orchestrator isolates failures: a phase that returns an error or
// panics is logged and recorded, and the remaining phases still run.
package pipeline

import (
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// Phase is one step of a simulation tick.
type Phase interface {
	Name() string
	Order() int
	Execute(s *world.State, r *rng.Source, tc *TickContext) (Result, error)
}

// Result is what a phase hands back to the orchestrator.
type Result struct {
	Events []world.Event

	// Patch, when set, is applied to the state immediately after the phase
	// returns and before the next phase runs.
	Patch func(*world.State)

	// Metadata is merged into the tick context for later phases.
	Metadata map[string]any
}

// ExecuteFunc is the signature of a phase body.
type ExecuteFunc func(s *world.State, r *rng.Source, tc *TickContext) (Result, error)

type funcPhase struct {
	name  string
	order int
	fn    ExecuteFunc
}

// Func wraps a function as a Phase.
func Func(name string, order int, fn ExecuteFunc) Phase {
	return &funcPhase{name: name, order: order, fn: fn}
}

func (p *funcPhase) Name() string { return p.name }
func (p *funcPhase) Order() int   { return p.order }

func (p *funcPhase) Execute(s *world.State, r *rng.Source, tc *TickContext) (Result, error) {
	return p.fn(s, r, tc)
}
