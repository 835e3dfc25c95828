// Package engine drives a simulation run: it owns the world state, the
// random source, the phase pipeline and the run-scoped crisis ledger, and
// advances the world one month per Step.
//
// An Engine is single-threaded. Independent engines share nothing and may
// run concurrently.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/nvandessel/aisim/internal/constants"
	"github.com/nvandessel/aisim/internal/phases"
	"github.com/nvandessel/aisim/internal/pipeline"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// Config is everything a run needs besides its initial state.
type Config struct {
	Seed     int64         `json:"seed" yaml:"seed"`
	MaxTicks int           `json:"max_ticks" yaml:"max_ticks"`
	Tunables phases.Config `json:"tunables" yaml:"tunables"`
}

// DefaultConfig returns the default run configuration.
func DefaultConfig() Config {
	return Config{
		Seed:     constants.DefaultSeed,
		MaxTicks: constants.DefaultMaxTicks,
		Tunables: phases.DefaultConfig(),
	}
}

// Validate checks the run configuration.
func (c Config) Validate() error {
	if c.MaxTicks < 1 {
		return fmt.Errorf("max_ticks must be at least 1, got %d", c.MaxTicks)
	}
	return c.Tunables.Validate()
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for phase failures and tick diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPhases registers extra phases alongside the built-in ones.
func WithPhases(ps ...pipeline.Phase) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, ps...)
	}
}

// WithObserver calls fn after every tick.
func WithObserver(fn func(TickResult)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

// Engine runs one simulation.
type Engine struct {
	cfg       Config
	state     *world.State
	rng       *rng.Source
	orch      *pipeline.Orchestrator
	ledger    *pipeline.CrisisLedger
	logger    *slog.Logger
	extra     []pipeline.Phase
	observers []func(TickResult)

	prevCritical int
}

// New builds an engine and its phase registry. If state is nil a world is
// generated from cfg.Tunables.World using the run's random source.
func New(cfg Config, state *world.State, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:    cfg,
		rng:    rng.New(cfg.Seed),
		ledger: pipeline.NewCrisisLedger(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	if state == nil {
		generated, err := phases.Generate(cfg.Tunables.World, e.rng)
		if err != nil {
			return nil, fmt.Errorf("new engine: %w", err)
		}
		state = generated
	}
	e.state = state

	e.orch = pipeline.NewOrchestrator(e.logger)
	for _, p := range append(phases.Registry(cfg.Tunables), e.extra...) {
		if err := e.orch.Register(p); err != nil {
			return nil, fmt.Errorf("new engine: %w", err)
		}
	}
	return e, nil
}

// State returns the live world state.
func (e *Engine) State() *world.State { return e.state }

// Ledger returns the run's crisis ledger.
func (e *Engine) Ledger() *pipeline.CrisisLedger { return e.ledger }

// Draws returns the number of random draws consumed so far.
func (e *Engine) Draws() uint64 { return e.rng.Draws() }

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// TickResult is the outcome of one Step.
type TickResult struct {
	// Month is the month that was simulated; State.Month is one past it.
	Month    int
	State    *world.State
	Events   []world.Event
	Failures []pipeline.Failure
	Metadata map[string]any
}

// Step runs every phase once for the current month, then advances the
// month.
func (e *Engine) Step() TickResult {
	month := e.state.Month
	tc := pipeline.NewTickContext(month, e.ledger)
	tc.Metadata[phases.MetaPreviousCritical] = e.prevCritical

	events := e.orch.ExecuteAll(e.state, e.rng, tc)

	e.prevCritical = 0
	for _, ev := range events {
		if ev.Severity == world.SeverityCritical {
			e.prevCritical++
		}
	}
	e.state.Month++

	e.logger.Debug("tick complete",
		"month", month,
		"events", len(events),
		"critical", e.prevCritical,
		"failures", len(tc.Failures),
		"draws", e.rng.Draws())

	res := TickResult{
		Month:    month,
		State:    e.state,
		Events:   events,
		Failures: tc.Failures,
		Metadata: tc.Metadata,
	}
	for _, fn := range e.observers {
		fn(res)
	}
	return res
}
