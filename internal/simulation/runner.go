package simulation

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nvandessel/aisim/internal/engine"
	"github.com/nvandessel/aisim/internal/store"
)

// defaultMonths is the run length of a scenario that does not set Months.
const defaultMonths = 12

// Runner orchestrates scenario runs against the real engine and a real
// run store.
type Runner struct {
	t     *testing.T
	store *store.SQLiteRunStore
}

// NewRunner creates a simulation runner with an isolated SQLite store
// and sandboxed HOME directory.
func NewRunner(t *testing.T) *Runner {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	s, err := store.NewSQLiteRunStore(filepath.Join(tmpDir, store.DBFileName))
	if err != nil {
		t.Fatalf("NewRunner: failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return &Runner{t: t, store: s}
}

// Run executes the scenario, persists the run and returns the collected
// results.
func (r *Runner) Run(scenario Scenario) SimulationResult {
	r.t.Helper()

	cfg := r.config(scenario)
	state, err := buildState(scenario, cfg.Tunables)
	if err != nil {
		r.t.Fatalf("Run(%s): %v", scenario.Name, err)
	}

	var ticks []TickSnapshot
	e, err := engine.New(cfg, state,
		engine.WithPhases(scenario.Phases...),
		engine.WithObserver(func(tr engine.TickResult) {
			ticks = append(ticks, snapshot(tr))
		}),
	)
	if err != nil {
		r.t.Fatalf("Run(%s): failed to build engine: %v", scenario.Name, err)
	}

	stop := scenario.Stop
	if stop == nil {
		stop = neverStop
	}
	res := e.Run(engine.RunOptions{MaxTicks: cfg.MaxTicks, Stop: stop})

	run := store.NewRun(cfg, res)
	run.Label = scenario.Name
	if err := r.store.SaveRun(context.Background(), run, res.Events); err != nil {
		r.t.Fatalf("Run(%s): failed to save run: %v", scenario.Name, err)
	}

	return SimulationResult{
		Scenario: scenario.Name,
		RunID:    run.ID,
		Config:   cfg,
		Ticks:    ticks,
		Run:      res,
		Store:    r.store,
	}
}

func (r *Runner) config(scenario Scenario) engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Seed = scenario.Seed
	if scenario.Config != nil {
		cfg.Tunables = *scenario.Config
	}
	cfg.MaxTicks = scenario.Months
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = defaultMonths
	}
	if err := cfg.Validate(); err != nil {
		r.t.Fatalf("Run(%s): invalid config: %v", scenario.Name, err)
	}
	return cfg
}
