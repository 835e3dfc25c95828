// Package batch runs many independent seeded simulations concurrently and
// aggregates their outcomes. Runs share nothing, so the report is the same
// for any worker count.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/aisim/internal/engine"
	"github.com/nvandessel/aisim/internal/outcome"
)

// Options configures a batch.
type Options struct {
	Runs     int
	BaseSeed int64
	MaxTicks int

	// Workers bounds concurrency; zero means GOMAXPROCS.
	Workers int

	// Config is the template for every run; its Seed is replaced by
	// BaseSeed + run index.
	Config engine.Config

	Logger *slog.Logger

	// OnResult, if set, is called once per finished run. Calls are
	// serialized but arrive in completion order.
	OnResult func(Result)
}

// Result is one run of a batch.
type Result struct {
	Index   int            `json:"index"`
	Seed    int64          `json:"seed"`
	Summary engine.Summary `json:"summary"`
}

// Report aggregates a batch.
type Report struct {
	Runs          []Result                `json:"runs"`
	Outcomes      map[outcome.Outcome]int `json:"outcomes"`
	MeanTicks     float64                 `json:"mean_ticks"`
	MeanEvents    float64                 `json:"mean_events"`
	DetectionRate float64                 `json:"detection_rate"`
	PhaseFailures int                     `json:"phase_failures"`
}

// Share returns the fraction of runs that ended in o.
func (r Report) Share(o outcome.Outcome) float64 {
	if len(r.Runs) == 0 {
		return 0
	}
	return float64(r.Outcomes[o]) / float64(len(r.Runs))
}

// Run executes opts.Runs simulations and returns their report ordered by
// run index. It stops scheduling new runs when ctx is cancelled.
func Run(ctx context.Context, opts Options) (Report, error) {
	if opts.Runs < 1 {
		return Report{}, fmt.Errorf("batch needs at least one run, got %d", opts.Runs)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	results := make([]Result, opts.Runs)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < opts.Runs; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cfg := opts.Config
			cfg.Seed = opts.BaseSeed + int64(i)
			e, err := engine.New(cfg, nil)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			res := e.Run(engine.RunOptions{MaxTicks: opts.MaxTicks})
			results[i] = Result{Index: i, Seed: cfg.Seed, Summary: res.Summary}
			logger.Debug("batch run finished", "index", i, "seed", cfg.Seed, "outcome", res.Summary.Outcome)

			if opts.OnResult != nil {
				mu.Lock()
				opts.OnResult(results[i])
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	return Aggregate(results), nil
}

// Aggregate builds a report from results already ordered by index.
func Aggregate(results []Result) Report {
	r := Report{
		Runs:     results,
		Outcomes: make(map[outcome.Outcome]int),
	}
	if len(results) == 0 {
		return r
	}
	var ticks, events, rate float64
	for _, res := range results {
		s := res.Summary
		r.Outcomes[s.Outcome]++
		ticks += float64(s.Ticks)
		events += float64(s.TotalEvents)
		rate += s.DetectionRate()
		r.PhaseFailures += s.PhaseFailures
	}
	n := float64(len(results))
	r.MeanTicks = ticks / n
	r.MeanEvents = events / n
	r.DetectionRate = rate / n
	return r
}
