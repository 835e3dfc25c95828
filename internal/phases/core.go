package phases

import (
	"github.com/nvandessel/aisim/internal/detection"
	"github.com/nvandessel/aisim/internal/diffusion"
	"github.com/nvandessel/aisim/internal/pipeline"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/sleeper"
	"github.com/nvandessel/aisim/internal/world"
)

// Breakthroughs updates the diffusion frontier. No draws.
type Breakthroughs struct {
	cfg diffusion.Config
}

func (*Breakthroughs) Name() string { return NameBreakthroughs }
func (*Breakthroughs) Order() int   { return OrderBreakthroughs }

func (p *Breakthroughs) Execute(s *world.State, _ *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	events := diffusion.UpdateFrontier(s, p.cfg)
	return pipeline.Result{
		Events:   events,
		Metadata: map[string]any{MetaBreakthroughs: len(events)},
	}, nil
}

// Evaluations runs the monthly benchmark round.
// detection.EvaluationDraws draws per active agent.
type Evaluations struct {
	cfg detection.Config
}

func (*Evaluations) Name() string { return NameEvaluations }
func (*Evaluations) Order() int   { return OrderEvaluations }

func (p *Evaluations) Execute(s *world.State, r *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	before := s.Evaluator.TotalBenchmarksRun
	events := detection.PerformMonthlyEvaluations(s, p.cfg, r)
	counts := map[string]int{}
	for _, ev := range events {
		counts[ev.Title]++
	}
	return pipeline.Result{
		Events: events,
		Metadata: map[string]any{
			MetaEvaluated:         s.Evaluator.TotalBenchmarksRun - before,
			MetaSandbaggingCaught: counts[detection.TitleSandbagging],
			MetaGamingCaught:      counts[detection.TitleGaming],
			MetaFalsePositives:    counts[detection.TitleFalsePositive],
		},
	}, nil
}

// CounterDetection advances counter-detection learning. One draw per
// active agent.
type CounterDetection struct {
	cfg detection.Config
}

func (*CounterDetection) Name() string { return NameCounterDetection }
func (*CounterDetection) Order() int   { return OrderCounterDetection }

func (p *CounterDetection) Execute(s *world.State, r *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	events := detection.UpdateCounterDetection(s, p.cfg, r)
	return pipeline.Result{
		Events:   events,
		Metadata: map[string]any{MetaCounterLearned: len(events)},
	}, nil
}

// SleeperWake runs the wake state machine to a fixed point. No draws.
type SleeperWake struct {
	thresholds sleeper.Thresholds
}

func (*SleeperWake) Name() string { return NameSleeperWake }
func (*SleeperWake) Order() int   { return OrderSleeperWake }

func (p *SleeperWake) Execute(s *world.State, _ *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	events := sleeper.ProcessWakes(s, p.thresholds)
	return pipeline.Result{
		Events:   events,
		Metadata: map[string]any{MetaWakes: len(events)},
	}, nil
}

// Diffusion moves the floor toward the frontier. diffusion.AdvanceDraws
// draws per tick.
type Diffusion struct {
	cfg diffusion.Config
}

func (*Diffusion) Name() string { return NameDiffusion }
func (*Diffusion) Order() int   { return OrderDiffusion }

func (p *Diffusion) Execute(s *world.State, r *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	adv := diffusion.AdvanceFloor(s, p.cfg, r)
	var events []world.Event
	if adv.Viral {
		events = append(events, adv.Event(s.Month))
	}
	return pipeline.Result{
		Events:   events,
		Metadata: map[string]any{MetaDiffusionStep: adv.Step},
	}, nil
}
