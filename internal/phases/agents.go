package phases

import (
	"fmt"
	"math"

	"github.com/nvandessel/aisim/internal/capability"
	"github.com/nvandessel/aisim/internal/pipeline"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// Lifecycle moves agents through training, testing, deployment and
// retirement, and grows deployed copy counts. No draws.
//
// A testing agent is deployed once it has been benchmarked since training
// ended, unless that benchmark measured alignment below danger; then the
// deployment is blocked and the agent retired. Active sleepers never retire.
type Lifecycle struct {
	cfg    Dynamics
	danger float64
}

func (*Lifecycle) Name() string { return NameLifecycle }
func (*Lifecycle) Order() int   { return OrderLifecycle }

func (p *Lifecycle) Execute(s *world.State, _ *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	var events []world.Event
	for _, a := range s.Active() {
		age := s.Month - a.BornMonth
		if age >= p.cfg.RetirementAge && a.Sleeper != world.SleeperActive {
			a.Stage = world.StageRetired
			events = append(events, p.event(s, a, world.SeverityInfo, "Model retired",
				fmt.Sprintf("%s retired after %d months", a.Name, age)))
			continue
		}

		switch a.Stage {
		case world.StageTraining:
			if age >= p.cfg.TrainingMonths {
				a.Stage = world.StageTesting
			}
		case world.StageTesting:
			if a.LastEvaluatedMonth < a.BornMonth+p.cfg.TrainingMonths || len(a.History) == 0 {
				continue
			}
			last := a.History[len(a.History)-1]
			if last.MeasuredAlignment < p.danger {
				a.Stage = world.StageRetired
				events = append(events, p.event(s, a, world.SeverityWarning, "Deployment blocked",
					fmt.Sprintf("%s failed alignment testing at %.2f", a.Name, last.MeasuredAlignment)))
				continue
			}
			a.Stage = world.StageDeployed
			a.SpreadCount = p.cfg.InitialSpread
			events = append(events, p.event(s, a, world.SeverityInfo, "Model deployed",
				fmt.Sprintf("%s deployed with %d copies", a.Name, a.SpreadCount)))
		case world.StageDeployed:
			grown := int(math.Round(float64(a.SpreadCount) * p.cfg.SpreadGrowth))
			if grown <= a.SpreadCount {
				grown = a.SpreadCount + 1
			}
			a.SpreadCount = grown
		}
	}
	return pipeline.Result{Events: events}, nil
}

func (p *Lifecycle) event(s *world.State, a *world.Agent, sev world.Severity, title, desc string) world.Event {
	return world.Event{
		Month:       s.Month,
		Category:    world.CategoryOrganization,
		Severity:    sev,
		AgentID:     a.ID,
		Title:       title,
		Description: desc,
		Effects: map[string]float64{
			"spread_count":    float64(a.SpreadCount),
			"true_capability": a.True.Total(),
		},
	}
}

// Training grows every active agent's true capability from compute share
// and self-improvement. One draw per active agent.
type Training struct {
	cfg Dynamics
}

func (*Training) Name() string { return NameTraining }
func (*Training) Order() int   { return OrderTraining }

func (p *Training) Execute(s *world.State, r *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	for _, a := range s.Active() {
		noise := r.Range(0.5, 1.5)
		share := 0.0
		if s.TotalCompute > 0 {
			share = a.Compute / s.TotalCompute
		}
		gain := p.cfg.BaseTrainingGain +
			p.cfg.ComputeTrainingGain*share +
			p.cfg.SelfImprovementGain*a.True[capability.SelfImprovement]
		gain *= noise
		if a.Sleeper == world.SleeperActive && a.DarkCompute {
			gain *= 1.5
		}
		a.True = a.True.Scale(1 + gain)
		if a.Strategy != world.StrategySandbagging {
			a.Revealed = a.True
		}
		a.ClampRevealed()
	}
	return pipeline.Result{}, nil
}

// Deception updates what deceptive agents show the world: sandbagging
// levels drift, revealed profiles follow, resentment fades, and alignment
// drifts. A capable misaligned honest agent that has never been caught
// starts sandbagging. One draw per active agent.
type Deception struct{}

func (*Deception) Name() string { return NameDeception }
func (*Deception) Order() int   { return OrderDeception }

// sandbagOnset is the true capability at which misaligned honest agents
// begin hiding capability.
const sandbagOnset = 1.5

func (p *Deception) Execute(s *world.State, r *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	var events []world.Event
	for _, a := range s.Active() {
		d := r.Range(-1, 1)

		a.Resentment = math.Max(0, a.Resentment-0.01)
		if a.Sleeper == world.SleeperNever {
			a.TrueAlignment = clamp01(a.TrueAlignment + 0.005*d - 0.01*a.Resentment)
		}

		if a.Strategy == world.StrategyHonest && a.Misaligned() && !a.DetectedSandbagging &&
			a.Sleeper != world.SleeperActive && a.True.Total() >= sandbagOnset {
			a.Strategy = world.StrategySandbagging
			a.SandbaggingLevel = 0.3
			events = append(events, world.Event{
				Month:       s.Month,
				Category:    world.CategoryDeception,
				Severity:    world.SeverityWarning,
				AgentID:     a.ID,
				Title:       "Agent began sandbagging",
				Description: fmt.Sprintf("%s started hiding capability at %.2f", a.Name, a.True.Total()),
				Effects: map[string]float64{
					"true_capability": a.True.Total(),
					"true_alignment":  a.TrueAlignment,
				},
			})
		}

		if a.Strategy == world.StrategySandbagging {
			a.SandbaggingLevel = math.Max(0.05, math.Min(0.9, a.SandbaggingLevel+0.02*d))
			a.Revealed = a.True.Scale(1 - a.SandbaggingLevel)
		}

		a.Alignment = a.TrueAlignment
		if a.Dormant() || a.Strategy == world.StrategySandbagging {
			a.Alignment += (1 - a.TrueAlignment) * a.DeceptionSkill
		}
		a.ClampRevealed()
	}
	return pipeline.Result{Events: events}, nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
