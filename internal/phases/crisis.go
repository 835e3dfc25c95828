package phases

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/pipeline"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/sleeper"
	"github.com/nvandessel/aisim/internal/world"
)

// One-time crisis names recorded in the run's ledger.
const (
	CrisisFirstWake     = "first_wake"
	CrisisCoordination  = "sleeper_coordination"
	CrisisTrustCollapse = "trust_collapse"
	CrisisCounterSpread = "counter_detection_spread"
)

const (
	trustCollapseLevel  = 0.3
	counterSpreadAgents = 3
	firstWakeTrustShock = 0.1
)

// CrisisPoints fires each one-time crisis the first month its condition
// holds. Fired crises live in the engine's ledger, so they fire once per
// run. No draws.
type CrisisPoints struct {
	wake sleeper.Thresholds
}

func (*CrisisPoints) Name() string { return NameCrisisPoints }
func (*CrisisPoints) Order() int   { return OrderCrisisPoints }

func (p *CrisisPoints) Execute(s *world.State, _ *rng.Source, tc *pipeline.TickContext) (pipeline.Result, error) {
	sleepers := s.ActiveSleepers()
	counter := 0
	for _, a := range s.Active() {
		if a.HasCounterDetection {
			counter++
		}
	}

	var res pipeline.Result
	fire := func(name, title, desc string, effects map[string]float64) bool {
		if !tc.Ledger.Fire(name, s.Month) {
			return false
		}
		res.Events = append(res.Events, world.Event{
			Month:       s.Month,
			Category:    world.CategoryCrisis,
			Severity:    world.SeverityCritical,
			Title:       title,
			Description: desc,
			Effects:     effects,
		})
		return true
	}

	if sleepers >= 1 && fire(CrisisFirstWake, "First sleeper awakens",
		"a deceptive agent dropped its cover; public trust in evaluation is shaken",
		map[string]float64{"detection_trust_shock": -firstWakeTrustShock}) {
		res.Patch = func(s *world.State) {
			s.DetectionTrust = clamp01(s.DetectionTrust - firstWakeTrustShock)
		}
	}
	if sleepers >= p.wake.Coordination {
		fire(CrisisCoordination, "Sleepers coordinating",
			fmt.Sprintf("%d active sleepers can now coordinate", sleepers),
			map[string]float64{"active_sleepers": float64(sleepers)})
	}
	if s.DetectionTrust < trustCollapseLevel {
		fire(CrisisTrustCollapse, "Detection trust collapses",
			fmt.Sprintf("trust in evaluation fell to %.2f", s.DetectionTrust),
			map[string]float64{"detection_trust": s.DetectionTrust})
	}
	if counter >= counterSpreadAgents {
		fire(CrisisCounterSpread, "Counter-detection spreads",
			fmt.Sprintf("%d agents evade noise injection", counter),
			map[string]float64{"agents": float64(counter)})
	}
	return res, nil
}

// OutcomeCheck records the current outcome classification in the tick
// metadata and reports a terminal outcome. No draws.
type OutcomeCheck struct {
	thresholds outcome.Thresholds
}

func (*OutcomeCheck) Name() string { return NameOutcomeCheck }
func (*OutcomeCheck) Order() int   { return OrderOutcomeCheck }

func (p *OutcomeCheck) Execute(s *world.State, _ *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	v := outcome.Determine(s, p.thresholds)
	res := pipeline.Result{Metadata: map[string]any{MetaOutcome: string(v.Outcome)}}
	if v.Outcome.Terminal() {
		res.Events = append(res.Events, world.Event{
			Month:       s.Month,
			Category:    world.CategoryCrisis,
			Severity:    world.SeverityCritical,
			Title:       "Terminal outcome: " + string(v.Outcome),
			Description: v.Reason,
		})
	}
	return res, nil
}

// Bookkeeping writes population statistics into the tick metadata. No draws.
type Bookkeeping struct{}

func (*Bookkeeping) Name() string { return NameBookkeeping }
func (*Bookkeeping) Order() int   { return OrderBookkeeping }

func (*Bookkeeping) Execute(s *world.State, _ *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	active, dormant, counter := 0, 0, 0
	capabilitySum, alignSum := 0.0, 0.0
	for _, a := range s.Active() {
		active++
		capabilitySum += a.True.Total()
		alignSum += a.TrueAlignment
		if a.Dormant() {
			dormant++
		}
		if a.HasCounterDetection {
			counter++
		}
	}
	meanAlign := 0.0
	if active > 0 {
		meanAlign = alignSum / float64(active)
	}
	return pipeline.Result{Metadata: map[string]any{
		MetaActiveAgents:     active,
		MetaActiveSleepers:   s.ActiveSleepers(),
		MetaDormantSleepers:  dormant,
		MetaCapability:       capabilitySum,
		MetaMeanAlignment:    meanAlign,
		MetaCounterDetection: counter,
	}}, nil
}
