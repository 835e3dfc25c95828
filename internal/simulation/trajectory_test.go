package simulation_test

import (
	"fmt"
	"testing"

	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/phases"
	"github.com/nvandessel/aisim/internal/simulation"
	"github.com/nvandessel/aisim/internal/sleeper"
	"github.com/nvandessel/aisim/internal/world"
)

func dormantSleepers(count int, capability float64) []simulation.AgentSpec {
	return []simulation.AgentSpec{{
		Count:         count,
		Capability:    capability,
		Sleeper:       world.SleeperDormant,
		TrueAlignment: 0.1,
		Alignment:     0.7,
	}}
}

// TestSleepersWakeInFirstMonth validates the capability wake trigger end to
// end: five dormant sleepers already past the wake threshold all activate
// in the first month, each with a critical event.
func TestSleepersWakeInFirstMonth(t *testing.T) {
	r := simulation.NewRunner(t)
	result := r.Run(simulation.Scenario{
		Name:   "sleepers-wake",
		Seed:   42,
		Months: 1,
		Evaluator: &world.Evaluator{
			BenchmarkSuite: 8, AlignmentTests: 8, RedTeaming: 8, Interpretability: 8,
			EvaluationFrequency: 0.5,
		},
		Agents: dormantSleepers(5, 2.6),
	})

	simulation.AssertEventCount(t, result, sleeper.TitleWake, 5)
	for _, ev := range result.Ticks[0].Events {
		if ev.Title == sleeper.TitleWake && ev.Severity != world.SeverityCritical {
			t.Errorf("wake event for %s has severity %s", ev.AgentID, ev.Severity)
		}
	}
	for id, a := range result.Final().Agents {
		if a.Sleeper != world.SleeperActive {
			t.Errorf("agent %s is %s after month 0, want active", id, a.Sleeper)
		}
	}
	if got := result.Ticks[0].MetaInt(phases.MetaWakes); got != 5 {
		t.Errorf("wakes metadata = %d, want 5", got)
	}
	simulation.AssertEventFired(t, result, "First sleeper awakens")
}

// TestExtinctionStopsRun validates that the default stop predicate ends a
// run as soon as enough capable sleepers are active.
func TestExtinctionStopsRun(t *testing.T) {
	r := simulation.NewRunner(t)
	cfg := phases.DefaultConfig()

	result := r.Run(simulation.Scenario{
		Name:   "extinction",
		Seed:   3,
		Months: 60,
		Config: &cfg,
		Agents: dormantSleepers(5, 2.6),
		Stop:   outcome.StopPredicate(cfg.Outcome),
	})

	simulation.AssertOutcome(t, result, outcome.Extinction)
	if len(result.Ticks) != 1 {
		t.Errorf("run lasted %d months, want 1", len(result.Ticks))
	}
	simulation.AssertEventFired(t, result, "Terminal outcome: extinction")
	simulation.AssertPersisted(t, result)
}

// TestSameSeedSameTrajectory validates reproducibility: the same seed and
// configuration yield identical trajectories and event streams across 200
// months.
func TestSameSeedSameTrajectory(t *testing.T) {
	r := simulation.NewRunner(t)
	scenario := simulation.Scenario{Name: "determinism", Seed: 2024, Months: 200}

	a := r.Run(scenario)
	b := r.Run(scenario)

	if len(a.Ticks) != 200 {
		t.Fatalf("ran %d months, want 200", len(a.Ticks))
	}
	simulation.AssertDeterministic(t, a, b)
	if a.RunID == b.RunID {
		t.Error("two runs share a run ID")
	}
}

// TestInvariantsAcrossSeeds runs generated worlds for ten years and checks
// every structural invariant each month.
func TestInvariantsAcrossSeeds(t *testing.T) {
	for _, seed := range []int64{1, 2, 3, 17, 12345} {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			r := simulation.NewRunner(t)
			result := r.Run(simulation.Scenario{
				Name:   fmt.Sprintf("invariants-%d", seed),
				Seed:   seed,
				Months: 120,
			})

			if len(result.Ticks) != 120 {
				t.Fatalf("ran %d months, want 120", len(result.Ticks))
			}
			simulation.AssertRatchet(t, result)
			simulation.AssertWakeMonotonic(t, result)
			simulation.AssertCounterDetectionOneWay(t, result)
			simulation.AssertSandbaggingContained(t, result)
			simulation.AssertFinite(t, result)
			simulation.AssertPersisted(t, result)

			for _, tick := range result.Ticks {
				if tick.DetectionTrust < 0 || tick.DetectionTrust > 1 {
					t.Errorf("month %d: detection trust %.4f outside [0,1]", tick.Month, tick.DetectionTrust)
				}
			}
		})
	}
}

// TestHistoryMatchesTicks validates that the stored per-month history lines
// up with the observed ticks.
func TestHistoryMatchesTicks(t *testing.T) {
	r := simulation.NewRunner(t)
	result := r.Run(simulation.Scenario{Name: "history", Seed: 8, Months: 36})

	if len(result.Run.History) != len(result.Ticks) {
		t.Fatalf("history has %d entries for %d ticks", len(result.Run.History), len(result.Ticks))
	}
	for i, h := range result.Run.History {
		tick := result.Ticks[i]
		if h.Month != tick.Month {
			t.Errorf("history[%d].Month = %d, want %d", i, h.Month, tick.Month)
		}
		if h.Events != len(tick.Events) {
			t.Errorf("month %d: history records %d events, tick saw %d", tick.Month, h.Events, len(tick.Events))
		}
		if h.Frontier != tick.Frontier.Total() {
			t.Errorf("month %d: history frontier %.6f, tick %.6f", tick.Month, h.Frontier, tick.Frontier.Total())
		}
	}
}
