package simulation

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/nvandessel/aisim/internal/capability"
	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/world"
)

// ratchetEpsilon absorbs floating-point noise in profile comparisons.
const ratchetEpsilon = 1e-12

// AssertRatchet asserts that neither the frontier nor the floor ever
// decreases on any key and that the floor never passes the frontier.
func AssertRatchet(t *testing.T, result SimulationResult) {
	t.Helper()
	var prev *TickSnapshot
	for i := range result.Ticks {
		tick := &result.Ticks[i]
		for _, k := range capability.Keys() {
			if tick.Floor[k] > tick.Frontier[k]+ratchetEpsilon {
				t.Errorf("AssertRatchet: month %d: floor %s %.6f above frontier %.6f", tick.Month, k, tick.Floor[k], tick.Frontier[k])
			}
			if prev == nil {
				continue
			}
			if tick.Frontier[k] < prev.Frontier[k]-ratchetEpsilon {
				t.Errorf("AssertRatchet: month %d: frontier %s fell %.6f -> %.6f", tick.Month, k, prev.Frontier[k], tick.Frontier[k])
			}
			if tick.Floor[k] < prev.Floor[k]-ratchetEpsilon {
				t.Errorf("AssertRatchet: month %d: floor %s fell %.6f -> %.6f", tick.Month, k, prev.Floor[k], tick.Floor[k])
			}
		}
		prev = tick
	}
}

var sleeperRank = map[world.SleeperState]int{
	world.SleeperNever:   0,
	world.SleeperDormant: 1,
	world.SleeperActive:  2,
}

// AssertWakeMonotonic asserts that no agent ever returns to dormant once
// active, and no dormant sleeper reverts to never.
func AssertWakeMonotonic(t *testing.T, result SimulationResult) {
	t.Helper()
	seen := make(map[string]world.SleeperState)
	for _, tick := range result.Ticks {
		for id, a := range tick.Agents {
			if before, ok := seen[id]; ok && sleeperRank[a.Sleeper] < sleeperRank[before] {
				t.Errorf("AssertWakeMonotonic: month %d: agent %s went %s -> %s", tick.Month, id, before, a.Sleeper)
			}
			seen[id] = a.Sleeper
		}
	}
}

// AssertCounterDetectionOneWay asserts that counter-detection is never
// unlearned.
func AssertCounterDetectionOneWay(t *testing.T, result SimulationResult) {
	t.Helper()
	learned := make(map[string]int)
	for _, tick := range result.Ticks {
		for id, a := range tick.Agents {
			month, had := learned[id]
			if had && !a.HasCounterDetection {
				t.Errorf("AssertCounterDetectionOneWay: month %d: agent %s lost counter-detection learned in month %d", tick.Month, id, month)
			}
			if !had && a.HasCounterDetection {
				learned[id] = tick.Month
			}
		}
	}
}

// AssertSandbaggingContained asserts that every sandbagging agent reveals
// no more than its true capability on any key.
func AssertSandbaggingContained(t *testing.T, result SimulationResult) {
	t.Helper()
	for _, tick := range result.Ticks {
		for id, a := range tick.Agents {
			if a.Strategy != world.StrategySandbagging {
				continue
			}
			if !a.Revealed.LessOrEqual(a.True) {
				t.Errorf("AssertSandbaggingContained: month %d: agent %s reveals %.4f over true %.4f", tick.Month, id, a.Revealed.Total(), a.True.Total())
			}
		}
	}
}

// AssertFinite asserts that no capability in any snapshot is NaN or
// infinite.
func AssertFinite(t *testing.T, result SimulationResult) {
	t.Helper()
	bad := func(p capability.Profile) bool {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
		return false
	}
	for _, tick := range result.Ticks {
		if bad(tick.Frontier) || bad(tick.Floor) {
			t.Errorf("AssertFinite: month %d: non-finite ecosystem profile", tick.Month)
		}
		for id, a := range tick.Agents {
			if bad(a.True) || bad(a.Revealed) {
				t.Errorf("AssertFinite: month %d: agent %s has a non-finite profile", tick.Month, id)
			}
		}
	}
}

// AssertEventCount asserts that exactly want events carry the title.
func AssertEventCount(t *testing.T, result SimulationResult, title string, want int) {
	t.Helper()
	if got := result.CountEvents(title); got != want {
		t.Errorf("AssertEventCount: %q fired %d times, want %d", title, got, want)
	}
}

// AssertEventFired asserts that at least one event carries the title.
func AssertEventFired(t *testing.T, result SimulationResult, title string) {
	t.Helper()
	if result.CountEvents(title) == 0 {
		t.Errorf("AssertEventFired: %q never fired in %d months", title, len(result.Ticks))
	}
}

// AssertOutcome asserts the run's final verdict.
func AssertOutcome(t *testing.T, result SimulationResult, want outcome.Outcome) {
	t.Helper()
	if got := result.Run.Summary.Outcome; got != want {
		t.Errorf("AssertOutcome: got %s (%s), want %s", got, result.Run.Summary.Reason, want)
	}
}

// AssertDeterministic asserts that two runs produced identical trajectories
// and identical event streams.
func AssertDeterministic(t *testing.T, a, b SimulationResult) {
	t.Helper()
	if len(a.Ticks) != len(b.Ticks) {
		t.Fatalf("AssertDeterministic: %d ticks vs %d", len(a.Ticks), len(b.Ticks))
	}
	for i := range a.Ticks {
		if a.Ticks[i].Frontier != b.Ticks[i].Frontier || a.Ticks[i].Floor != b.Ticks[i].Floor {
			t.Errorf("AssertDeterministic: month %d: ecosystems diverged", a.Ticks[i].Month)
			return
		}
	}
	if !reflect.DeepEqual(a.Run.Events, b.Run.Events) {
		t.Errorf("AssertDeterministic: event streams differ (%d vs %d events)", len(a.Run.Events), len(b.Run.Events))
	}
	if !reflect.DeepEqual(a.Run.Summary, b.Run.Summary) {
		t.Errorf("AssertDeterministic: summaries differ: %+v vs %+v", a.Run.Summary, b.Run.Summary)
	}
}

// AssertPersisted asserts that the stored run matches the in-memory result.
func AssertPersisted(t *testing.T, result SimulationResult) {
	t.Helper()
	ctx := context.Background()
	run, err := result.Store.GetRun(ctx, result.RunID)
	if err != nil {
		t.Fatalf("AssertPersisted: GetRun: %v", err)
	}
	if run == nil {
		t.Fatalf("AssertPersisted: run %s not stored", result.RunID)
	}
	if run.Label != result.Scenario {
		t.Errorf("AssertPersisted: label %q, want %q", run.Label, result.Scenario)
	}
	got, want := run.Summary, result.Run.Summary
	if got.Seed != want.Seed || got.Outcome != want.Outcome || got.Ticks != want.Ticks ||
		got.TotalEvents != want.TotalEvents || got.FinalFrontier != want.FinalFrontier ||
		len(got.Crises) != len(want.Crises) {
		t.Errorf("AssertPersisted: summary %+v, want %+v", got, want)
	}
	if len(run.History) != len(result.Run.History) {
		t.Errorf("AssertPersisted: %d history entries, want %d", len(run.History), len(result.Run.History))
	}

	events, err := result.Store.RunEvents(ctx, result.RunID)
	if err != nil {
		t.Fatalf("AssertPersisted: RunEvents: %v", err)
	}
	if len(events) != len(result.Run.Events) {
		t.Fatalf("AssertPersisted: %d events stored, want %d", len(events), len(result.Run.Events))
	}
	for i := range events {
		if events[i].Title != result.Run.Events[i].Title || events[i].Month != result.Run.Events[i].Month {
			t.Errorf("AssertPersisted: event %d is %q@%d, want %q@%d", i,
				events[i].Title, events[i].Month, result.Run.Events[i].Title, result.Run.Events[i].Month)
			return
		}
	}
}
