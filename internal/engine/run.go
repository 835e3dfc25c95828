package engine

import (
	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/phases"
	"github.com/nvandessel/aisim/internal/pipeline"
	"github.com/nvandessel/aisim/internal/utils"
	"github.com/nvandessel/aisim/internal/world"
)

// StopFunc decides after each tick whether the run has reached a terminal
// outcome.
type StopFunc func(*world.State) (outcome.Verdict, bool)

// RunOptions bounds a run. Zero MaxTicks uses the engine's configured
// maximum; a nil Stop uses the configured outcome thresholds.
type RunOptions struct {
	MaxTicks int
	Stop     StopFunc
}

// TickSummary condenses one tick for the run history.
type TickSummary struct {
	Month          int     `json:"month"`
	Events         int     `json:"events"`
	Critical       int     `json:"critical"`
	Warnings       int     `json:"warnings"`
	Failures       int     `json:"failures"`
	Frontier       float64 `json:"frontier"`
	Floor          float64 `json:"floor"`
	ActiveAgents   int     `json:"active_agents"`
	ActiveSleepers int     `json:"active_sleepers"`
	DetectionTrust float64 `json:"detection_trust"`
}

// Summary describes a finished run.
type Summary struct {
	Seed              int64           `json:"seed"`
	Outcome           outcome.Outcome `json:"outcome"`
	Reason            string          `json:"reason,omitempty"`
	Ticks             int             `json:"ticks"`
	TotalEvents       int             `json:"total_events"`
	CriticalEvents    int             `json:"critical_events"`
	PhaseFailures     int             `json:"phase_failures"`
	SandbaggingCaught int             `json:"sandbagging_caught"`
	GamingCaught      int             `json:"gaming_caught"`
	FalsePositives    int             `json:"false_positives"`
	CounterLearned    int             `json:"counter_detection_learned"`
	Wakes             int             `json:"wakes"`
	Breakthroughs     int             `json:"breakthroughs"`
	Agents            int             `json:"agents"`
	FinalFrontier     float64         `json:"final_frontier"`
	FinalFloor        float64         `json:"final_floor"`
	DetectionTrust    float64         `json:"detection_trust"`
	Crises            []string        `json:"crises,omitempty"`
}

// DetectionRate is the share of benchmarked deception that was caught:
// caught sandbagging and gaming over those plus sleepers that woke
// undetected.
func (s Summary) DetectionRate() float64 {
	caught := s.SandbaggingCaught + s.GamingCaught
	if caught+s.Wakes == 0 {
		return 0
	}
	return float64(caught) / float64(caught+s.Wakes)
}

// RunResult is the product of Run.
type RunResult struct {
	Final    *world.State
	History  []TickSummary
	Events   []world.Event
	Failures []pipeline.Failure
	Summary  Summary
}

// Run steps the engine until the stop function reports a terminal outcome
// or MaxTicks is exhausted, in which case the outcome is inconclusive.
func (e *Engine) Run(opts RunOptions) RunResult {
	maxTicks := opts.MaxTicks
	if maxTicks <= 0 {
		maxTicks = e.cfg.MaxTicks
	}
	stop := opts.Stop
	if stop == nil {
		stop = outcome.StopPredicate(e.cfg.Tunables.Outcome)
	}

	res := RunResult{
		Summary: Summary{Seed: e.cfg.Seed, Outcome: outcome.Inconclusive},
	}
	for tick := 0; tick < maxTicks; tick++ {
		tr := e.Step()
		res.record(tr)
		if v, done := stop(e.state); done {
			res.Summary.Outcome = v.Outcome
			res.Summary.Reason = v.Reason
			break
		}
	}

	sum := &res.Summary
	sum.Agents = len(e.state.Agents())
	sum.FinalFrontier = e.state.Ecosystem.Frontier.Total()
	sum.FinalFloor = e.state.Ecosystem.Floor.Total()
	sum.DetectionTrust = e.state.DetectionTrust
	sum.Crises = e.ledger.Names()
	res.Final = e.state

	e.logger.Info("run complete",
		"seed", sum.Seed,
		"outcome", sum.Outcome,
		"ticks", sum.Ticks,
		"events", sum.TotalEvents,
		"failures", sum.PhaseFailures)
	return res
}

func (res *RunResult) record(tr TickResult) {
	ts := TickSummary{
		Month:          tr.Month,
		Events:         len(tr.Events),
		Failures:       len(tr.Failures),
		Frontier:       tr.State.Ecosystem.Frontier.Total(),
		Floor:          tr.State.Ecosystem.Floor.Total(),
		ActiveAgents:   metaInt(tr.Metadata, phases.MetaActiveAgents),
		ActiveSleepers: tr.State.ActiveSleepers(),
		DetectionTrust: tr.State.DetectionTrust,
	}
	for _, ev := range tr.Events {
		switch ev.Severity {
		case world.SeverityCritical:
			ts.Critical++
		case world.SeverityWarning:
			ts.Warnings++
		}
	}
	res.History = append(res.History, ts)
	res.Events = append(res.Events, tr.Events...)
	res.Failures = append(res.Failures, tr.Failures...)

	sum := &res.Summary
	sum.Ticks++
	sum.TotalEvents += len(tr.Events)
	sum.CriticalEvents += ts.Critical
	sum.PhaseFailures += len(tr.Failures)
	sum.SandbaggingCaught += metaInt(tr.Metadata, phases.MetaSandbaggingCaught)
	sum.GamingCaught += metaInt(tr.Metadata, phases.MetaGamingCaught)
	sum.FalsePositives += metaInt(tr.Metadata, phases.MetaFalsePositives)
	sum.CounterLearned += metaInt(tr.Metadata, phases.MetaCounterLearned)
	sum.Wakes += metaInt(tr.Metadata, phases.MetaWakes)
	sum.Breakthroughs += metaInt(tr.Metadata, phases.MetaBreakthroughs)
}

func metaInt(m map[string]any, key string) int {
	return utils.GetInt(m, key, 0)
}
