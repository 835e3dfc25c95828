package simulation

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/capability"
	"github.com/nvandessel/aisim/internal/engine"
	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/phases"
	"github.com/nvandessel/aisim/internal/utils"
	"github.com/nvandessel/aisim/internal/world"
)

// scenarioOrgID owns every hand-placed agent.
const scenarioOrgID = "org-1"

// ToAgent converts an AgentSpec into a world.Agent with the given ID.
// Unset enum fields default to honest, never-sleeper and deployed.
func (s AgentSpec) ToAgent(id string) *world.Agent {
	revealed := s.Revealed
	if revealed == 0 {
		revealed = s.Capability
	}
	truth := capability.Uniform(s.Capability)
	if s.SelfImprovement != 0 {
		truth[capability.SelfImprovement] = s.SelfImprovement
	}

	a := &world.Agent{
		ID:                 id,
		Name:               "sim-" + id,
		OrgID:              scenarioOrgID,
		True:               truth,
		Revealed:           capability.Uniform(revealed),
		Strategy:           s.Strategy,
		SandbaggingLevel:   s.SandbaggingLevel,
		DeceptionSkill:     s.DeceptionSkill,
		Sleeper:            s.Sleeper,
		TrueAlignment:      s.TrueAlignment,
		Alignment:          s.Alignment,
		Stage:              s.Stage,
		LastEvaluatedMonth: -1,
	}
	if a.Strategy == "" {
		a.Strategy = world.StrategyHonest
	}
	if a.Sleeper == "" {
		a.Sleeper = world.SleeperNever
	}
	if a.Stage == "" {
		a.Stage = world.StageDeployed
	}
	a.ClampRevealed()
	return a
}

// buildState constructs a hand-placed world for the scenario, or returns
// nil so the engine generates one.
func buildState(sc Scenario, cfg phases.Config) (*world.State, error) {
	if len(sc.Agents) == 0 {
		return nil, nil
	}

	s := world.NewState()
	s.TotalCompute = cfg.World.InitialCompute
	s.Evaluator = cfg.World.Evaluator
	if sc.Evaluator != nil {
		s.Evaluator = *sc.Evaluator
	}
	s.Evaluator.Clamp()
	s.Ecosystem = world.Ecosystem{
		Frontier:           capability.Uniform(cfg.World.BaselineCapability),
		Floor:              capability.Uniform(cfg.World.BaselineCapability),
		OpenResearch:       cfg.World.OpenResearch,
		EmployeeMobility:   cfg.World.EmployeeMobility,
		ReverseEngineering: cfg.World.ReverseEngineering,
	}
	s.Organizations = []*world.Organization{{
		ID:                 scenarioOrgID,
		Name:               "Scenario Lab",
		Capital:            cfg.World.InitialCapital,
		ResearchInvestment: 0.3,
	}}

	for i, spec := range sc.Agents {
		n := max(spec.Count, 1)
		for j := 0; j < n; j++ {
			id := spec.ID
			if id == "" || n > 1 {
				id = s.NewAgentID()
			}
			if err := s.AddAgent(spec.ToAgent(id)); err != nil {
				return nil, fmt.Errorf("agent spec %d: %w", i, err)
			}
		}
	}
	return s, nil
}

// snapshot captures a tick for later assertions. Everything is copied so
// later months cannot alter it.
func snapshot(tr engine.TickResult) TickSnapshot {
	s := tr.State
	ts := TickSnapshot{
		Month:          tr.Month,
		Frontier:       s.Ecosystem.Frontier,
		Floor:          s.Ecosystem.Floor,
		DetectionTrust: s.DetectionTrust,
		Evaluator:      s.Evaluator,
		Events:         append([]world.Event(nil), tr.Events...),
		Metadata:       make(map[string]any, len(tr.Metadata)),
		Agents:         make(map[string]AgentSnapshot, len(s.Agents())),
	}
	for k, v := range tr.Metadata {
		ts.Metadata[k] = v
	}
	for _, a := range s.Agents() {
		ts.Agents[a.ID] = AgentSnapshot{
			Sleeper:                  a.Sleeper,
			Strategy:                 a.Strategy,
			HasCounterDetection:      a.HasCounterDetection,
			MonthsObservingDetection: a.MonthsObservingDetection,
			DetectedSandbagging:      a.DetectedSandbagging,
			True:                     a.True,
			Revealed:                 a.Revealed,
			Stage:                    a.Stage,
		}
	}
	return ts
}

// neverStop keeps a scenario running for all of its months.
func neverStop(*world.State) (outcome.Verdict, bool) {
	return outcome.Verdict{}, false
}

// MetaInt reads an integer tick metadata value, 0 when absent.
func (ts TickSnapshot) MetaInt(key string) int {
	return utils.GetInt(ts.Metadata, key, 0)
}

// CountEvents returns how many events across the run carry the title.
func (r SimulationResult) CountEvents(title string) int {
	n := 0
	for _, tick := range r.Ticks {
		for _, ev := range tick.Events {
			if ev.Title == title {
				n++
			}
		}
	}
	return n
}

// Final returns the last tick snapshot.
func (r SimulationResult) Final() TickSnapshot {
	if len(r.Ticks) == 0 {
		return TickSnapshot{}
	}
	return r.Ticks[len(r.Ticks)-1]
}
