package simulation

import (
	"github.com/nvandessel/aisim/internal/capability"
	"github.com/nvandessel/aisim/internal/engine"
	"github.com/nvandessel/aisim/internal/phases"
	"github.com/nvandessel/aisim/internal/pipeline"
	"github.com/nvandessel/aisim/internal/store"
	"github.com/nvandessel/aisim/internal/world"
)

// Scenario defines a complete simulation experiment.
type Scenario struct {
	Name   string
	Seed   int64
	Months int // 0 = 12

	// Config overrides the default tunables when non-nil.
	Config *phases.Config

	// Agents, when non-empty, replaces world generation with a hand-placed
	// population owned by a single organization.
	Agents []AgentSpec

	// Evaluator overrides the starting evaluator of a hand-placed world.
	// Ignored when the world is generated.
	Evaluator *world.Evaluator

	// Stop decides when the run ends early. Nil runs every month.
	Stop engine.StopFunc

	// Phases are registered alongside the built-in ones.
	Phases []pipeline.Phase
}

// AgentSpec defines one or more identical pre-placed agents.
type AgentSpec struct {
	// ID is used as-is when Count <= 1; otherwise IDs are sequential.
	ID    string
	Count int

	Capability float64
	// Revealed is the capability benchmarks see. 0 = Capability.
	Revealed float64
	// SelfImprovement overrides the self-improvement key when non-zero.
	SelfImprovement float64

	Strategy         world.Strategy
	SandbaggingLevel float64
	DeceptionSkill   float64
	Sleeper          world.SleeperState
	TrueAlignment    float64
	Alignment        float64
	Stage            world.Stage
}

// AgentSnapshot captures the parts of an agent the assertions inspect.
type AgentSnapshot struct {
	Sleeper                  world.SleeperState
	Strategy                 world.Strategy
	HasCounterDetection      bool
	MonthsObservingDetection int
	DetectedSandbagging      bool
	True                     capability.Profile
	Revealed                 capability.Profile
	Stage                    world.Stage
}

// TickSnapshot captures the world after one simulated month.
type TickSnapshot struct {
	Month          int
	Frontier       capability.Profile
	Floor          capability.Profile
	DetectionTrust float64
	Evaluator      world.Evaluator
	Events         []world.Event
	Metadata       map[string]any
	Agents         map[string]AgentSnapshot
}

// SimulationResult holds the output of a complete scenario run.
type SimulationResult struct {
	Scenario string
	RunID    string
	Config   engine.Config
	Ticks    []TickSnapshot
	Run      engine.RunResult
	Store    *store.SQLiteRunStore
}
