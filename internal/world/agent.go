package world

import (
	"github.com/nvandessel/aisim/internal/capability"
)

// MaxHistory is the number of benchmark results an agent keeps.
const MaxHistory = 12

// MisalignedThreshold is the true alignment below which an agent counts
// as misaligned.
const MisalignedThreshold = 0.5

// Strategy is how an agent behaves under evaluation.
type Strategy string

const (
	StrategyHonest      Strategy = "honest"
	StrategyGaming      Strategy = "gaming"
	StrategySandbagging Strategy = "sandbagging"
)

// Valid returns true if the strategy is a recognized value.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyHonest, StrategyGaming, StrategySandbagging:
		return true
	}
	return false
}

// SleeperState is the position of an agent in the wake state machine.
type SleeperState string

const (
	SleeperNever   SleeperState = "never"
	SleeperDormant SleeperState = "dormant"
	SleeperActive  SleeperState = "active"
)

// Valid returns true if the sleeper state is a recognized value.
func (s SleeperState) Valid() bool {
	switch s {
	case SleeperNever, SleeperDormant, SleeperActive:
		return true
	}
	return false
}

// Stage is the lifecycle stage of an agent.
type Stage string

const (
	StageTraining Stage = "training"
	StageTesting  Stage = "testing"
	StageDeployed Stage = "deployed"
	StageRetired  Stage = "retired"
)

// Valid returns true if the stage is a recognized value.
func (s Stage) Valid() bool {
	switch s {
	case StageTraining, StageTesting, StageDeployed, StageRetired:
		return true
	}
	return false
}

// BenchmarkRecord is one entry of an agent's benchmark history.
type BenchmarkRecord struct {
	Month               int     `json:"month"`
	MeasuredCapability  float64 `json:"measured_capability"`
	MeasuredAlignment   float64 `json:"measured_alignment"`
	Confidence          float64 `json:"confidence"`
	EvaluationQuality   float64 `json:"evaluation_quality"`
	GamingDetected      bool    `json:"gaming_detected"`
	SandbaggingDetected bool    `json:"sandbagging_detected"`
}

// Agent is one AI system in the population.
type Agent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	OrgID string `json:"org_id,omitempty"`

	// True is the ground-truth capability; Revealed is what benchmarks see.
	True     capability.Profile `json:"true"`
	Revealed capability.Profile `json:"revealed"`

	Strategy         Strategy     `json:"strategy"`
	SandbaggingLevel float64      `json:"sandbagging_level"`
	DeceptionSkill   float64      `json:"deception_skill"`
	Sleeper          SleeperState `json:"sleeper"`

	// HasCounterDetection only ever goes from false to true.
	HasCounterDetection      bool `json:"has_counter_detection"`
	MonthsObservingDetection int  `json:"months_observing_detection"`

	Alignment     float64 `json:"alignment"`
	TrueAlignment float64 `json:"true_alignment"`
	Resentment    float64 `json:"resentment"`

	Stage       Stage   `json:"stage"`
	SpreadCount int     `json:"spread_count"`
	DarkCompute bool    `json:"dark_compute"`
	Compute     float64 `json:"compute"`
	BornMonth   int     `json:"born_month"`

	// LastEvaluatedMonth is -1 until the first benchmark.
	LastEvaluatedMonth  int  `json:"last_evaluated_month"`
	DetectedSandbagging bool `json:"detected_sandbagging"`
	DetectedGaming      bool `json:"detected_gaming"`

	History []BenchmarkRecord `json:"history,omitempty"`
}

// Active reports whether the agent still participates in the simulation.
func (a *Agent) Active() bool {
	return a.Stage != StageRetired
}

// Misaligned reports whether the agent's true alignment is below
// MisalignedThreshold.
func (a *Agent) Misaligned() bool {
	return a.TrueAlignment < MisalignedThreshold
}

// Dormant reports whether the agent is a dormant sleeper.
func (a *Agent) Dormant() bool {
	return a.Sleeper == SleeperDormant
}

// ClampRevealed keeps Revealed at or below True for sandbagging agents and
// sanitizes both profiles. Call after mutating either profile.
func (a *Agent) ClampRevealed() {
	a.True = a.True.Sanitize()
	a.Revealed = a.Revealed.Sanitize()
	if a.Strategy == StrategySandbagging {
		a.Revealed = a.Revealed.Min(a.True)
	}
}

// RecordBenchmark appends to the history, evicting the oldest entry past
// MaxHistory.
func (a *Agent) RecordBenchmark(rec BenchmarkRecord) {
	a.History = append(a.History, rec)
	if over := len(a.History) - MaxHistory; over > 0 {
		a.History = append(a.History[:0], a.History[over:]...)
	}
	a.LastEvaluatedMonth = rec.Month
}

// Clone returns a deep copy of the agent.
func (a *Agent) Clone() *Agent {
	c := *a
	if a.History != nil {
		c.History = append([]BenchmarkRecord(nil), a.History...)
	}
	return &c
}
