package world

import (
	"testing"

	"github.com/nvandessel/aisim/internal/capability"
)

func newAgent(id string) *Agent {
	return &Agent{
		ID:                 id,
		True:               capability.Uniform(1),
		Revealed:           capability.Uniform(1),
		Strategy:           StrategyHonest,
		Sleeper:            SleeperNever,
		Stage:              StageDeployed,
		LastEvaluatedMonth: -1,
	}
}

func TestAddAgent(t *testing.T) {
	s := NewState()
	if err := s.AddAgent(newAgent("a")); err != nil {
		t.Fatalf("AddAgent: %v", err)
	}
	if err := s.AddAgent(newAgent("a")); err == nil {
		t.Error("expected duplicate ID error")
	}
	if err := s.AddAgent(&Agent{}); err == nil {
		t.Error("expected missing ID error")
	}
	if s.Agent("a") == nil {
		t.Error("Agent(a) = nil")
	}
	if s.Agent("missing") != nil {
		t.Error("Agent(missing) should be nil")
	}
}

func TestNewAgentID_Sequential(t *testing.T) {
	s := NewState()
	if got := s.NewAgentID(); got != "ai-0001" {
		t.Errorf("first ID = %q, want ai-0001", got)
	}
	if got := s.NewAgentID(); got != "ai-0002" {
		t.Errorf("second ID = %q, want ai-0002", got)
	}
}

func TestActive_ExcludesRetired(t *testing.T) {
	s := NewState()
	a := newAgent("a")
	b := newAgent("b")
	b.Stage = StageRetired
	s.AddAgent(a)
	s.AddAgent(b)

	active := s.Active()
	if len(active) != 1 || active[0].ID != "a" {
		t.Errorf("Active() = %v, want only a", active)
	}
	if len(s.Agents()) != 2 {
		t.Errorf("Agents() len = %d, want 2 (retired stay in the log)", len(s.Agents()))
	}
}

func TestClampRevealed_Sandbagging(t *testing.T) {
	a := newAgent("a")
	a.Strategy = StrategySandbagging
	a.Revealed = capability.Uniform(2)
	a.ClampRevealed()
	if !a.Revealed.LessOrEqual(a.True) {
		t.Errorf("revealed exceeds true after clamp: %v > %v", a.Revealed, a.True)
	}

	g := newAgent("g")
	g.Strategy = StrategyGaming
	g.Revealed = capability.Uniform(2)
	g.ClampRevealed()
	if g.Revealed[capability.Cognitive] != 2 {
		t.Error("gaming agent's stored revealed profile should not be clamped")
	}
}

func TestRecordBenchmark_BoundedHistory(t *testing.T) {
	a := newAgent("a")
	for m := 0; m < 20; m++ {
		a.RecordBenchmark(BenchmarkRecord{Month: m})
	}
	if len(a.History) != MaxHistory {
		t.Fatalf("history len = %d, want %d", len(a.History), MaxHistory)
	}
	if a.History[0].Month != 8 {
		t.Errorf("oldest month = %d, want 8", a.History[0].Month)
	}
	if a.History[MaxHistory-1].Month != 19 {
		t.Errorf("newest month = %d, want 19", a.History[MaxHistory-1].Month)
	}
	if a.LastEvaluatedMonth != 19 {
		t.Errorf("LastEvaluatedMonth = %d, want 19", a.LastEvaluatedMonth)
	}
}

func TestClone_IsDeep(t *testing.T) {
	s := NewState()
	a := newAgent("a")
	a.RecordBenchmark(BenchmarkRecord{Month: 1})
	s.AddAgent(a)
	s.Organizations = []*Organization{{ID: "org", Capital: 10}}
	s.Ecosystem.Breakthroughs = []Breakthrough{{Month: 1}}

	c := s.Clone()
	c.Agent("a").True[capability.Digital] = 99
	c.Agent("a").History[0].Month = 42
	c.Organizations[0].Capital = 0
	c.Ecosystem.Breakthroughs[0].Month = 7

	if s.Agent("a").True[capability.Digital] == 99 {
		t.Error("clone shares agent profile")
	}
	if s.Agent("a").History[0].Month == 42 {
		t.Error("clone shares agent history")
	}
	if s.Organizations[0].Capital == 0 {
		t.Error("clone shares organizations")
	}
	if s.Ecosystem.Breakthroughs[0].Month == 7 {
		t.Error("clone shares breakthrough log")
	}
}

func TestEvaluator(t *testing.T) {
	e := Evaluator{BenchmarkSuite: 2, AlignmentTests: 4, RedTeaming: 6, Interpretability: 8, EvaluationFrequency: 3}
	if got := e.AverageInvestment(); got != 5 {
		t.Errorf("AverageInvestment() = %v, want 5", got)
	}
	if got := e.ControlCapacity(2); got != 10 {
		t.Errorf("ControlCapacity(2) = %v, want 10", got)
	}
	e.NoiseInjection = 12
	e.Clamp()
	if e.NoiseInjection != MaxInvestment || e.EvaluationFrequency != 1 {
		t.Errorf("Clamp() = %+v", e)
	}
}

func TestEnumsValid(t *testing.T) {
	if !StrategySandbagging.Valid() || Strategy("lying").Valid() {
		t.Error("Strategy.Valid misbehaves")
	}
	if !SleeperDormant.Valid() || SleeperState("awake").Valid() {
		t.Error("SleeperState.Valid misbehaves")
	}
	if !StageTesting.Valid() || Stage("beta").Valid() {
		t.Error("Stage.Valid misbehaves")
	}
	if !CategorySleeper.Valid() || Category("misc").Valid() {
		t.Error("Category.Valid misbehaves")
	}
	if !SeverityCritical.Valid() || Severity("fatal").Valid() {
		t.Error("Severity.Valid misbehaves")
	}
}
