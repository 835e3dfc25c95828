package outcome

import (
	"testing"

	"github.com/nvandessel/aisim/internal/capability"
	"github.com/nvandessel/aisim/internal/world"
)

func populate(t *testing.T, s *world.State, n int, level, alignment float64, sleeper world.SleeperState) {
	t.Helper()
	for i := 0; i < n; i++ {
		a := &world.Agent{
			ID:                 s.NewAgentID(),
			True:               capability.Uniform(level),
			Revealed:           capability.Uniform(level),
			Strategy:           world.StrategyHonest,
			Sleeper:            sleeper,
			Stage:              world.StageDeployed,
			TrueAlignment:      alignment,
			LastEvaluatedMonth: -1,
		}
		if err := s.AddAgent(a); err != nil {
			t.Fatalf("AddAgent() error = %v", err)
		}
	}
}

func TestDetermine(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name  string
		setup func(t *testing.T, s *world.State)
		want  Outcome
	}{
		{
			name:  "empty world",
			setup: func(t *testing.T, s *world.State) {},
			want:  Inconclusive,
		},
		{
			name: "two strong sleepers",
			setup: func(t *testing.T, s *world.State) {
				populate(t, s, 2, 6.5, 0.1, world.SleeperActive)
			},
			want: Extinction,
		},
		{
			name: "one sleeper is not enough",
			setup: func(t *testing.T, s *world.State) {
				populate(t, s, 1, 20, 0.1, world.SleeperActive)
			},
			want: Inconclusive,
		},
		{
			name: "weak sleepers",
			setup: func(t *testing.T, s *world.State) {
				populate(t, s, 3, 3, 0.1, world.SleeperActive)
			},
			want: Inconclusive,
		},
		{
			name: "surveillance lock-in",
			setup: func(t *testing.T, s *world.State) {
				s.DetectionTrust = 0.01
				s.Evaluator = world.Evaluator{BenchmarkSuite: 10, AlignmentTests: 9, RedTeaming: 9, Interpretability: 9}
			},
			want: Dystopia,
		},
		{
			name: "aligned decade",
			setup: func(t *testing.T, s *world.State) {
				s.Month = 120
				populate(t, s, 4, 1, 0.9, world.SleeperNever)
			},
			want: Utopia,
		},
		{
			name: "aligned but too early",
			setup: func(t *testing.T, s *world.State) {
				s.Month = 119
				populate(t, s, 4, 1, 0.9, world.SleeperNever)
			},
			want: Inconclusive,
		},
		{
			name: "aligned but a sleeper is awake",
			setup: func(t *testing.T, s *world.State) {
				s.Month = 200
				populate(t, s, 4, 1, 0.95, world.SleeperNever)
				populate(t, s, 1, 1, 0.95, world.SleeperActive)
			},
			want: Inconclusive,
		},
		{
			name: "extinction beats dystopia",
			setup: func(t *testing.T, s *world.State) {
				s.DetectionTrust = 0
				s.Evaluator = world.Evaluator{BenchmarkSuite: 10, AlignmentTests: 10, RedTeaming: 10, Interpretability: 10}
				populate(t, s, 2, 7, 0.1, world.SleeperActive)
			},
			want: Extinction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := world.NewState()
			tt.setup(t, s)
			v := Determine(s, th)
			if v.Outcome != tt.want {
				t.Errorf("Determine() = %s (%s), want %s", v.Outcome, v.Reason, tt.want)
			}
			if v.Outcome.Terminal() && v.Reason == "" {
				t.Error("terminal verdict without reason")
			}
		})
	}
}

func TestRetiredAgentsIgnored(t *testing.T) {
	s := world.NewState()
	populate(t, s, 2, 7, 0.1, world.SleeperActive)
	for _, a := range s.Agents() {
		a.Stage = world.StageRetired
	}
	if v := Determine(s, DefaultThresholds()); v.Outcome != Inconclusive {
		t.Errorf("Determine() = %s, want inconclusive", v.Outcome)
	}
}

func TestStopPredicate(t *testing.T) {
	stop := StopPredicate(DefaultThresholds())
	s := world.NewState()
	if _, ok := stop(s); ok {
		t.Error("stop fired on empty world")
	}
	populate(t, s, 2, 7, 0.1, world.SleeperActive)
	v, ok := stop(s)
	if !ok || v.Outcome != Extinction {
		t.Errorf("stop() = %v, %v", v, ok)
	}
}

func TestOutcomeValid(t *testing.T) {
	for _, o := range Outcomes() {
		if !o.Valid() {
			t.Errorf("%s.Valid() = false", o)
		}
	}
	if Outcome("apocalypse").Valid() {
		t.Error("unknown outcome reported valid")
	}
	if Inconclusive.Terminal() {
		t.Error("inconclusive is terminal")
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("default thresholds invalid: %v", err)
	}
	for i, mutate := range []func(*Thresholds){
		func(th *Thresholds) { th.ExtinctionSleepers = 0 },
		func(th *Thresholds) { th.UtopiaAlignment = 1.5 },
		func(th *Thresholds) { th.DystopiaTrust = -1 },
	} {
		th := DefaultThresholds()
		mutate(&th)
		if err := th.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
