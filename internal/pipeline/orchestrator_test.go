package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

func recorder(name string, order int, trace *[]string) Phase {
	return Func(name, order, func(s *world.State, r *rng.Source, tc *TickContext) (Result, error) {
		*trace = append(*trace, name)
		return Result{}, nil
	})
}

func TestRegister_Rejects(t *testing.T) {
	var trace []string
	tests := []struct {
		name  string
		phase Phase
	}{
		{"nil", nil},
		{"empty name", recorder("", 150, &trace)},
		{"duplicate order", recorder("other", 100, &trace)},
		{"duplicate name", recorder("compute", 110, &trace)},
		{"outside bands", recorder("late", 1000, &trace)},
		{"below bands", recorder("early", 50, &trace)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(nil)
			if err := o.Register(recorder("compute", 100, &trace)); err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if err := o.Register(tt.phase); err == nil {
				t.Error("Register() expected error")
			}
		})
	}
}

func TestExecuteAll_Order(t *testing.T) {
	var trace []string
	o := NewOrchestrator(nil)
	for _, p := range []Phase{
		recorder("diffusion", 800, &trace),
		recorder("compute", 100, &trace),
		recorder("evaluations", 600, &trace),
		recorder("counter", 610, &trace),
		recorder("lifecycle", 300, &trace),
	} {
		if err := o.Register(p); err != nil {
			t.Fatalf("Register(%s) error = %v", p.Name(), err)
		}
	}

	o.ExecuteAll(world.NewState(), rng.New(1), NewTickContext(0, nil))

	want := "compute,lifecycle,evaluations,counter,diffusion"
	if got := strings.Join(trace, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}

	// Registering invalidates the cached order.
	trace = nil
	if err := o.Register(recorder("orgs", 200, &trace)); err != nil {
		t.Fatal(err)
	}
	o.ExecuteAll(world.NewState(), rng.New(1), NewTickContext(0, nil))
	if trace[1] != "orgs" {
		t.Errorf("after re-registration order = %v", trace)
	}
}

func TestExecuteAll_IsolatesFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	var trace []string

	o := NewOrchestrator(logger)
	_ = o.Register(recorder("first", 100, &trace))
	_ = o.Register(Func("erring", 200, func(*world.State, *rng.Source, *TickContext) (Result, error) {
		return Result{}, errors.New("ledger unavailable")
	}))
	_ = o.Register(Func("panicking", 300, func(*world.State, *rng.Source, *TickContext) (Result, error) {
		panic("corrupt agent table")
	}))
	_ = o.Register(recorder("last", 900, &trace))

	tc := NewTickContext(4, nil)
	events := o.ExecuteAll(world.NewState(), rng.New(1), tc)

	if strings.Join(trace, ",") != "first,last" {
		t.Errorf("healthy phases did not all run: %v", trace)
	}
	if len(tc.Failures) != 2 {
		t.Fatalf("Failures = %d, want 2", len(tc.Failures))
	}
	if tc.Failures[0].Phase != "erring" || tc.Failures[0].Panic {
		t.Errorf("Failures[0] = %+v", tc.Failures[0])
	}
	if tc.Failures[1].Phase != "panicking" || !tc.Failures[1].Panic || tc.Failures[1].Order != 300 {
		t.Errorf("Failures[1] = %+v", tc.Failures[1])
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	for _, ev := range events {
		if ev.Category != world.CategorySystem || ev.Severity != world.SeverityWarning || ev.Month != 4 {
			t.Errorf("unexpected failure event %+v", ev)
		}
	}
	if !strings.Contains(buf.String(), "phase=erring") || !strings.Contains(buf.String(), "order=300") {
		t.Errorf("failure log missing phase details: %s", buf.String())
	}
}

func TestExecuteAll_PatchAndMetadata(t *testing.T) {
	o := NewOrchestrator(nil)
	_ = o.Register(Func("writer", 100, func(s *world.State, r *rng.Source, tc *TickContext) (Result, error) {
		return Result{
			Events:   []world.Event{{Title: "wrote"}},
			Patch:    func(s *world.State) { s.TotalCompute = 42 },
			Metadata: map[string]any{"compute": 42.0, "label": "x"},
		}, nil
	}))
	var seenCompute float64
	var seenLabel string
	var seenState float64
	_ = o.Register(Func("reader", 200, func(s *world.State, r *rng.Source, tc *TickContext) (Result, error) {
		seenCompute = tc.Float("compute")
		seenLabel = tc.String("label")
		seenState = s.TotalCompute
		return Result{}, nil
	}))

	events := o.ExecuteAll(world.NewState(), rng.New(1), NewTickContext(0, nil))
	if len(events) != 1 {
		t.Errorf("events = %d, want 1", len(events))
	}
	if seenCompute != 42 || seenLabel != "x" || seenState != 42 {
		t.Errorf("reader saw compute=%v label=%q state=%v", seenCompute, seenLabel, seenState)
	}
}

func TestCrisisLedger(t *testing.T) {
	l := NewCrisisLedger()
	if !l.Fire("first_wake", 3) {
		t.Error("first Fire() = false")
	}
	if l.Fire("first_wake", 9) {
		t.Error("second Fire() = true")
	}
	if m, ok := l.Fired("first_wake"); !ok || m != 3 {
		t.Errorf("Fired() = %d, %v", m, ok)
	}
	l.Fire("trust_collapse", 5)
	if got := strings.Join(l.Names(), ","); got != "first_wake,trust_collapse" {
		t.Errorf("Names() = %s", got)
	}

	c := l.Clone()
	c.Fire("extra", 1)
	if _, ok := l.Fired("extra"); ok {
		t.Error("clone shares storage with original")
	}

	var nilLedger *CrisisLedger
	if nilLedger.Fire("x", 1) {
		t.Error("nil ledger fired")
	}
}
