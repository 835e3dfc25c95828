package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/nvandessel/aisim/internal/constants"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// Orchestrator holds the registered phases and runs them in ascending
// order key.
type Orchestrator struct {
	phases []Phase
	sorted []Phase
	logger *slog.Logger
}

// NewOrchestrator creates an empty orchestrator. A nil logger discards
// phase failure logs.
func NewOrchestrator(logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{logger: logger}
}

// Register adds a phase. It fails if the name or order key is already taken
// or the order key falls outside every band.
func (o *Orchestrator) Register(p Phase) error {
	if p == nil {
		return fmt.Errorf("phase is nil")
	}
	if p.Name() == "" {
		return fmt.Errorf("phase at order %d has no name", p.Order())
	}
	if !constants.BandOf(p.Order()).Valid() {
		return fmt.Errorf("phase %q: order %d is outside every band", p.Name(), p.Order())
	}
	for _, q := range o.phases {
		if q.Order() == p.Order() {
			return fmt.Errorf("phase %q: order %d already used by %q", p.Name(), p.Order(), q.Name())
		}
		if q.Name() == p.Name() {
			return fmt.Errorf("phase %q already registered", p.Name())
		}
	}
	o.phases = append(o.phases, p)
	o.sorted = nil
	return nil
}

// Phases returns the registered phases in execution order.
func (o *Orchestrator) Phases() []Phase {
	if o.sorted == nil {
		o.sorted = append([]Phase(nil), o.phases...)
		sort.Slice(o.sorted, func(i, j int) bool {
			return o.sorted[i].Order() < o.sorted[j].Order()
		})
	}
	return o.sorted
}

// ExecuteAll runs every phase in order against s and returns the events
// they produced, including one system warning per failed phase.
func (o *Orchestrator) ExecuteAll(s *world.State, r *rng.Source, tc *TickContext) []world.Event {
	var events []world.Event
	for _, p := range o.Phases() {
		res, f := o.execute(p, s, r, tc)
		if f != nil {
			tc.Failures = append(tc.Failures, *f)
			o.logger.Error("phase failed",
				"phase", p.Name(),
				"order", p.Order(),
				"month", tc.Month,
				"panic", f.Panic,
				"error", f.Error)
			events = append(events, world.Event{
				Month:       tc.Month,
				Category:    world.CategorySystem,
				Severity:    world.SeverityWarning,
				Title:       "Phase failed",
				Description: fmt.Sprintf("%s (order %d): %s", p.Name(), p.Order(), f.Error),
			})
			continue
		}
		events = append(events, res.Events...)
		if res.Patch != nil {
			res.Patch(s)
		}
		tc.merge(res.Metadata)
		o.logger.Debug("phase complete",
			"phase", p.Name(),
			"order", p.Order(),
			"month", tc.Month,
			"events", len(res.Events))
	}
	return events
}

func (o *Orchestrator) execute(p Phase, s *world.State, r *rng.Source, tc *TickContext) (res Result, f *Failure) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{}
			f = &Failure{
				Month: tc.Month,
				Phase: p.Name(),
				Order: p.Order(),
				Error: fmt.Sprint(rec),
				Panic: true,
			}
		}
	}()
	res, err := p.Execute(s, r, tc)
	if err != nil {
		return Result{}, &Failure{
			Month: tc.Month,
			Phase: p.Name(),
			Order: p.Order(),
			Error: err.Error(),
		}
	}
	return res, nil
}
