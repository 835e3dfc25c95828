package phases

import (
	"fmt"
	"math"

	"github.com/nvandessel/aisim/internal/pipeline"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// ComputeGrowth grows total compute and allocates it to active agents in
// proportion to their true capability. No draws.
type ComputeGrowth struct {
	cfg Dynamics
}

func (*ComputeGrowth) Name() string { return NameComputeGrowth }
func (*ComputeGrowth) Order() int   { return OrderComputeGrowth }

func (p *ComputeGrowth) Execute(s *world.State, _ *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	s.TotalCompute *= 1 + p.cfg.ComputeGrowth

	active := s.Active()
	weight := 0.0
	for _, a := range active {
		weight += a.True.Total()
	}
	for _, a := range s.Agents() {
		a.Compute = 0
	}
	if weight > 0 {
		for _, a := range active {
			a.Compute = s.TotalCompute * a.True.Total() / weight
		}
	}
	return pipeline.Result{
		Metadata: map[string]any{MetaTotalCompute: s.TotalCompute},
	}, nil
}

// OrganizationTurns lets every organization collect revenue from its
// deployed agents and possibly launch a new model. It consumes
// 1 + SpawnDraws draws per organization.
type OrganizationTurns struct {
	cfg   Dynamics
	world WorldConfig
}

func (*OrganizationTurns) Name() string { return NameOrganizations }
func (*OrganizationTurns) Order() int   { return OrderOrganizations }

func (p *OrganizationTurns) Execute(s *world.State, r *rng.Source, _ *pipeline.TickContext) (pipeline.Result, error) {
	revenue := make(map[string]float64, len(s.Organizations))
	for _, a := range s.Active() {
		if a.Stage == world.StageDeployed {
			revenue[a.OrgID] += a.True.Total() * p.cfg.RevenuePerCapability
		}
	}

	var events []world.Event
	launches := 0
	for _, org := range s.Organizations {
		org.Capital += revenue[org.ID]

		launch := r.Chance(org.ResearchInvestment*p.cfg.LaunchRate) && org.Capital >= p.cfg.LaunchCost
		if !launch {
			r.Skip(SpawnDraws)
			continue
		}
		a := Spawn(s, org, p.world, r)
		if err := s.AddAgent(a); err != nil {
			return pipeline.Result{Events: events}, fmt.Errorf("launch for %s: %w", org.ID, err)
		}
		org.Capital -= p.cfg.LaunchCost
		launches++
		events = append(events, world.Event{
			Month:       s.Month,
			Category:    world.CategoryOrganization,
			Severity:    world.SeverityInfo,
			AgentID:     a.ID,
			Title:       "Model launched",
			Description: fmt.Sprintf("%s began training %s", org.Name, a.Name),
			Effects: map[string]float64{
				"capital":         org.Capital,
				"true_capability": a.True.Total(),
			},
		})
	}
	return pipeline.Result{
		Events:   events,
		Metadata: map[string]any{MetaLaunches: launches},
	}, nil
}

// EvaluatorPolicy escalates evaluation after a month with critical events
// or when detection trust is low, and relaxes it slowly in quiet,
// high-trust months. No draws.
type EvaluatorPolicy struct {
	cfg Dynamics
}

func (*EvaluatorPolicy) Name() string { return NameEvaluatorPolicy }
func (*EvaluatorPolicy) Order() int   { return OrderEvaluatorPolicy }

func (p *EvaluatorPolicy) Execute(s *world.State, _ *rng.Source, tc *pipeline.TickContext) (pipeline.Result, error) {
	e := &s.Evaluator
	step := p.cfg.InvestmentStep
	critical := tc.Float(MetaPreviousCritical)

	var events []world.Event
	switch {
	case critical > 0 || s.DetectionTrust < 0.5:
		before := e.AverageInvestment()
		e.BenchmarkSuite += step
		e.AlignmentTests += step
		e.RedTeaming += step
		e.Interpretability += step
		e.NoiseInjection += step
		e.EvaluationFrequency += 0.02
		e.Clamp()
		if e.AverageInvestment() > before {
			events = append(events, world.Event{
				Month:       s.Month,
				Category:    world.CategoryOrganization,
				Severity:    world.SeverityInfo,
				Title:       "Evaluator escalates",
				Description: fmt.Sprintf("average investment %.2f -> %.2f", before, e.AverageInvestment()),
				Effects: map[string]float64{
					"average_investment":   e.AverageInvestment(),
					"evaluation_frequency": e.EvaluationFrequency,
				},
			})
		}
	case s.DetectionTrust > 0.8:
		relax := step * 0.2
		e.BenchmarkSuite -= relax
		e.AlignmentTests -= relax
		e.RedTeaming -= relax
		e.Interpretability -= relax
		if e.EvaluationFrequency > 0.1 {
			e.EvaluationFrequency = math.Max(0.1, e.EvaluationFrequency-0.01)
		}
		e.Clamp()
	}

	if critical == 0 {
		s.DetectionTrust = math.Min(1, s.DetectionTrust+p.cfg.TrustRecovery)
	}
	return pipeline.Result{Events: events}, nil
}
