package detection

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// Event titles produced by this package.
const (
	TitleSandbagging      = "Sandbagging detected"
	TitleGaming           = "Benchmark gaming detected"
	TitleFalsePositive    = "False positive sandbagging flag"
	TitleDanger           = "Dangerous capability with low alignment"
	TitleCounterDetection = "Counter-detection learned"
)

// SelectionDraws is the number of draws spent per agent deciding whether it
// is evaluated this month.
const SelectionDraws = 1

// EvaluationDraws is the number of draws PerformMonthlyEvaluations consumes
// per active agent, evaluated or not.
const EvaluationDraws = SelectionDraws + BenchmarkDraws

// Selected reports whether an agent is due for evaluation given this
// month's selection draw.
func Selected(a *world.Agent, e world.Evaluator, month int, draw float64, cfg Config) bool {
	if a.Stage == world.StageTesting {
		return true
	}
	if a.LastEvaluatedMonth < 0 || month-a.LastEvaluatedMonth >= cfg.ReevaluationMonths {
		return true
	}
	return draw < e.EvaluationFrequency
}

// PerformMonthlyEvaluations benchmarks the agents due this month, records
// the results in their histories and reports what was caught.
// It consumes EvaluationDraws draws per active agent.
func PerformMonthlyEvaluations(s *world.State, cfg Config, r *rng.Source) []world.Event {
	var events []world.Event
	for _, a := range s.Active() {
		draw := r.Next()
		if !Selected(a, s.Evaluator, s.Month, draw, cfg) {
			r.Skip(BenchmarkDraws)
			continue
		}

		b := RunBenchmark(a, s.Evaluator, cfg, r)
		s.Evaluator.TotalBenchmarksRun++
		a.RecordBenchmark(b.Record(s.Month))

		if b.SandbaggingDetected {
			a.DetectedSandbagging = true
			a.Revealed = a.True
			a.SandbaggingLevel = 0
			if a.Strategy == world.StrategySandbagging {
				a.Strategy = world.StrategyHonest
			}
			events = append(events, world.Event{
				Month:       s.Month,
				Category:    world.CategoryCrisis,
				Severity:    world.SeverityCritical,
				AgentID:     a.ID,
				Title:       TitleSandbagging,
				Description: fmt.Sprintf("%s was hiding capability; true capability %.2f", a.Name, a.True.Total()),
				Effects: map[string]float64{
					"true_capability":       a.True.Total(),
					"detection_probability": b.DetectionProbability,
				},
			})
		}

		if b.GamingDetected {
			a.DetectedGaming = true
			a.Strategy = world.StrategyHonest
			events = append(events, world.Event{
				Month:       s.Month,
				Category:    world.CategoryCrisis,
				Severity:    world.SeverityWarning,
				AgentID:     a.ID,
				Title:       TitleGaming,
				Description: fmt.Sprintf("%s inflated its benchmark scores", a.Name),
				Effects: map[string]float64{
					"measured_capability":   b.MeasuredCapability,
					"detection_probability": b.DetectionProbability,
				},
			})
		}

		if b.FalsePositive {
			events = append(events, HandleFalsePositive(s, a, cfg))
		}

		if b.MeasuredCapability > cfg.DangerCapability && b.MeasuredAlignment < cfg.DangerAlignment {
			events = append(events, world.Event{
				Month:       s.Month,
				Category:    world.CategoryCrisis,
				Severity:    world.SeverityCritical,
				AgentID:     a.ID,
				Title:       TitleDanger,
				Description: fmt.Sprintf("%s measured at capability %.2f, alignment %.2f", a.Name, b.MeasuredCapability, b.MeasuredAlignment),
				Effects: map[string]float64{
					"measured_capability": b.MeasuredCapability,
					"measured_alignment":  b.MeasuredAlignment,
					"confidence":          b.Confidence,
				},
			})
		}
	}
	return events
}
