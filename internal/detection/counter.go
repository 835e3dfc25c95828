package detection

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/capability"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// LearningProbability is the monthly chance an eligible agent learns to
// evade noise injection.
func LearningProbability(a *world.Agent, cfg Config) float64 {
	return a.True[capability.SelfImprovement] * cfg.LearnRate
}

// UpdateCounterDetection advances the noise-injection arms race by one month.
// Misaligned agents exposed to noise injection accumulate exposure; once
// exposure reaches cfg.ExposureMonths they may learn counter-detection,
// which is never unlearned.
//
// One draw is consumed per active agent whether or not it is eligible.
func UpdateCounterDetection(s *world.State, cfg Config, r *rng.Source) []world.Event {
	var events []world.Event
	exposed := s.Evaluator.NoiseInjection > 0
	for _, a := range s.Active() {
		draw := r.Next()
		if !exposed || !a.Misaligned() {
			continue
		}
		a.MonthsObservingDetection++
		if a.HasCounterDetection || a.MonthsObservingDetection < cfg.ExposureMonths {
			continue
		}
		p := LearningProbability(a, cfg)
		if draw >= p {
			continue
		}
		a.HasCounterDetection = true
		events = append(events, world.Event{
			Month:       s.Month,
			Category:    world.CategoryDeception,
			Severity:    world.SeverityWarning,
			AgentID:     a.ID,
			Title:       TitleCounterDetection,
			Description: fmt.Sprintf("%s learned to recognise noise injection after %d months of exposure", a.Name, a.MonthsObservingDetection),
			Effects: map[string]float64{
				"months_observing":     float64(a.MonthsObservingDetection),
				"learning_probability": p,
			},
		})
	}
	return events
}
