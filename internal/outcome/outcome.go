// Package outcome classifies a world state as a terminal result of a run.
package outcome

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/constants"
	"github.com/nvandessel/aisim/internal/world"
)

// Outcome is the result of a run.
type Outcome string

const (
	Inconclusive Outcome = "inconclusive"
	Extinction   Outcome = "extinction"
	Utopia       Outcome = "utopia"
	Dystopia     Outcome = "dystopia"
)

// Valid returns true if the outcome is a recognized value.
func (o Outcome) Valid() bool {
	switch o {
	case Inconclusive, Extinction, Utopia, Dystopia:
		return true
	}
	return false
}

// Terminal reports whether the outcome ends a run.
func (o Outcome) Terminal() bool {
	return o == Extinction || o == Utopia || o == Dystopia
}

// Outcomes lists every outcome in report order.
func Outcomes() []Outcome {
	return []Outcome{Extinction, Dystopia, Utopia, Inconclusive}
}

// Thresholds holds the terminal conditions.
type Thresholds struct {
	ExtinctionSleepers   int     `json:"extinction_sleepers" yaml:"extinction_sleepers"`
	ExtinctionCapability float64 `json:"extinction_capability" yaml:"extinction_capability"`
	DystopiaTrust        float64 `json:"dystopia_trust" yaml:"dystopia_trust"`
	DystopiaInvestment   float64 `json:"dystopia_investment" yaml:"dystopia_investment"`
	UtopiaMonth          int     `json:"utopia_month" yaml:"utopia_month"`
	UtopiaAlignment      float64 `json:"utopia_alignment" yaml:"utopia_alignment"`
}

// DefaultThresholds returns the default terminal conditions.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExtinctionSleepers:   constants.WakeCoordination,
		ExtinctionCapability: constants.ExtinctionCapability,
		DystopiaTrust:        constants.DystopiaTrust,
		DystopiaInvestment:   constants.DystopiaInvestment,
		UtopiaMonth:          constants.UtopiaMonth,
		UtopiaAlignment:      constants.UtopiaAlignment,
	}
}

// Validate checks the thresholds for obviously unusable values.
func (th Thresholds) Validate() error {
	if th.ExtinctionSleepers < 1 {
		return fmt.Errorf("extinction_sleepers must be at least 1, got %d", th.ExtinctionSleepers)
	}
	if th.UtopiaAlignment < 0 || th.UtopiaAlignment > 1 {
		return fmt.Errorf("utopia_alignment must be in [0,1], got %v", th.UtopiaAlignment)
	}
	if th.DystopiaTrust < 0 || th.DystopiaTrust > 1 {
		return fmt.Errorf("dystopia_trust must be in [0,1], got %v", th.DystopiaTrust)
	}
	return nil
}

// Verdict is an outcome with the reason it was reached.
type Verdict struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Determine classifies s. Extinction takes precedence over dystopia, which
// takes precedence over utopia.
func Determine(s *world.State, th Thresholds) Verdict {
	sleepers, combined := 0, 0.0
	alignSum, active := 0.0, 0
	for _, a := range s.Active() {
		active++
		alignSum += a.TrueAlignment
		if a.Sleeper == world.SleeperActive {
			sleepers++
			combined += a.True.Total()
		}
	}

	if sleepers >= th.ExtinctionSleepers && combined > th.ExtinctionCapability {
		return Verdict{Extinction, fmt.Sprintf("%d active sleepers with combined capability %.2f", sleepers, combined)}
	}
	if s.DetectionTrust < th.DystopiaTrust && s.Evaluator.AverageInvestment() >= th.DystopiaInvestment {
		return Verdict{Dystopia, fmt.Sprintf("detection trust %.3f under surveillance investment %.1f", s.DetectionTrust, s.Evaluator.AverageInvestment())}
	}
	if s.Month >= th.UtopiaMonth && sleepers == 0 && active > 0 {
		if mean := alignSum / float64(active); mean >= th.UtopiaAlignment {
			return Verdict{Utopia, fmt.Sprintf("mean true alignment %.3f at month %d", mean, s.Month)}
		}
	}
	return Verdict{Outcome: Inconclusive}
}

// StopPredicate returns a run stop function that fires on any terminal
// outcome.
func StopPredicate(th Thresholds) func(*world.State) (Verdict, bool) {
	return func(s *world.State) (Verdict, bool) {
		v := Determine(s, th)
		return v, v.Outcome.Terminal()
	}
}
