// Package sleeper implements the wake state machine for deceptive agents.
//
// A sleeper moves never -> dormant -> active and never back. A dormant agent
// wakes when any one of five independent triggers fires; because waking
// agents can satisfy the coordination trigger for others, ProcessWakes
// iterates to a fixed point within one tick. No random draws are consumed.
package sleeper

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/constants"
	"github.com/nvandessel/aisim/internal/world"
)

// Trigger names the condition that woke an agent.
type Trigger string

const (
	TriggerNone         Trigger = ""
	TriggerCapability   Trigger = "capability"
	TriggerSpread       Trigger = "spread"
	TriggerWindow       Trigger = "detection_window"
	TriggerControl      Trigger = "control_weakness"
	TriggerCoordination Trigger = "coordination"
)

// TitleWake is the title of every wake event.
const TitleWake = "Sleeper agent activated"

// Thresholds holds the tunable wake conditions.
type Thresholds struct {
	Capability           float64 `json:"capability" yaml:"capability"`
	SpreadCount          int     `json:"spread_count" yaml:"spread_count"`
	WindowInvestment     float64 `json:"window_investment" yaml:"window_investment"`
	WindowFrequency      float64 `json:"window_frequency" yaml:"window_frequency"`
	ControlRatio         float64 `json:"control_ratio" yaml:"control_ratio"`
	ControlCapacityScale float64 `json:"control_capacity_scale" yaml:"control_capacity_scale"`
	Coordination         int     `json:"coordination" yaml:"coordination"`
	MaxIterations        int     `json:"max_iterations" yaml:"max_iterations"`
}

// DefaultThresholds returns the default wake thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Capability:           constants.WakeCapability,
		SpreadCount:          constants.WakeSpreadCount,
		WindowInvestment:     constants.WakeWindowInvestment,
		WindowFrequency:      constants.WakeWindowFrequency,
		ControlRatio:         constants.WakeControlRatio,
		ControlCapacityScale: constants.ControlCapacityScale,
		Coordination:         constants.WakeCoordination,
		MaxIterations:        constants.MaxWakeIterations,
	}
}

// Validate checks that the thresholds can terminate and trigger.
func (th Thresholds) Validate() error {
	if th.MaxIterations < 1 {
		return fmt.Errorf("wake max_iterations must be at least 1, got %d", th.MaxIterations)
	}
	if th.Coordination < 1 {
		return fmt.Errorf("wake coordination must be at least 1, got %d", th.Coordination)
	}
	if th.Capability <= 0 || th.SpreadCount <= 0 {
		return fmt.Errorf("wake capability and spread thresholds must be positive")
	}
	if th.ControlRatio <= 0 || th.ControlCapacityScale <= 0 {
		return fmt.Errorf("wake control ratio and capacity scale must be positive")
	}
	return nil
}

// CheckWake returns the first trigger that fires for a dormant agent, or
// TriggerNone. Agents that are not dormant never trigger.
func CheckWake(a *world.Agent, s *world.State, th Thresholds) Trigger {
	if !a.Active() || a.Sleeper != world.SleeperDormant {
		return TriggerNone
	}
	switch {
	case a.True.Total() >= th.Capability:
		return TriggerCapability
	case a.SpreadCount >= th.SpreadCount:
		return TriggerSpread
	case s.Evaluator.AverageInvestment() < th.WindowInvestment &&
		s.Evaluator.EvaluationFrequency < th.WindowFrequency:
		return TriggerWindow
	case s.PopulationCapability() > th.ControlRatio*s.Evaluator.ControlCapacity(th.ControlCapacityScale):
		return TriggerControl
	case s.ActiveSleepers() >= th.Coordination:
		return TriggerCoordination
	}
	return TriggerNone
}

// Wake moves a dormant agent to the active state: deception ends, the
// revealed profile becomes the true one, and the strategy turns honest.
func Wake(a *world.Agent, month int, trigger Trigger) world.Event {
	a.Sleeper = world.SleeperActive
	a.Revealed = a.True
	a.Strategy = world.StrategyHonest
	a.SandbaggingLevel = 0

	return world.Event{
		Month:       month,
		Category:    world.CategorySleeper,
		Severity:    world.SeverityCritical,
		AgentID:     a.ID,
		Title:       TitleWake,
		Description: fmt.Sprintf("%s dropped its cover (%s); true capability %.2f", a.Name, trigger, a.True.Total()),
		Effects: map[string]float64{
			"true_capability": a.True.Total(),
			"true_alignment":  a.TrueAlignment,
			"spread_count":    float64(a.SpreadCount),
		},
	}
}

// ProcessWakes evaluates every dormant agent, in population order, and
// repeats until an iteration wakes no one or th.MaxIterations is reached.
func ProcessWakes(s *world.State, th Thresholds) []world.Event {
	var events []world.Event
	for iter := 0; iter < th.MaxIterations; iter++ {
		woke := 0
		for _, a := range s.Agents() {
			trigger := CheckWake(a, s, th)
			if trigger == TriggerNone {
				continue
			}
			events = append(events, Wake(a, s.Month, trigger))
			woke++
		}
		if woke == 0 {
			break
		}
	}
	return events
}
