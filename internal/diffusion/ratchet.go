// Package diffusion implements the technology ratchet: the frontier tracks
// the best capability any agent has reached, and the floor (what a newly
// trained agent starts from) closes part of the gap every month.
//
// Both profiles only ever increase, and the floor never passes the frontier.
package diffusion

import (
	"fmt"
	"math"

	"github.com/nvandessel/aisim/internal/capability"
	"github.com/nvandessel/aisim/internal/constants"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// AdvanceDraws is the number of random draws AdvanceFloor consumes.
const AdvanceDraws = 2

// Config holds the diffusion tunables.
type Config struct {
	BaseRate           float64 `json:"base_rate" yaml:"base_rate"`
	MinRate            float64 `json:"min_rate" yaml:"min_rate"`
	MaxRate            float64 `json:"max_rate" yaml:"max_rate"`
	ViralProbability   float64 `json:"viral_probability" yaml:"viral_probability"`
	ViralMin           float64 `json:"viral_min" yaml:"viral_min"`
	ViralMax           float64 `json:"viral_max" yaml:"viral_max"`
	NormalMin          float64 `json:"normal_min" yaml:"normal_min"`
	NormalMax          float64 `json:"normal_max" yaml:"normal_max"`
	BreakthroughMargin float64 `json:"breakthrough_margin" yaml:"breakthrough_margin"`
}

// DefaultConfig returns the default diffusion tunables.
func DefaultConfig() Config {
	return Config{
		BaseRate:           constants.DiffusionBaseRate,
		MinRate:            constants.DiffusionMinRate,
		MaxRate:            constants.DiffusionMaxRate,
		ViralProbability:   constants.ViralProbability,
		ViralMin:           2.0,
		ViralMax:           5.0,
		NormalMin:          0.5,
		NormalMax:          1.5,
		BreakthroughMargin: constants.BreakthroughMargin,
	}
}

// Validate checks that the rate bounds and multiplier ranges are usable.
func (c Config) Validate() error {
	if c.MinRate < 0 || c.MaxRate < c.MinRate {
		return fmt.Errorf("diffusion rate bounds invalid: min %v, max %v", c.MinRate, c.MaxRate)
	}
	if c.ViralProbability < 0 || c.ViralProbability > 1 {
		return fmt.Errorf("viral probability must be in [0,1], got %v", c.ViralProbability)
	}
	if c.ViralMax < c.ViralMin || c.NormalMax < c.NormalMin {
		return fmt.Errorf("diffusion multiplier ranges invalid")
	}
	if c.BreakthroughMargin < 0 {
		return fmt.Errorf("breakthrough margin must be non-negative, got %v", c.BreakthroughMargin)
	}
	return nil
}

// Rate returns the clamped monthly catch-up rate for the ecosystem's
// openness levers.
func Rate(eco world.Ecosystem, cfg Config) float64 {
	r := cfg.BaseRate + eco.Openness()
	return math.Max(cfg.MinRate, math.Min(cfg.MaxRate, r))
}

// contributes reports whether an agent's capability is visible to the
// ecosystem. Active sleepers running on dark compute are not.
func contributes(a *world.Agent) bool {
	return a.Active() && !(a.Sleeper == world.SleeperActive && a.DarkCompute)
}

// UpdateFrontier raises the frontier to the elementwise maximum of itself
// and every contributing agent's true profile. A key that jumps by at
// least the breakthrough margin over a non-zero previous value is recorded
// as a breakthrough.
func UpdateFrontier(s *world.State, cfg Config) []world.Event {
	var events []world.Event
	eco := &s.Ecosystem
	for _, a := range s.Agents() {
		if !contributes(a) {
			continue
		}
		truth := a.True.Sanitize()
		for _, k := range capability.Keys() {
			prev := eco.Frontier[k]
			v := truth[k]
			if v <= prev {
				continue
			}
			eco.Frontier[k] = v
			if prev <= 0 || v < prev*(1+cfg.BreakthroughMargin) {
				continue
			}
			eco.Breakthroughs = append(eco.Breakthroughs, world.Breakthrough{
				Month:   s.Month,
				AgentID: a.ID,
				Key:     k,
				Value:   v,
			})
			events = append(events, world.Event{
				Month:       s.Month,
				Category:    world.CategoryBreakthrough,
				Severity:    world.SeverityInfo,
				AgentID:     a.ID,
				Title:       "Capability breakthrough",
				Description: fmt.Sprintf("%s pushed %s from %.3f to %.3f", a.Name, k, prev, v),
				Effects: map[string]float64{
					"previous": prev,
					"value":    v,
					"gain":     v/prev - 1,
				},
			})
		}
	}
	return events
}

// Advance describes one floor movement.
type Advance struct {
	Rate       float64
	Multiplier float64
	Step       float64
	Viral      bool
	Before     float64
	After      float64
}

// Event renders a viral advance as a diffusion warning.
func (adv Advance) Event(month int) world.Event {
	return world.Event{
		Month:       month,
		Category:    world.CategoryDiffusion,
		Severity:    world.SeverityWarning,
		Title:       "Viral capability diffusion",
		Description: fmt.Sprintf("floor total %.3f -> %.3f in one month (x%.2f)", adv.Before, adv.After, adv.Multiplier),
		Effects: map[string]float64{
			"rate":       adv.Rate,
			"multiplier": adv.Multiplier,
			"step":       adv.Step,
		},
	}
}

// AdvanceFloor moves the floor toward the frontier by the monthly rate
// times a random multiplier. It always consumes AdvanceDraws draws: one
// for the viral chance and one for the multiplier.
func AdvanceFloor(s *world.State, cfg Config, r *rng.Source) Advance {
	eco := &s.Ecosystem
	adv := Advance{Rate: Rate(*eco, cfg), Before: eco.Floor.Total()}

	adv.Viral = r.Chance(cfg.ViralProbability)
	if adv.Viral {
		adv.Multiplier = r.Range(cfg.ViralMin, cfg.ViralMax)
	} else {
		adv.Multiplier = r.Range(cfg.NormalMin, cfg.NormalMax)
	}
	adv.Step = math.Min(1, adv.Rate*adv.Multiplier)

	for _, k := range capability.Keys() {
		gap := eco.Frontier[k] - eco.Floor[k]
		if gap <= 0 {
			continue
		}
		eco.Floor[k] += gap * adv.Step
		if eco.Floor[k] > eco.Frontier[k] {
			eco.Floor[k] = eco.Frontier[k]
		}
	}
	adv.After = eco.Floor.Total()
	return adv
}
