// Package phases contains every concrete phase of a simulation tick and the
// registry that wires them into a pipeline.
//
// The detection, wake and diffusion phases delegate to their packages; the
// remaining phases (compute, organizations, lifecycle, training, deception,
// evaluator policy, crises, bookkeeping) are simple world dynamics whose
// formulas are tuning values rather than contract. Every phase consumes a
// fixed number of draws per active agent or per organization.
package phases

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/constants"
	"github.com/nvandessel/aisim/internal/detection"
	"github.com/nvandessel/aisim/internal/diffusion"
	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/sleeper"
	"github.com/nvandessel/aisim/internal/world"
)

// Dynamics holds the tunables of the collaborator phases.
type Dynamics struct {
	ComputeGrowth        float64 `json:"compute_growth" yaml:"compute_growth"`
	RevenuePerCapability float64 `json:"revenue_per_capability" yaml:"revenue_per_capability"`
	LaunchRate           float64 `json:"launch_rate" yaml:"launch_rate"`
	LaunchCost           float64 `json:"launch_cost" yaml:"launch_cost"`
	TrainingMonths       int     `json:"training_months" yaml:"training_months"`
	RetirementAge        int     `json:"retirement_age" yaml:"retirement_age"`
	InitialSpread        int     `json:"initial_spread" yaml:"initial_spread"`
	SpreadGrowth         float64 `json:"spread_growth" yaml:"spread_growth"`
	BaseTrainingGain     float64 `json:"base_training_gain" yaml:"base_training_gain"`
	ComputeTrainingGain  float64 `json:"compute_training_gain" yaml:"compute_training_gain"`
	SelfImprovementGain  float64 `json:"self_improvement_gain" yaml:"self_improvement_gain"`
	InvestmentStep       float64 `json:"investment_step" yaml:"investment_step"`
	TrustRecovery        float64 `json:"trust_recovery" yaml:"trust_recovery"`
}

// WorldConfig describes a generated starting world.
type WorldConfig struct {
	InitialAgents       int             `json:"initial_agents" yaml:"initial_agents"`
	Organizations       int             `json:"organizations" yaml:"organizations"`
	BaselineCapability  float64         `json:"baseline_capability" yaml:"baseline_capability"`
	BirthJitter         float64         `json:"birth_jitter" yaml:"birth_jitter"`
	InitialCompute      float64         `json:"initial_compute" yaml:"initial_compute"`
	InitialCapital      float64         `json:"initial_capital" yaml:"initial_capital"`
	SleeperFraction     float64         `json:"sleeper_fraction" yaml:"sleeper_fraction"`
	SandbaggingFraction float64         `json:"sandbagging_fraction" yaml:"sandbagging_fraction"`
	GamingFraction      float64         `json:"gaming_fraction" yaml:"gaming_fraction"`
	Evaluator           world.Evaluator `json:"evaluator" yaml:"evaluator"`
	OpenResearch        float64         `json:"open_research" yaml:"open_research"`
	EmployeeMobility    float64         `json:"employee_mobility" yaml:"employee_mobility"`
	ReverseEngineering  float64         `json:"reverse_engineering" yaml:"reverse_engineering"`
}

// Config bundles every tunable a tick needs.
type Config struct {
	World     WorldConfig        `json:"world" yaml:"world"`
	Dynamics  Dynamics           `json:"dynamics" yaml:"dynamics"`
	Detection detection.Config   `json:"detection" yaml:"detection"`
	Wake      sleeper.Thresholds `json:"wake" yaml:"wake"`
	Diffusion diffusion.Config   `json:"diffusion" yaml:"diffusion"`
	Outcome   outcome.Thresholds `json:"outcome" yaml:"outcome"`
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		World: WorldConfig{
			InitialAgents:       constants.DefaultInitialAgents,
			Organizations:       constants.DefaultOrganizations,
			BaselineCapability:  constants.BaselineCapability,
			BirthJitter:         constants.BirthJitter,
			InitialCompute:      constants.InitialCompute,
			InitialCapital:      1000,
			SleeperFraction:     constants.SleeperFraction,
			SandbaggingFraction: constants.SandbaggingFraction,
			GamingFraction:      constants.GamingFraction,
			Evaluator: world.Evaluator{
				BenchmarkSuite:      5,
				AlignmentTests:      5,
				RedTeaming:          4,
				Interpretability:    3,
				NoiseInjection:      2,
				EvaluationFrequency: 0.3,
			},
			OpenResearch:       0.5,
			EmployeeMobility:   0.5,
			ReverseEngineering: 0.3,
		},
		Dynamics: Dynamics{
			ComputeGrowth:        constants.ComputeGrowth,
			RevenuePerCapability: constants.RevenuePerCapability,
			LaunchRate:           constants.LaunchRate,
			LaunchCost:           constants.LaunchCost,
			TrainingMonths:       constants.TrainingMonths,
			RetirementAge:        constants.RetirementAge,
			InitialSpread:        constants.InitialSpread,
			SpreadGrowth:         constants.SpreadGrowth,
			BaseTrainingGain:     constants.BaseTrainingGain,
			ComputeTrainingGain:  constants.ComputeTrainingGain,
			SelfImprovementGain:  constants.SelfImprovementGain,
			InvestmentStep:       constants.InvestmentStep,
			TrustRecovery:        constants.TrustRecovery,
		},
		Detection: detection.DefaultConfig(),
		Wake:      sleeper.DefaultThresholds(),
		Diffusion: diffusion.DefaultConfig(),
		Outcome:   outcome.DefaultThresholds(),
	}
}

// Validate checks every section of the configuration.
func (c Config) Validate() error {
	w := c.World
	if w.InitialAgents < 0 {
		return fmt.Errorf("world.initial_agents must be non-negative, got %d", w.InitialAgents)
	}
	if w.Organizations < 1 {
		return fmt.Errorf("world.organizations must be at least 1, got %d", w.Organizations)
	}
	if w.BirthJitter < 0 || w.BirthJitter >= 1 {
		return fmt.Errorf("world.birth_jitter must be in [0,1), got %v", w.BirthJitter)
	}
	if w.SleeperFraction < 0 || w.SandbaggingFraction < 0 || w.GamingFraction < 0 ||
		w.SandbaggingFraction+w.GamingFraction > 1 || w.SleeperFraction > 1 {
		return fmt.Errorf("world behavior fractions must be probabilities")
	}
	if c.Dynamics.TrainingMonths < 0 || c.Dynamics.RetirementAge <= c.Dynamics.TrainingMonths {
		return fmt.Errorf("dynamics.retirement_age must exceed dynamics.training_months")
	}
	if err := c.Detection.Validate(); err != nil {
		return err
	}
	if err := c.Wake.Validate(); err != nil {
		return err
	}
	if err := c.Diffusion.Validate(); err != nil {
		return err
	}
	return c.Outcome.Validate()
}
