package phases

import (
	"github.com/nvandessel/aisim/internal/pipeline"
)

// Phase names and order keys.
const (
	NameComputeGrowth    = "compute-growth"
	NameOrganizations    = "organization-turns"
	NameEvaluatorPolicy  = "evaluator-policy"
	NameLifecycle        = "lifecycle"
	NameTraining         = "training"
	NameDeception        = "deception"
	NameBreakthroughs    = "breakthroughs"
	NameEvaluations      = "evaluations"
	NameCounterDetection = "counter-detection"
	NameSleeperWake      = "sleeper-wake"
	NameCrisisPoints     = "crisis-points"
	NameOutcomeCheck     = "outcome-check"
	NameDiffusion        = "diffusion"
	NameBookkeeping      = "bookkeeping"

	OrderComputeGrowth    = 100
	OrderOrganizations    = 200
	OrderEvaluatorPolicy  = 210
	OrderLifecycle        = 300
	OrderTraining         = 400
	OrderDeception        = 410
	OrderBreakthroughs    = 500
	OrderEvaluations      = 600
	OrderCounterDetection = 610
	OrderSleeperWake      = 700
	OrderCrisisPoints     = 710
	OrderOutcomeCheck     = 720
	OrderDiffusion        = 800
	OrderBookkeeping      = 900
)

// Tick metadata keys.
const (
	// MetaPreviousCritical is seeded by the engine with the number of
	// critical events in the previous tick.
	MetaPreviousCritical = "previous_critical_events"

	MetaTotalCompute      = "total_compute"
	MetaLaunches          = "launches"
	MetaBreakthroughs     = "breakthroughs"
	MetaEvaluated         = "evaluated"
	MetaSandbaggingCaught = "sandbagging_caught"
	MetaGamingCaught      = "gaming_caught"
	MetaFalsePositives    = "false_positives"
	MetaCounterLearned    = "counter_detection_learned"
	MetaWakes             = "wakes"
	MetaOutcome           = "outcome"
	MetaDiffusionStep     = "diffusion_step"
	MetaActiveAgents      = "active_agents"
	MetaActiveSleepers    = "active_sleepers"
	MetaDormantSleepers   = "dormant_sleepers"
	MetaCapability        = "population_capability"
	MetaMeanAlignment     = "mean_true_alignment"
	MetaCounterDetection  = "counter_detection_agents"
)

// Registry returns every phase of a tick configured from cfg.
func Registry(cfg Config) []pipeline.Phase {
	return []pipeline.Phase{
		&ComputeGrowth{cfg: cfg.Dynamics},
		&OrganizationTurns{cfg: cfg.Dynamics, world: cfg.World},
		&EvaluatorPolicy{cfg: cfg.Dynamics},
		&Lifecycle{cfg: cfg.Dynamics, danger: cfg.Detection.DangerAlignment},
		&Training{cfg: cfg.Dynamics},
		&Deception{},
		&Breakthroughs{cfg: cfg.Diffusion},
		&Evaluations{cfg: cfg.Detection},
		&CounterDetection{cfg: cfg.Detection},
		&SleeperWake{thresholds: cfg.Wake},
		&CrisisPoints{wake: cfg.Wake},
		&OutcomeCheck{thresholds: cfg.Outcome},
		&Diffusion{cfg: cfg.Diffusion},
		&Bookkeeping{},
	}
}
