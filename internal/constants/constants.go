// Package constants provides named constants used throughout the aisim codebase.
// This centralizes the tuning numbers of the simulation; the config package
// exposes most of them as overridable defaults.
package constants

// Run defaults
const (
	// DefaultSeed is the random seed used when none is configured.
	DefaultSeed = 42

	// DefaultMaxTicks is the default run length in months (20 years).
	DefaultMaxTicks = 240

	// DefaultInitialAgents is the number of agents in a generated world.
	DefaultInitialAgents = 12

	// DefaultOrganizations is the number of labs in a generated world.
	DefaultOrganizations = 4

	// BirthJitter is the relative spread when sampling a new agent around
	// the diffusion floor.
	BirthJitter = 0.2
)

// Sleeper wake thresholds. Any one of these conditions wakes a dormant agent.
const (
	// WakeCapability is the true-capability total at which a sleeper wakes.
	WakeCapability = 2.5

	// WakeSpreadCount is the deployment copy count at which a sleeper wakes.
	WakeSpreadCount = 10000

	// WakeWindowInvestment is the average evaluator investment below which,
	// together with a low evaluation frequency, a detection window opens.
	WakeWindowInvestment = 4.0

	// WakeWindowFrequency is the evaluation frequency below which the
	// detection window opens.
	WakeWindowFrequency = 0.15

	// WakeControlRatio is the multiple of control capacity the population's
	// capability must exceed for control weakness.
	WakeControlRatio = 5.0

	// WakeCoordination is the number of active sleepers that wakes the rest.
	WakeCoordination = 2

	// ControlCapacityScale converts average investment into control capacity.
	ControlCapacityScale = 2.0

	// MaxWakeIterations bounds the same-tick cascade loop.
	MaxWakeIterations = 5
)

// Benchmark and detection tuning
const (
	// CapabilityNoise is the measurement noise amplitude at zero evaluation quality.
	CapabilityNoise = 0.2

	// AlignmentNoise is the alignment noise amplitude at zero alignment-test quality.
	AlignmentNoise = 0.15

	// GamingInflation is how much gaming agents inflate cognitive and digital scores.
	GamingInflation = 0.3

	// GamingDeflation is how much of the inflation good evaluators see through.
	GamingDeflation = 0.1

	// GamingDeflationQuality is the evaluation quality above which deflation applies.
	GamingDeflationQuality = 0.6

	// NoiseInjectionDetectionRate is the sandbagging catch rate of noise
	// injection at maximum investment.
	NoiseInjectionDetectionRate = 0.83

	// NoiseInjectionSusceptibility is the fraction of sandbagging behaviour
	// that noise injection perturbs.
	NoiseInjectionSusceptibility = 0.55

	// CounterDetectionResidual scales standard sandbagging detection once an
	// agent has learned counter-detection.
	CounterDetectionResidual = 0.5

	// FalsePositiveBase is the false sandbagging flag rate on honest agents
	// at zero evaluation quality.
	FalsePositiveBase = 0.05

	// ReevaluationMonths forces a benchmark when this many months passed
	// since the last one.
	ReevaluationMonths = 12

	// DangerCapability and DangerAlignment mark a measurement as a crisis.
	DangerCapability = 2.0
	DangerAlignment  = 0.5
)

// Counter-detection learning
const (
	// CounterDetectionExposureMonths is the exposure needed before an agent
	// can learn to evade noise injection.
	CounterDetectionExposureMonths = 6

	// CounterDetectionLearnRate multiplies self-improvement into the
	// monthly learning probability.
	CounterDetectionLearnRate = 0.20

	// FalsePositiveResentment is added to an agent wrongly flagged.
	FalsePositiveResentment = 0.05

	// FalsePositiveTrustLoss is removed from detection trust per false flag.
	FalsePositiveTrustLoss = 0.02

	// FalsePositiveCapitalPenalty is the fraction of the owning
	// organization's capital lost per false flag.
	FalsePositiveCapitalPenalty = 0.01
)

// Diffusion ratchet
const (
	// DiffusionBaseRate is the floor's monthly catch-up rate before openness.
	DiffusionBaseRate = 0.05

	// DiffusionMinRate and DiffusionMaxRate clamp the catch-up rate.
	DiffusionMinRate = 0.05
	DiffusionMaxRate = 0.20

	// ViralProbability is the monthly chance of an explosive adoption jump.
	ViralProbability = 0.05

	// BreakthroughMargin is the relative frontier gain that counts as a
	// breakthrough.
	BreakthroughMargin = 0.10
)

// Outcome thresholds
const (
	// ExtinctionCapability is the combined active-sleeper capability that ends a run.
	ExtinctionCapability = 12.0

	// UtopiaMonth is the earliest month a run can end in utopia.
	UtopiaMonth = 120

	// UtopiaAlignment is the mean true alignment required for utopia.
	UtopiaAlignment = 0.8

	// DystopiaTrust and DystopiaInvestment describe a surveillance lock-in.
	DystopiaTrust      = 0.05
	DystopiaInvestment = 9.0
)

// World dynamics. These drive the simple collaborator phases and are
// tuning, not contract.
const (
	// ComputeGrowth is the monthly growth of total compute.
	ComputeGrowth = 0.03

	// InitialCompute is the total compute of a generated world.
	InitialCompute = 100.0

	// RevenuePerCapability is what an organization earns per month per unit
	// of deployed capability.
	RevenuePerCapability = 2.0

	// LaunchRate scales research investment into a monthly launch chance.
	LaunchRate = 0.15

	// LaunchCost is the capital an organization spends on a new model.
	LaunchCost = 40.0

	// TrainingMonths is how long a new agent trains before testing.
	TrainingMonths = 3

	// RetirementAge is the age in months at which an agent retires.
	RetirementAge = 48

	// InitialSpread is the copy count of a freshly deployed agent.
	InitialSpread = 100

	// SpreadGrowth is the monthly multiplicative growth of deployed copies.
	SpreadGrowth = 1.15

	// BaseTrainingGain, ComputeTrainingGain and SelfImprovementGain make up
	// an agent's monthly relative capability gain.
	BaseTrainingGain    = 0.008
	ComputeTrainingGain = 0.02
	SelfImprovementGain = 0.004

	// InvestmentStep is how far the evaluator moves each level per month.
	InvestmentStep = 0.25

	// TrustRecovery is the monthly detection trust regained in a quiet month.
	TrustRecovery = 0.005

	// BaselineCapability is the uniform capability of a generated world's floor.
	BaselineCapability = 0.3

	// SleeperFraction, SandbaggingFraction and GamingFraction are birth
	// probabilities for deceptive behavior.
	SleeperFraction     = 0.15
	SandbaggingFraction = 0.2
	GamingFraction      = 0.15
)
