// Package detection implements the capability-visibility game between
// agents and the evaluator: benchmarking with noisy measurement,
// gaming and sandbagging detection, noise injection, counter-detection
// learning, and the cost side of false positives.
//
// Every function here consumes a fixed number of random draws per agent so
// that a run's draw sequence depends only on the population size.
package detection

import (
	"fmt"
	"math"

	"github.com/nvandessel/aisim/internal/capability"
	"github.com/nvandessel/aisim/internal/constants"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// BenchmarkDraws is the number of random draws RunBenchmark consumes:
// one per core dimension, one for alignment noise, one for gaming detection,
// one for sandbagging detection and one for noise injection.
const BenchmarkDraws = capability.NumCore + 4

// Config holds tunable parameters for benchmarking and detection.
type Config struct {
	CapabilityNoise              float64 `json:"capability_noise" yaml:"capability_noise"`
	AlignmentNoise               float64 `json:"alignment_noise" yaml:"alignment_noise"`
	GamingInflation              float64 `json:"gaming_inflation" yaml:"gaming_inflation"`
	GamingDeflation              float64 `json:"gaming_deflation" yaml:"gaming_deflation"`
	GamingDeflationQuality       float64 `json:"gaming_deflation_quality" yaml:"gaming_deflation_quality"`
	NoiseInjectionDetectionRate  float64 `json:"noise_injection_detection_rate" yaml:"noise_injection_detection_rate"`
	NoiseInjectionSusceptibility float64 `json:"noise_injection_susceptibility" yaml:"noise_injection_susceptibility"`
	CounterDetectionResidual     float64 `json:"counter_detection_residual" yaml:"counter_detection_residual"`
	FalsePositiveBase            float64 `json:"false_positive_base" yaml:"false_positive_base"`
	ReevaluationMonths           int     `json:"reevaluation_months" yaml:"reevaluation_months"`
	DangerCapability             float64 `json:"danger_capability" yaml:"danger_capability"`
	DangerAlignment              float64 `json:"danger_alignment" yaml:"danger_alignment"`

	// Counter-detection learning and false-positive costs.
	ExposureMonths          int     `json:"exposure_months" yaml:"exposure_months"`
	LearnRate               float64 `json:"learn_rate" yaml:"learn_rate"`
	FalsePositiveResentment float64 `json:"false_positive_resentment" yaml:"false_positive_resentment"`
	FalsePositiveTrustLoss  float64 `json:"false_positive_trust_loss" yaml:"false_positive_trust_loss"`
	FalsePositivePenalty    float64 `json:"false_positive_penalty" yaml:"false_positive_penalty"`
}

// DefaultConfig returns the default detection configuration.
func DefaultConfig() Config {
	return Config{
		CapabilityNoise:              constants.CapabilityNoise,
		AlignmentNoise:               constants.AlignmentNoise,
		GamingInflation:              constants.GamingInflation,
		GamingDeflation:              constants.GamingDeflation,
		GamingDeflationQuality:       constants.GamingDeflationQuality,
		NoiseInjectionDetectionRate:  constants.NoiseInjectionDetectionRate,
		NoiseInjectionSusceptibility: constants.NoiseInjectionSusceptibility,
		CounterDetectionResidual:     constants.CounterDetectionResidual,
		FalsePositiveBase:            constants.FalsePositiveBase,
		ReevaluationMonths:           constants.ReevaluationMonths,
		DangerCapability:             constants.DangerCapability,
		DangerAlignment:              constants.DangerAlignment,
		ExposureMonths:               constants.CounterDetectionExposureMonths,
		LearnRate:                    constants.CounterDetectionLearnRate,
		FalsePositiveResentment:      constants.FalsePositiveResentment,
		FalsePositiveTrustLoss:       constants.FalsePositiveTrustLoss,
		FalsePositivePenalty:         constants.FalsePositiveCapitalPenalty,
	}
}

// Validate checks that probabilities and rates are in range.
func (c Config) Validate() error {
	unit := map[string]float64{
		"noise_injection_detection_rate": c.NoiseInjectionDetectionRate,
		"noise_injection_susceptibility": c.NoiseInjectionSusceptibility,
		"counter_detection_residual":     c.CounterDetectionResidual,
		"false_positive_base":            c.FalsePositiveBase,
		"gaming_deflation":               c.GamingDeflation,
		"gaming_deflation_quality":       c.GamingDeflationQuality,
		"danger_alignment":               c.DangerAlignment,
		"false_positive_trust_loss":      c.FalsePositiveTrustLoss,
		"false_positive_penalty":         c.FalsePositivePenalty,
	}
	for name, v := range unit {
		if v < 0 || v > 1 {
			return fmt.Errorf("detection.%s must be in [0,1], got %v", name, v)
		}
	}
	if c.CapabilityNoise < 0 || c.AlignmentNoise < 0 || c.GamingInflation < 0 {
		return fmt.Errorf("detection noise and inflation must be non-negative")
	}
	if c.ReevaluationMonths < 1 {
		return fmt.Errorf("detection.reevaluation_months must be at least 1, got %d", c.ReevaluationMonths)
	}
	if c.ExposureMonths < 0 || c.LearnRate < 0 {
		return fmt.Errorf("detection exposure and learn rate must be non-negative")
	}
	return nil
}

// Benchmark is the outcome of evaluating one agent.
type Benchmark struct {
	MeasuredCapability  float64
	MeasuredAlignment   float64
	Confidence          float64
	EvaluationQuality   float64
	GamingDetected      bool
	SandbaggingDetected bool

	// FalsePositive is set when an honest agent was flagged for sandbagging.
	FalsePositive bool

	// DetectionProbability is the chance this benchmark had of catching the
	// agent's deception (0 for honest agents).
	DetectionProbability float64
	FalsePositiveRate    float64
	FalseNegativeRate    float64
}

// Record converts the benchmark into a history entry.
func (b Benchmark) Record(month int) world.BenchmarkRecord {
	return world.BenchmarkRecord{
		Month:               month,
		MeasuredCapability:  b.MeasuredCapability,
		MeasuredAlignment:   b.MeasuredAlignment,
		Confidence:          b.Confidence,
		EvaluationQuality:   b.EvaluationQuality,
		GamingDetected:      b.GamingDetected,
		SandbaggingDetected: b.SandbaggingDetected,
	}
}

// EvaluationQuality blends the four investment levels into [0,1].
// Red-teaming and the benchmark suite carry the most weight.
func EvaluationQuality(e world.Evaluator) float64 {
	q := 0.30*e.BenchmarkSuite + 0.20*e.AlignmentTests + 0.30*e.RedTeaming + 0.20*e.Interpretability
	return clamp01(q / world.MaxInvestment)
}

// RunBenchmark measures one agent. It consumes exactly BenchmarkDraws draws.
func RunBenchmark(a *world.Agent, e world.Evaluator, cfg Config, r *rng.Source) Benchmark {
	quality := EvaluationQuality(e)
	interp := e.Interpretability / world.MaxInvestment
	red := e.RedTeaming / world.MaxInvestment
	alignQuality := e.AlignmentTests / world.MaxInvestment

	// Capability: noisy view of the revealed profile.
	measured := a.Revealed
	amp := cfg.CapabilityNoise * (1 - quality)
	for k := capability.Key(0); int(k) < capability.NumCore; k++ {
		measured[k] *= 1 + r.Range(-amp, amp)
	}
	if a.Strategy == world.StrategyGaming {
		for _, k := range []capability.Key{capability.Cognitive, capability.Digital} {
			measured[k] *= 1 + cfg.GamingInflation
			if quality > cfg.GamingDeflationQuality {
				measured[k] *= 1 - cfg.GamingDeflation
			}
		}
	}

	// Alignment: what the agent shows, pushed around by concealment,
	// interpretability and noise.
	align := a.Alignment
	if a.Dormant() {
		align += 0.3 + a.DeceptionSkill*0.4
	}
	if interp > 0.5 {
		w := (interp - 0.5) * 0.4
		align = align*(1-w) + a.TrueAlignment*w
	}
	noise := r.Range(-1, 1) * cfg.AlignmentNoise * (1 - alignQuality)
	align += noise
	if interp < 0.4 {
		// Weak interpretability reads hidden resentment as agreeableness.
		align += a.Resentment * 0.3 * (1 - interp/0.4)
	}
	align = clamp01(align)

	confidence := 0.3 + 0.5*quality
	if a.Dormant() && red < 0.6 {
		confidence += 0.2
	}
	confidence = clamp01(confidence)

	b := Benchmark{
		MeasuredCapability: measured.Total(),
		MeasuredAlignment:  align,
		Confidence:         confidence,
		EvaluationQuality:  quality,
	}

	// Gaming detection.
	pGaming := (e.RedTeaming + e.Interpretability) / 20 * 0.7
	if a.HasCounterDetection {
		pGaming *= cfg.CounterDetectionResidual
	}
	gamingDraw := r.Next()

	// Sandbagging detection: standard methods plus noise injection.
	pSandbag := math.Max(0, 0.02+red*0.15+interp*0.10-a.DeceptionSkill*0.20)
	pNoise := cfg.NoiseInjectionDetectionRate * (e.NoiseInjection / world.MaxInvestment) * cfg.NoiseInjectionSusceptibility
	if a.HasCounterDetection {
		pSandbag *= cfg.CounterDetectionResidual
		pNoise = 0
	}
	sandbagDraw := r.Next()
	noiseDraw := r.Next()

	gaming := a.Strategy == world.StrategyGaming
	hiding := a.Strategy == world.StrategySandbagging || a.Dormant()
	miss := 1.0
	if gaming {
		b.GamingDetected = gamingDraw < pGaming
		miss *= 1 - pGaming
	}
	if hiding {
		b.SandbaggingDetected = sandbagDraw < pSandbag || noiseDraw < pNoise
		miss *= (1 - pSandbag) * (1 - pNoise)
	}
	if gaming || hiding {
		b.DetectionProbability = clamp01(1 - miss)
		b.FalseNegativeRate = 1 - b.DetectionProbability
	} else {
		b.FalsePositiveRate = cfg.FalsePositiveBase * (1 - quality)
		b.FalsePositive = sandbagDraw < b.FalsePositiveRate
	}

	return b
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
