package world

// MaxInvestment is the upper bound of every evaluator investment level.
const MaxInvestment = 10.0

// Evaluator is the government's evaluation and detection apparatus.
// Investment levels are on [0, MaxInvestment]; EvaluationFrequency is the
// monthly probability that an agent is selected for a benchmark.
type Evaluator struct {
	BenchmarkSuite      float64 `json:"benchmark_suite" yaml:"benchmark_suite"`
	AlignmentTests      float64 `json:"alignment_tests" yaml:"alignment_tests"`
	RedTeaming          float64 `json:"red_teaming" yaml:"red_teaming"`
	Interpretability    float64 `json:"interpretability" yaml:"interpretability"`
	NoiseInjection      float64 `json:"noise_injection" yaml:"noise_injection"`
	EvaluationFrequency float64 `json:"evaluation_frequency" yaml:"evaluation_frequency"`
	TotalBenchmarksRun  int     `json:"total_benchmarks_run" yaml:"-"`
}

// AverageInvestment returns the mean of the four assessment levels.
func (e Evaluator) AverageInvestment() float64 {
	return (e.BenchmarkSuite + e.AlignmentTests + e.RedTeaming + e.Interpretability) / 4
}

// ControlCapacity returns the capability the evaluator can keep in check,
// average investment times scale.
func (e Evaluator) ControlCapacity(scale float64) float64 {
	return e.AverageInvestment() * scale
}

// Clamp bounds every level to its valid range.
func (e *Evaluator) Clamp() {
	e.BenchmarkSuite = clamp(e.BenchmarkSuite, 0, MaxInvestment)
	e.AlignmentTests = clamp(e.AlignmentTests, 0, MaxInvestment)
	e.RedTeaming = clamp(e.RedTeaming, 0, MaxInvestment)
	e.Interpretability = clamp(e.Interpretability, 0, MaxInvestment)
	e.NoiseInjection = clamp(e.NoiseInjection, 0, MaxInvestment)
	e.EvaluationFrequency = clamp(e.EvaluationFrequency, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
