package constants

// Band is a range of phase order keys. Phases in a lower band always run
// before phases in a higher band within one tick.
type Band int

const (
	BandCompute       Band = 100
	BandOrganizations Band = 200
	BandLifecycle     Band = 300
	BandActions       Band = 400
	BandBreakthroughs Band = 500
	BandBenchmark     Band = 600
	BandCrisis        Band = 700
	BandDiffusion     Band = 800
	BandBookkeeping   Band = 900
)

// Bands lists every band in execution order.
var Bands = []Band{
	BandCompute,
	BandOrganizations,
	BandLifecycle,
	BandActions,
	BandBreakthroughs,
	BandBenchmark,
	BandCrisis,
	BandDiffusion,
	BandBookkeeping,
}

// BandOf returns the band an order key falls into.
func BandOf(order int) Band {
	return Band(order / 100 * 100)
}

// Valid returns true if the band is a recognized value.
func (b Band) Valid() bool {
	switch b {
	case BandCompute, BandOrganizations, BandLifecycle, BandActions, BandBreakthroughs,
		BandBenchmark, BandCrisis, BandDiffusion, BandBookkeeping:
		return true
	}
	return false
}

// String returns the band name.
func (b Band) String() string {
	switch b {
	case BandCompute:
		return "compute"
	case BandOrganizations:
		return "organizations"
	case BandLifecycle:
		return "lifecycle"
	case BandActions:
		return "actions"
	case BandBreakthroughs:
		return "breakthroughs"
	case BandBenchmark:
		return "benchmark"
	case BandCrisis:
		return "crisis"
	case BandDiffusion:
		return "diffusion"
	case BandBookkeeping:
		return "bookkeeping"
	}
	return "unknown"
}
