// Package rng provides the seeded pseudo-random source that drives a
// simulation run.
//
// Every method documents how many draws it consumes. Reproducibility of a
// run depends on the exact number and order of draws, not on wall-clock
// time or on anything else in the process, so callers on branches that do
// not need a value still have to consume the same count (see Skip).
package rng

// Linear congruential recurrence constants (Numerical Recipes).
const (
	multiplier = 1664525
	increment  = 1013904223
	modulus    = 1 << 32
)

// Source is a deterministic 32-bit linear congruential generator.
// A Source is not safe for concurrent use; each run owns its own.
type Source struct {
	seed  uint32
	draws uint64
}

// New creates a Source from a seed. Only the low 32 bits are used.
func New(seed int64) *Source {
	return &Source{seed: uint32(seed)}
}

// Seed returns the current internal seed.
func (s *Source) Seed() uint32 {
	return s.seed
}

// Draws returns how many draws the source has produced since construction.
func (s *Source) Draws() uint64 {
	return s.draws
}

// Next advances the seed and returns a value in [0,1). One draw.
func (s *Source) Next() float64 {
	s.seed = s.seed*multiplier + increment
	s.draws++
	return float64(s.seed) / modulus
}

// Range returns a value in [lo,hi). One draw.
func (s *Source) Range(lo, hi float64) float64 {
	return lo + s.Next()*(hi-lo)
}

// Chance reports whether an event with probability p happens. One draw,
// also when p <= 0 or p >= 1.
func (s *Source) Chance(p float64) bool {
	return s.Next() < p
}

// Intn returns an int in [0,n). One draw. Returns 0 when n <= 0.
func (s *Source) Intn(n int) int {
	v := s.Next()
	if n <= 0 {
		return 0
	}
	i := int(v * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Skip consumes exactly n draws and discards them.
func (s *Source) Skip(n int) {
	for i := 0; i < n; i++ {
		s.Next()
	}
}

// Choose returns a uniformly chosen element of items. One draw, also for
// an empty slice, in which case the zero value and false are returned.
func Choose[T any](s *Source, items []T) (T, bool) {
	i := s.Intn(len(items))
	if len(items) == 0 {
		var zero T
		return zero, false
	}
	return items[i], true
}
