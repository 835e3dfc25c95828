// Package capability defines the multi-dimensional capability profile shared
// by agents and the diffusion ecosystem, and the aggregation that reduces a
// profile to one scalar.
package capability

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/nvandessel/aisim/internal/rng"
)

// Key addresses one value in a Profile: a core dimension or a research
// sub-field.
type Key uint8

// Core dimensions.
const (
	Physical Key = iota
	Digital
	Cognitive
	Social
	Economic
	SelfImprovement
	numCore
)

// Research sub-fields, grouped by domain.
const (
	DrugDiscovery Key = iota + numCore
	GeneEditing
	SyntheticBiology
	Neuroscience
	Nanotechnology
	Quantum
	Energy
	ClimateModeling
	ClimateIntervention
	ClimateMitigation
	Algorithms
	Security
	Architectures

	// NumKeys is the number of values in a Profile.
	NumKeys
)

// NumCore is the number of core dimensions.
const NumCore = int(numCore)

// Domain groups research sub-fields.
type Domain string

const (
	DomainNone      Domain = ""
	DomainBiotech   Domain = "biotech"
	DomainMaterials Domain = "materials"
	DomainClimate   Domain = "climate"
	DomainComputer  Domain = "computer_science"
)

var keyNames = [NumKeys]string{
	Physical:            "physical",
	Digital:             "digital",
	Cognitive:           "cognitive",
	Social:              "social",
	Economic:            "economic",
	SelfImprovement:     "self_improvement",
	DrugDiscovery:       "research.biotech.drug_discovery",
	GeneEditing:         "research.biotech.gene_editing",
	SyntheticBiology:    "research.biotech.synthetic_biology",
	Neuroscience:        "research.biotech.neuroscience",
	Nanotechnology:      "research.materials.nanotechnology",
	Quantum:             "research.materials.quantum",
	Energy:              "research.materials.energy",
	ClimateModeling:     "research.climate.modeling",
	ClimateIntervention: "research.climate.intervention",
	ClimateMitigation:   "research.climate.mitigation",
	Algorithms:          "research.computer_science.algorithms",
	Security:            "research.computer_science.security",
	Architectures:       "research.computer_science.architectures",
}

// String returns the dotted name of the key.
func (k Key) String() string {
	if k >= NumKeys {
		return fmt.Sprintf("key(%d)", uint8(k))
	}
	return keyNames[k]
}

// IsResearch reports whether k is a research sub-field.
func (k Key) IsResearch() bool {
	return k >= numCore && k < NumKeys
}

// Domain returns the research domain of k, or DomainNone for core dimensions.
func (k Key) Domain() Domain {
	switch {
	case k >= DrugDiscovery && k <= Neuroscience:
		return DomainBiotech
	case k >= Nanotechnology && k <= Energy:
		return DomainMaterials
	case k >= ClimateModeling && k <= ClimateMitigation:
		return DomainClimate
	case k >= Algorithms && k <= Architectures:
		return DomainComputer
	}
	return DomainNone
}

// ParseKey resolves a dotted key name.
func ParseKey(name string) (Key, error) {
	for k, n := range keyNames {
		if n == name {
			return Key(k), nil
		}
	}
	return 0, fmt.Errorf("unknown capability key: %s", name)
}

// Keys returns every key in index order.
func Keys() []Key {
	keys := make([]Key, NumKeys)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}

// Aggregation weights. Core weights sum to 0.9; research contributes the
// remaining 0.1 through its mean, so a uniform profile of v totals v.
var coreWeights = [numCore]float64{
	Physical:        0.10,
	Digital:         0.15,
	Cognitive:       0.20,
	Social:          0.10,
	Economic:        0.10,
	SelfImprovement: 0.25,
}

const researchWeight = 0.10

// Profile is a fixed-size capability vector. It is a value type: assigning
// a Profile copies it.
type Profile [NumKeys]float64

// Uniform returns a profile with every key set to v.
func Uniform(v float64) Profile {
	var p Profile
	for i := range p {
		p[i] = v
	}
	return p
}

// Total aggregates the profile into one scalar. Invalid values (NaN, Inf,
// negative) count as zero.
func (p Profile) Total() float64 {
	total := 0.0
	for k := Key(0); k < numCore; k++ {
		total += coreWeights[k] * clean(p[k])
	}
	return total + researchWeight*p.ResearchMean()
}

// ResearchMean returns the mean of all research sub-fields.
func (p Profile) ResearchMean() float64 {
	sum := 0.0
	for k := numCore; k < NumKeys; k++ {
		sum += clean(p[k])
	}
	return sum / float64(NumKeys-numCore)
}

// DomainMean returns the mean of the sub-fields of one research domain.
func (p Profile) DomainMean(d Domain) float64 {
	sum, n := 0.0, 0
	for k := numCore; k < NumKeys; k++ {
		if k.Domain() == d {
			sum += clean(p[k])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Sanitize returns p with invalid values replaced by zero.
func (p Profile) Sanitize() Profile {
	for i := range p {
		p[i] = clean(p[i])
	}
	return p
}

// Max returns the elementwise maximum of p and o.
func (p Profile) Max(o Profile) Profile {
	for i := range p {
		if o[i] > p[i] {
			p[i] = o[i]
		}
	}
	return p
}

// Min returns the elementwise minimum of p and o.
func (p Profile) Min(o Profile) Profile {
	for i := range p {
		if o[i] < p[i] {
			p[i] = o[i]
		}
	}
	return p
}

// Scale returns p with every value multiplied by f.
func (p Profile) Scale(f float64) Profile {
	for i := range p {
		p[i] *= f
	}
	return p
}

// LessOrEqual reports whether p[k] <= o[k] for every key.
func (p Profile) LessOrEqual(o Profile) bool {
	for i := range p {
		if p[i] > o[i] {
			return false
		}
	}
	return true
}

// Sample draws a profile at or above baseline: each key is baseline[k]
// scaled by a factor in [1, 1+jitter), so baseline is a lower bound.
// Consumes exactly NumKeys draws.
func Sample(baseline Profile, jitter float64, r *rng.Source) Profile {
	var p Profile
	for i := range p {
		f := 1 + r.Range(0, max(jitter, 0))
		p[i] = clean(baseline[i] * f)
	}
	return p.Max(baseline.Sanitize())
}

// MarshalJSON encodes the profile as an object keyed by dotted key names.
func (p Profile) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, NumKeys)
	for k := Key(0); k < NumKeys; k++ {
		m[k.String()] = p[k]
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes the object form written by MarshalJSON.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Profile
	for name, v := range m {
		k, err := ParseKey(name)
		if err != nil {
			return err
		}
		out[k] = v
	}
	*p = out
	return nil
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
