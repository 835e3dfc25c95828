package capability

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/nvandessel/aisim/internal/rng"
)

func TestTotal_Uniform(t *testing.T) {
	for _, v := range []float64{0, 0.3, 1, 2.6, 10} {
		got := Uniform(v).Total()
		if math.Abs(got-v) > 1e-9 {
			t.Errorf("Uniform(%v).Total() = %v, want %v", v, got, v)
		}
	}
}

func TestTotal_SelfImprovementWeightedHighest(t *testing.T) {
	var best Key
	bestTotal := -1.0
	for k := Key(0); k < numCore; k++ {
		var p Profile
		p[k] = 1
		if tot := p.Total(); tot > bestTotal {
			bestTotal = tot
			best = k
		}
	}
	if best != SelfImprovement {
		t.Errorf("highest weighted dimension = %s, want self_improvement", best)
	}
}

func TestTotal_InvalidValuesCoercedToZero(t *testing.T) {
	tests := []struct {
		name string
		v    float64
	}{
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
		{"negative", -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Uniform(1)
			p[Cognitive] = tt.v
			got := p.Total()
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Fatalf("Total() = %v, want finite", got)
			}
			want := 1 - coreWeights[Cognitive]
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("Total() = %v, want %v", got, want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	p := Uniform(2)
	p[Quantum] = math.NaN()
	p[Social] = -1
	s := p.Sanitize()
	if s[Quantum] != 0 || s[Social] != 0 {
		t.Errorf("Sanitize left invalid values: %v %v", s[Quantum], s[Social])
	}
	if s[Physical] != 2 {
		t.Errorf("Sanitize changed a valid value: %v", s[Physical])
	}
}

func TestMaxMin(t *testing.T) {
	a := Uniform(1)
	b := Uniform(1)
	a[Digital] = 3
	b[Physical] = 4

	mx := a.Max(b)
	if mx[Digital] != 3 || mx[Physical] != 4 || mx[Social] != 1 {
		t.Errorf("Max = %v", mx)
	}
	mn := a.Min(b)
	if mn[Digital] != 1 || mn[Physical] != 1 {
		t.Errorf("Min = %v", mn)
	}
	if !mn.LessOrEqual(mx) {
		t.Error("Min should be <= Max")
	}
	if a[Physical] != 1 {
		t.Error("Max mutated its receiver")
	}
}

func TestKeyDomain(t *testing.T) {
	tests := []struct {
		key  Key
		want Domain
	}{
		{Physical, DomainNone},
		{SelfImprovement, DomainNone},
		{DrugDiscovery, DomainBiotech},
		{Neuroscience, DomainBiotech},
		{Quantum, DomainMaterials},
		{ClimateMitigation, DomainClimate},
		{Architectures, DomainComputer},
	}
	for _, tt := range tests {
		if got := tt.key.Domain(); got != tt.want {
			t.Errorf("%s.Domain() = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestDomainSizes(t *testing.T) {
	counts := map[Domain]int{}
	for _, k := range Keys() {
		if k.IsResearch() {
			counts[k.Domain()]++
		}
	}
	if len(counts) != 4 {
		t.Fatalf("got %d research domains, want 4", len(counts))
	}
	for d, n := range counts {
		if n < 3 || n > 4 {
			t.Errorf("domain %s has %d sub-fields, want 3-4", d, n)
		}
	}
}

func TestParseKey(t *testing.T) {
	for _, k := range Keys() {
		got, err := ParseKey(k.String())
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKey(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if _, err := ParseKey("telepathy"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSample_DrawCountAndBounds(t *testing.T) {
	r := rng.New(11)
	base := Uniform(1)
	p := Sample(base, 0.2, r)
	if r.Draws() != uint64(NumKeys) {
		t.Errorf("Sample consumed %d draws, want %d", r.Draws(), NumKeys)
	}
	for k, v := range p {
		if v < 1 || v > 1.2 {
			t.Errorf("key %s = %v, outside [1, 1.2]", Key(k), v)
		}
	}
}

func TestSample_NeverBelowBaseline(t *testing.T) {
	base := Uniform(1.5)
	base[Security] = 0
	base[Quantum] = math.NaN()
	for seed := int64(1); seed <= 50; seed++ {
		p := Sample(base, 0.3, rng.New(seed))
		if !base.Sanitize().LessOrEqual(p) {
			t.Fatalf("seed %d: sample %v below baseline %v", seed, p, base)
		}
		if p[Security] != 0 || p[Quantum] != 0 {
			t.Errorf("seed %d: zero/invalid baseline keys should stay 0, got %v and %v", seed, p[Security], p[Quantum])
		}
	}

	r := rng.New(2)
	Sample(base, -1, r)
	if r.Draws() != uint64(NumKeys) {
		t.Errorf("negative jitter consumed %d draws, want %d", r.Draws(), NumKeys)
	}
}

func TestProfileJSON(t *testing.T) {
	p := Uniform(0.5)
	p[Security] = 1.25
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Profile
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != p {
		t.Errorf("JSON round trip changed profile: %v vs %v", got, p)
	}
}
