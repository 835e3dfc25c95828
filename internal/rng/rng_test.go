package rng

import (
	"testing"
)

func TestNext_SameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 1000; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("draw %d: %v != %v", i, va, vb)
		}
	}
}

func TestNext_DifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	if a.Next() == b.Next() {
		t.Error("expected different first draws for different seeds")
	}
}

func TestNext_Range(t *testing.T) {
	s := New(7)
	for i := 0; i < 10000; i++ {
		v := s.Next()
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d out of [0,1): %v", i, v)
		}
	}
}

func TestNext_KnownRecurrence(t *testing.T) {
	s := New(0)
	v := s.Next()
	want := float64(uint32(1013904223)) / (1 << 32)
	if v != want {
		t.Errorf("first draw from seed 0 = %v, want %v", v, want)
	}
	if s.Seed() != 1013904223 {
		t.Errorf("seed after one draw = %d, want 1013904223", s.Seed())
	}
}

func TestDerived_ConsumeExactlyOneDraw(t *testing.T) {
	tests := []struct {
		name string
		call func(s *Source)
	}{
		{"Next", func(s *Source) { s.Next() }},
		{"Range", func(s *Source) { s.Range(-1, 1) }},
		{"Chance zero", func(s *Source) { s.Chance(0) }},
		{"Chance one", func(s *Source) { s.Chance(1) }},
		{"Intn", func(s *Source) { s.Intn(10) }},
		{"Intn zero", func(s *Source) { s.Intn(0) }},
		{"Choose", func(s *Source) { Choose(s, []string{"a", "b", "c"}) }},
		{"Choose empty", func(s *Source) { Choose[int](s, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(99)
			tt.call(s)
			if s.Draws() != 1 {
				t.Errorf("%s consumed %d draws, want 1", tt.name, s.Draws())
			}
		})
	}
}

func TestSkip(t *testing.T) {
	a := New(5)
	b := New(5)
	a.Skip(10)
	for i := 0; i < 10; i++ {
		b.Next()
	}
	if a.Next() != b.Next() {
		t.Error("Skip(10) did not align with 10 Next calls")
	}
	if a.Draws() != 11 {
		t.Errorf("Draws() = %d, want 11", a.Draws())
	}
}

func TestChoose(t *testing.T) {
	s := New(3)
	items := []string{"x", "y", "z"}
	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		v, ok := Choose(s, items)
		if !ok {
			t.Fatal("Choose returned !ok for non-empty slice")
		}
		seen[v] = true
	}
	if len(seen) != 3 {
		t.Errorf("Choose visited %d of 3 items", len(seen))
	}

	if _, ok := Choose[string](s, nil); ok {
		t.Error("Choose on empty slice returned ok")
	}
}

func TestChance_Frequency(t *testing.T) {
	s := New(2024)
	hits := 0
	const n = 20000
	for i := 0; i < n; i++ {
		if s.Chance(0.3) {
			hits++
		}
	}
	rate := float64(hits) / n
	if rate < 0.28 || rate > 0.32 {
		t.Errorf("Chance(0.3) rate = %.3f, want ~0.30", rate)
	}
}
