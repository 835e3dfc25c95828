package constants

import "testing"

func TestBand_Valid(t *testing.T) {
	tests := []struct {
		name string
		band Band
		want bool
	}{
		{
			name: "compute is valid",
			band: BandCompute,
			want: true,
		},
		{
			name: "bookkeeping is valid",
			band: BandBookkeeping,
			want: true,
		},
		{
			name: "zero is invalid",
			band: Band(0),
			want: false,
		},
		{
			name: "off-grid value is invalid",
			band: Band(150),
			want: false,
		},
		{
			name: "past bookkeeping is invalid",
			band: Band(1000),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.band.Valid(); got != tt.want {
				t.Errorf("Band(%d).Valid() = %v, want %v", tt.band, got, tt.want)
			}
		})
	}
}

func TestBandOf(t *testing.T) {
	tests := []struct {
		order int
		want  Band
	}{
		{100, BandCompute},
		{199, BandCompute},
		{210, BandOrganizations},
		{610, BandBenchmark},
		{720, BandCrisis},
		{900, BandBookkeeping},
	}
	for _, tt := range tests {
		if got := BandOf(tt.order); got != tt.want {
			t.Errorf("BandOf(%d) = %v, want %v", tt.order, got, tt.want)
		}
	}
}

func TestBands_Ascending(t *testing.T) {
	for i := 1; i < len(Bands); i++ {
		if Bands[i] <= Bands[i-1] {
			t.Errorf("Bands[%d]=%d not after Bands[%d]=%d", i, Bands[i], i-1, Bands[i-1])
		}
	}
	if len(Bands) != 9 {
		t.Errorf("len(Bands) = %d, want 9", len(Bands))
	}
}

func TestBand_String(t *testing.T) {
	for _, b := range Bands {
		if b.String() == "unknown" {
			t.Errorf("band %d has no name", b)
		}
	}
	if Band(5).String() != "unknown" {
		t.Error("invalid band should be unknown")
	}
}
