package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nvandessel/aisim/internal/engine"
	"github.com/nvandessel/aisim/internal/outcome"
	"github.com/nvandessel/aisim/internal/store"
	"github.com/nvandessel/aisim/internal/world"
)

func testRun() (store.Run, []world.Event) {
	run := store.Run{
		ID:        "0b6f2c1e-8d4a-4c8e-9a57-3f0d1b2c3d4e",
		CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		Config:    engine.DefaultConfig(),
		Summary:   engine.Summary{Seed: 7, Outcome: outcome.Dystopia, Ticks: 40, TotalEvents: 2},
	}
	events := []world.Event{
		{Month: 3, Category: world.CategoryDetection, Severity: world.SeverityWarning, Title: "Gaming detected"},
		{Month: 9, Category: world.CategorySleeper, Severity: world.SeverityCritical, Title: "Sleeper agent activated",
			Effects: map[string]float64{"spread_count": 10000}},
	}
	return run, events
}

func TestExportRead_RoundTrip(t *testing.T) {
	for _, compress := range []bool{true, false} {
		t.Run(map[bool]string{true: "gzip", false: "plain"}[compress], func(t *testing.T) {
			run, events := testRun()
			path := filepath.Join(t.TempDir(), "sub", "run.json")

			h, err := Export(run, events, path, compress)
			if err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			if h.EventCount != 2 || h.RunID != run.ID || h.Compressed != compress {
				t.Errorf("Export() header = %+v", h)
			}
			if !strings.HasPrefix(h.Checksum, "sha256:") {
				t.Errorf("checksum = %q, want sha256: prefix", h.Checksum)
			}

			gotHeader, a, err := Read(path)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if gotHeader.Checksum != h.Checksum {
				t.Errorf("Read() checksum = %s, want %s", gotHeader.Checksum, h.Checksum)
			}
			if a.Run.ID != run.ID || a.Run.Summary.Outcome != outcome.Dystopia {
				t.Errorf("Read() run = %+v", a.Run)
			}
			if len(a.Events) != 2 || a.Events[1].Effects["spread_count"] != 10000 {
				t.Errorf("Read() events = %+v", a.Events)
			}
		})
	}
}

func TestExport_PlainPayloadIsReadableJSON(t *testing.T) {
	run, events := testRun()
	path := filepath.Join(t.TempDir(), "run.json")
	if _, err := Export(run, events, path, false); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.SplitN(string(data), "\n", 2)
	if len(lines) != 2 || !strings.HasPrefix(lines[1], `{"run":`) {
		t.Error("payload does not start with run JSON")
	}
}

func TestExport_FilePermissions(t *testing.T) {
	run, events := testRun()
	path := filepath.Join(t.TempDir(), "run.json.gz")
	if _, err := Export(run, events, path, true); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("archive permissions = %o, want 0600", perm)
	}
}

func TestRead_TamperedPayload(t *testing.T) {
	run, events := testRun()
	path := filepath.Join(t.TempDir(), "run.json")
	if _, err := Export(run, events, path, false); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), "Gaming detected", "Gaming detectex", 1)
	if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
		t.Fatal(err)
	}

	if err := VerifyChecksum(path); err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
		t.Errorf("VerifyChecksum() error = %v, want checksum mismatch", err)
	}
	if _, _, err := Read(path); err == nil {
		t.Error("Read() should fail on tampered payload")
	}
}

func TestReadHeader(t *testing.T) {
	run, events := testRun()
	path := filepath.Join(t.TempDir(), "run.json.gz")
	if _, err := Export(run, events, path, true); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader() error = %v", err)
	}
	if h.Version != FormatVersion || !h.Compressed || h.EventCount != 2 {
		t.Errorf("ReadHeader() = %+v", h)
	}
}

func TestReadHeader_UnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"version":99}`+"\n{}"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadHeader(path); err == nil {
		t.Error("ReadHeader() should reject unknown versions")
	}
}
