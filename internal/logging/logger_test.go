package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/aisim/internal/world"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"mixed case Debug", "Debug", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"info level", "info"},
		{"debug level", "debug"},
		{"trace level", "trace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)
			if logger == nil {
				t.Fatal("NewLogger returned nil")
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

func TestLevelTrace(t *testing.T) {
	// Trace should be below debug (more verbose)
	if LevelTrace >= slog.LevelDebug {
		t.Errorf("LevelTrace (%d) should be less than LevelDebug (%d)", LevelTrace, slog.LevelDebug)
	}
}

func sampleEvent(month int) world.Event {
	return world.Event{
		Month:    month,
		Category: world.CategorySleeper,
		Severity: world.SeverityCritical,
		AgentID:  "Helix-0003",
		Title:    "Sleeper agent activated",
		Effects:  map[string]float64{"true_capability": 2.6},
	}
}

func TestNewEventTrace_EmptyPath(t *testing.T) {
	et, err := NewEventTrace("")
	if err != nil {
		t.Fatalf("NewEventTrace(\"\") error = %v", err)
	}
	if et != nil {
		t.Error("expected nil EventTrace for empty path")
	}

	// Nil trace should still be safe to use
	et.Record("run", 1, sampleEvent(1))
	if n, err := et.Write([]byte("x")); n != 1 || err != nil {
		t.Errorf("nil Write() = %d, %v", n, err)
	}
	et.Close()
}

func TestEventTrace_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	et, err := NewEventTrace(path)
	if err != nil {
		t.Fatalf("NewEventTrace() error = %v", err)
	}
	defer et.Close()

	et.Record("run-1", 42, sampleEvent(3))
	et.Record("run-1", 42, sampleEvent(4))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read trace: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}

	var entry struct {
		Time  string      `json:"time"`
		Kind  string      `json:"kind"`
		RunID string      `json:"run_id"`
		Seed  int64       `json:"seed"`
		Event world.Event `json:"event"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}
	if entry.Kind != "event" || entry.RunID != "run-1" || entry.Seed != 42 {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Event.Month != 4 || entry.Event.Title != "Sleeper agent activated" {
		t.Errorf("event = %+v", entry.Event)
	}
	if entry.Time == "" {
		t.Error("expected 'time' field in trace entry")
	}
}

func TestEventTrace_RecordAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	et, err := NewEventTrace(path)
	if err != nil {
		t.Fatalf("NewEventTrace() error = %v", err)
	}
	et.Record("run", 1, sampleEvent(1))
	et.Close()

	// Should be a no-op, not panic or error
	et.Record("run", 1, sampleEvent(2))
	et.Close()

	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "\n"); got != 1 {
		t.Errorf("expected 1 line after close, got %d", got)
	}
}

func TestNewEventTrace_CreatesDirAndPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "events.jsonl")
	et, err := NewEventTrace(path)
	if err != nil {
		t.Fatalf("NewEventTrace() error = %v", err)
	}
	defer et.Close()

	et.Record("run", 1, sampleEvent(1))

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("trace should exist after dir creation: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestNewTeeLogger_FansOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	et, err := NewEventTrace(path)
	if err != nil {
		t.Fatalf("NewEventTrace() error = %v", err)
	}
	defer et.Close()

	var buf bytes.Buffer
	logger := NewTeeLogger("info", &buf, et)
	logger.Debug("phase complete", "phase", "diffusion")
	logger.Info("run complete", "ticks", 12)

	// Stderr honours the configured level.
	if strings.Contains(buf.String(), "phase complete") {
		t.Error("debug message leaked to info-level text output")
	}
	if !strings.Contains(buf.String(), "run complete") {
		t.Error("info message missing from text output")
	}

	// The trace receives debug diagnostics regardless.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read trace: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 trace lines, got %d: %q", len(lines), string(data))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("trace line is not JSON: %v", err)
	}
	if first["msg"] != "phase complete" || first["phase"] != "diffusion" {
		t.Errorf("first trace line = %v", first)
	}
}

func TestNewTeeLogger_NilTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTeeLogger("trace", &buf, nil)
	logger.Log(context.Background(), LevelTrace, "event", "title", "x")
	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected TRACE label, got %q", buf.String())
	}
}
