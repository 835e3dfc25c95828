// Package logging provides leveled logging and event tracing for aisim.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - An EventTrace for structured JSONL event records
//
// NewTeeLogger fans one logger out to both, so debug-level phase
// diagnostics land next to the events they explain.
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	slogmulti "github.com/samber/slog-multi"

	"github.com/nvandessel/aisim/internal/world"
)

// LevelTrace is a custom slog level below Debug for per-event logging.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok && l == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
}

// NewLogger creates a leveled slog.Logger writing text to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, handlerOptions(ParseLevel(level))))
}

// NewTeeLogger creates a logger that writes text to w at the given level
// and, when trace is non-nil, JSON records to the trace at debug level or
// below.
func NewTeeLogger(level string, w io.Writer, trace *EventTrace) *slog.Logger {
	lvl := ParseLevel(level)
	text := slog.NewTextHandler(w, handlerOptions(lvl))
	if trace == nil {
		return slog.New(text)
	}

	traceLevel := min(lvl, slog.LevelDebug)
	return slog.New(slogmulti.Fanout(
		text,
		slog.NewJSONHandler(trace, handlerOptions(traceLevel)),
	))
}

// EventTrace writes simulation events as JSONL. It is safe for concurrent
// use. A nil EventTrace is safe to use; all methods are no-ops on nil
// receiver.
type EventTrace struct {
	mu   sync.Mutex
	file *os.File
}

// NewEventTrace opens path for append. An empty path returns nil, nil.
func NewEventTrace(path string) (*EventTrace, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &EventTrace{file: f}, nil
}

// Write appends raw bytes, letting an EventTrace back a slog handler.
// Safe to call on nil receiver.
func (et *EventTrace) Write(p []byte) (int, error) {
	if et == nil {
		return len(p), nil
	}
	et.mu.Lock()
	defer et.mu.Unlock()
	if et.file == nil {
		return len(p), nil
	}
	return et.file.Write(p)
}

// traceRecord is one event line.
type traceRecord struct {
	Time  string      `json:"time"`
	Kind  string      `json:"kind"`
	RunID string      `json:"run_id,omitempty"`
	Seed  int64       `json:"seed"`
	Event world.Event `json:"event"`
}

// Record writes one event as a single JSONL line tagged with its run.
// Safe to call on nil receiver.
func (et *EventTrace) Record(runID string, seed int64, ev world.Event) {
	if et == nil {
		return
	}
	data, err := json.Marshal(traceRecord{
		Time:  time.Now().UTC().Format(time.RFC3339Nano),
		Kind:  "event",
		RunID: runID,
		Seed:  seed,
		Event: ev,
	})
	if err != nil {
		return
	}
	_, _ = et.Write(append(data, '\n'))
}

// Close closes the underlying file. Safe to call on nil receiver.
func (et *EventTrace) Close() {
	if et == nil {
		return
	}

	et.mu.Lock()
	defer et.mu.Unlock()

	if et.file != nil {
		et.file.Close()
		et.file = nil
	}
}
