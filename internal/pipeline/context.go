package pipeline

import (
	"sort"

	"github.com/nvandessel/aisim/internal/utils"
)

// Failure records a phase that errored or panicked during a tick.
type Failure struct {
	Month int    `json:"month"`
	Phase string `json:"phase"`
	Order int    `json:"order"`
	Error string `json:"error"`
	Panic bool   `json:"panic"`
}

// TickContext carries per-tick data between phases.
type TickContext struct {
	Month    int
	Metadata map[string]any
	Failures []Failure

	// Ledger outlives the tick; it belongs to the run.
	Ledger *CrisisLedger
}

// NewTickContext creates an empty context for month.
func NewTickContext(month int, ledger *CrisisLedger) *TickContext {
	return &TickContext{
		Month:    month,
		Metadata: make(map[string]any),
		Ledger:   ledger,
	}
}

// Float returns a numeric metadata value, or 0 if absent.
func (tc *TickContext) Float(key string) float64 {
	return utils.GetFloat64(tc.Metadata, key, 0)
}

// String returns a string metadata value, or "" if absent.
func (tc *TickContext) String(key string) string {
	return utils.GetString(tc.Metadata, key, "")
}

func (tc *TickContext) merge(m map[string]any) {
	for k, v := range m {
		tc.Metadata[k] = v
	}
}

// CrisisLedger remembers which one-time crises have fired in a run.
// A nil ledger never fires.
type CrisisLedger struct {
	fired map[string]int
}

// NewCrisisLedger creates an empty ledger.
func NewCrisisLedger() *CrisisLedger {
	return &CrisisLedger{fired: make(map[string]int)}
}

// Fire marks the crisis as fired at month and reports whether this was the
// first time.
func (l *CrisisLedger) Fire(name string, month int) bool {
	if l == nil {
		return false
	}
	if _, ok := l.fired[name]; ok {
		return false
	}
	l.fired[name] = month
	return true
}

// Fired returns the month a crisis fired and whether it has.
func (l *CrisisLedger) Fired(name string) (int, bool) {
	if l == nil {
		return 0, false
	}
	m, ok := l.fired[name]
	return m, ok
}

// Names returns the fired crises sorted by name.
func (l *CrisisLedger) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, 0, len(l.fired))
	for n := range l.fired {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the ledger.
func (l *CrisisLedger) Clone() *CrisisLedger {
	if l == nil {
		return nil
	}
	c := NewCrisisLedger()
	for k, v := range l.fired {
		c.fired[k] = v
	}
	return c
}
