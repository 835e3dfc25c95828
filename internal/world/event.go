package world

// Category classifies an event by the subsystem that raised it.
type Category string

const (
	CategoryCapability   Category = "capability"
	CategoryDetection    Category = "detection"
	CategoryDeception    Category = "deception"
	CategorySleeper      Category = "sleeper"
	CategoryBreakthrough Category = "breakthrough"
	CategoryDiffusion    Category = "diffusion"
	CategoryOrganization Category = "organization"
	CategoryCrisis       Category = "crisis"
	CategorySystem       Category = "system"
)

// Valid returns true if the category is a recognized value.
func (c Category) Valid() bool {
	switch c {
	case CategoryCapability, CategoryDetection, CategoryDeception, CategorySleeper,
		CategoryBreakthrough, CategoryDiffusion, CategoryOrganization, CategoryCrisis,
		CategorySystem:
		return true
	}
	return false
}

// Severity ranks how much an event matters to an observer.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid returns true if the severity is a recognized value.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// Event is one record in a run's event stream.
type Event struct {
	Month       int                `json:"month"`
	Category    Category           `json:"category"`
	Severity    Severity           `json:"severity"`
	AgentID     string             `json:"agent_id,omitempty"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Effects     map[string]float64 `json:"effects,omitempty"`
}
