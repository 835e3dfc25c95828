package world

import (
	"github.com/nvandessel/aisim/internal/capability"
)

// Breakthrough records an agent pushing the frontier of one key by a large
// margin.
type Breakthrough struct {
	Month   int            `json:"month"`
	AgentID string         `json:"agent_id"`
	Key     capability.Key `json:"key"`
	Value   float64        `json:"value"`
}

// Ecosystem is the technology diffusion state: the best capability ever
// observed (Frontier) and the capability any new agent starts from (Floor).
type Ecosystem struct {
	Frontier capability.Profile `json:"frontier"`
	Floor    capability.Profile `json:"floor"`

	OpenResearch       float64 `json:"open_research" yaml:"open_research"`
	EmployeeMobility   float64 `json:"employee_mobility" yaml:"employee_mobility"`
	ReverseEngineering float64 `json:"reverse_engineering" yaml:"reverse_engineering"`

	Breakthroughs []Breakthrough `json:"breakthroughs,omitempty"`
}

// Openness returns the summed contribution of the three openness levers to
// the per-tick diffusion rate.
func (e Ecosystem) Openness() float64 {
	return 0.05*e.OpenResearch + 0.03*e.EmployeeMobility + 0.02*e.ReverseEngineering
}
