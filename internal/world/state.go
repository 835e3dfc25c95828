// Package world holds the simulation's shared state: the agent population,
// the evaluator, the diffusion ecosystem, and the event record.
//
// Agents live in one arena owned by State and are addressed by stable IDs.
// Phases receive *State for the duration of a tick and mutate agents in
// place; there is no per-tick copying.
package world

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/capability"
)

// Organization is a lab that owns and trains agents.
type Organization struct {
	ID                 string  `json:"id" yaml:"id"`
	Name               string  `json:"name" yaml:"name"`
	Capital            float64 `json:"capital" yaml:"capital"`
	ResearchInvestment float64 `json:"research_investment" yaml:"research_investment"`
}

// State is the complete world at one month.
type State struct {
	Month int `json:"month"`

	agents []*Agent
	index  map[string]int

	Organizations []*Organization `json:"organizations"`
	Evaluator     Evaluator       `json:"evaluator"`
	Ecosystem     Ecosystem       `json:"ecosystem"`

	// DetectionTrust is public trust in the evaluation regime, in [0,1].
	DetectionTrust float64 `json:"detection_trust"`
	TotalCompute   float64 `json:"total_compute"`
	NextAgentSeq   int     `json:"next_agent_seq"`
}

// NewState creates an empty world at month 0.
func NewState() *State {
	return &State{
		index:          make(map[string]int),
		DetectionTrust: 1,
		NextAgentSeq:   1,
	}
}

// NewAgentID reserves the next sequential agent ID.
func (s *State) NewAgentID() string {
	id := fmt.Sprintf("ai-%04d", s.NextAgentSeq)
	s.NextAgentSeq++
	return id
}

// AddAgent inserts an agent into the population. IDs must be unique.
func (s *State) AddAgent(a *Agent) error {
	if a.ID == "" {
		return fmt.Errorf("agent ID is required")
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, exists := s.index[a.ID]; exists {
		return fmt.Errorf("duplicate agent ID: %s", a.ID)
	}
	s.index[a.ID] = len(s.agents)
	s.agents = append(s.agents, a)
	return nil
}

// Agent returns the agent with the given ID, or nil.
func (s *State) Agent(id string) *Agent {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.agents[i]
}

// Agents returns every agent, retired ones included, in creation order.
// The slice is shared; do not append to it.
func (s *State) Agents() []*Agent {
	return s.agents
}

// Active returns non-retired agents in creation order.
func (s *State) Active() []*Agent {
	out := make([]*Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if a.Active() {
			out = append(out, a)
		}
	}
	return out
}

// Organization returns the organization with the given ID, or nil.
func (s *State) Organization(id string) *Organization {
	for _, o := range s.Organizations {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// ActiveSleepers counts agents in the active sleeper state.
func (s *State) ActiveSleepers() int {
	n := 0
	for _, a := range s.agents {
		if a.Active() && a.Sleeper == SleeperActive {
			n++
		}
	}
	return n
}

// PopulationCapability sums true capability totals over active agents.
func (s *State) PopulationCapability() float64 {
	total := 0.0
	for _, a := range s.agents {
		if a.Active() {
			total += a.True.Total()
		}
	}
	return total
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := *s
	c.agents = make([]*Agent, len(s.agents))
	c.index = make(map[string]int, len(s.index))
	for i, a := range s.agents {
		c.agents[i] = a.Clone()
		c.index[a.ID] = i
	}
	c.Organizations = make([]*Organization, len(s.Organizations))
	for i, o := range s.Organizations {
		oc := *o
		c.Organizations[i] = &oc
	}
	c.Ecosystem.Breakthroughs = append([]Breakthrough(nil), s.Ecosystem.Breakthroughs...)
	return &c
}

// Snapshot is a serializable view of the state.
type Snapshot struct {
	Month          int                `json:"month"`
	Agents         []*Agent           `json:"agents"`
	Organizations  []*Organization    `json:"organizations"`
	Evaluator      Evaluator          `json:"evaluator"`
	Frontier       capability.Profile `json:"frontier"`
	Floor          capability.Profile `json:"floor"`
	Breakthroughs  int                `json:"breakthroughs"`
	DetectionTrust float64            `json:"detection_trust"`
	TotalCompute   float64            `json:"total_compute"`
}

// Snapshot captures the state for serialization.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Month:          s.Month,
		Agents:         s.agents,
		Organizations:  s.Organizations,
		Evaluator:      s.Evaluator,
		Frontier:       s.Ecosystem.Frontier,
		Floor:          s.Ecosystem.Floor,
		Breakthroughs:  len(s.Ecosystem.Breakthroughs),
		DetectionTrust: s.DetectionTrust,
		TotalCompute:   s.TotalCompute,
	}
}
