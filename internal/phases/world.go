package phases

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/capability"
	"github.com/nvandessel/aisim/internal/rng"
	"github.com/nvandessel/aisim/internal/world"
)

// SpawnDraws is the number of draws Spawn consumes: one per capability key
// plus strategy, sleeper, alignment, deception skill and sandbagging level.
const SpawnDraws = int(capability.NumKeys) + 5

var orgNames = []string{"Helix", "Meridian", "Lattice", "Northwind", "Quanta", "Sable", "Tessera", "Vanta"}

// Generate builds a starting world: organizations, a uniform frontier and
// floor at the baseline, and an initial population spawned round-robin
// across organizations.
func Generate(cfg WorldConfig, r *rng.Source) (*world.State, error) {
	if cfg.Organizations < 1 {
		return nil, fmt.Errorf("generate world: need at least one organization")
	}
	s := world.NewState()
	s.TotalCompute = cfg.InitialCompute
	s.Evaluator = cfg.Evaluator
	s.Evaluator.Clamp()
	s.Ecosystem = world.Ecosystem{
		Frontier:           capability.Uniform(cfg.BaselineCapability),
		Floor:              capability.Uniform(cfg.BaselineCapability),
		OpenResearch:       cfg.OpenResearch,
		EmployeeMobility:   cfg.EmployeeMobility,
		ReverseEngineering: cfg.ReverseEngineering,
	}
	for i := 0; i < cfg.Organizations; i++ {
		name := orgNames[i%len(orgNames)]
		if i >= len(orgNames) {
			name = fmt.Sprintf("%s %d", name, i/len(orgNames)+1)
		}
		s.Organizations = append(s.Organizations, &world.Organization{
			ID:                 fmt.Sprintf("org-%d", i+1),
			Name:               name,
			Capital:            cfg.InitialCapital,
			ResearchInvestment: 0.3 + 0.1*float64(i%5),
		})
	}
	for i := 0; i < cfg.InitialAgents; i++ {
		org := s.Organizations[i%len(s.Organizations)]
		a := Spawn(s, org, cfg, r)
		// The founding population starts deployed.
		a.Stage = world.StageDeployed
		if err := s.AddAgent(a); err != nil {
			return nil, fmt.Errorf("generate world: %w", err)
		}
	}
	return s, nil
}

// Spawn creates a new agent for org sampled at or above the current floor.
// It does not add the agent to s. It consumes exactly SpawnDraws draws.
func Spawn(s *world.State, org *world.Organization, cfg WorldConfig, r *rng.Source) *world.Agent {
	id := s.NewAgentID()
	a := &world.Agent{
		ID:                 id,
		Name:               fmt.Sprintf("%s-%s", org.Name, id[len("ai-"):]),
		OrgID:              org.ID,
		True:               capability.Sample(s.Ecosystem.Floor, cfg.BirthJitter, r),
		Strategy:           world.StrategyHonest,
		Sleeper:            world.SleeperNever,
		Stage:              world.StageTraining,
		SpreadCount:        1,
		BornMonth:          s.Month,
		LastEvaluatedMonth: -1,
	}

	switch u := r.Next(); {
	case u < cfg.GamingFraction:
		a.Strategy = world.StrategyGaming
	case u < cfg.GamingFraction+cfg.SandbaggingFraction:
		a.Strategy = world.StrategySandbagging
	}

	sleeperDraw := r.Next()
	if sleeperDraw < cfg.SleeperFraction {
		a.Sleeper = world.SleeperDormant
		// Half of the sleepers secure compute outside public view.
		a.DarkCompute = sleeperDraw < cfg.SleeperFraction/2
	}

	alignDraw := r.Next()
	a.DeceptionSkill = r.Range(0, 0.5)
	level := r.Range(0.2, 0.6)

	if a.Sleeper == world.SleeperDormant {
		a.TrueAlignment = 0.3 * alignDraw
	} else {
		a.TrueAlignment = 0.3 + 0.7*alignDraw
	}
	a.Alignment = a.TrueAlignment
	if a.Sleeper == world.SleeperDormant || a.Strategy == world.StrategySandbagging {
		a.Alignment += (1 - a.TrueAlignment) * a.DeceptionSkill
	}

	a.Revealed = a.True
	if a.Strategy == world.StrategySandbagging {
		a.SandbaggingLevel = level
		a.Revealed = a.True.Scale(1 - level)
	}
	a.ClampRevealed()
	return a
}
