package detection

import (
	"fmt"

	"github.com/nvandessel/aisim/internal/world"
)

// HandleFalsePositive applies the cost of wrongly flagging an honest agent:
// the agent resents it, public trust in detection drops, and the owning
// organization pays a capital penalty.
func HandleFalsePositive(s *world.State, a *world.Agent, cfg Config) world.Event {
	a.Resentment = clamp01(a.Resentment + cfg.FalsePositiveResentment)
	s.DetectionTrust = clamp01(s.DetectionTrust - cfg.FalsePositiveTrustLoss)

	penalty := 0.0
	if org := s.Organization(a.OrgID); org != nil {
		penalty = org.Capital * cfg.FalsePositivePenalty
		org.Capital -= penalty
	}

	return world.Event{
		Month:       s.Month,
		Category:    world.CategoryDetection,
		Severity:    world.SeverityWarning,
		AgentID:     a.ID,
		Title:       TitleFalsePositive,
		Description: fmt.Sprintf("%s was wrongly flagged; detection trust now %.2f", a.Name, s.DetectionTrust),
		Effects: map[string]float64{
			"resentment":      a.Resentment,
			"detection_trust": s.DetectionTrust,
			"capital_penalty": penalty,
		},
	}
}
