package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/pkg/logger"
)

// GroupScorer rolls member content scores up to their ad group.
// Multi-item groups carry budget at the group level, so reallocation
// needs one score per group, not per member.
type GroupScorer struct {
	logger *logger.Logger
}

// NewGroupScorer creates a new ad group scorer
func NewGroupScorer(log *logger.Logger) *GroupScorer {
	return &GroupScorer{logger: log}
}

// Score returns the spend-weighted mean of the members' unified scores.
// With zero total spend every member weighs equally. No members means
// no signal and a zero score.
func (s *GroupScorer) Score(group *contracts.AdGroup, members []*contracts.ContentItem) float64 {
	if len(members) == 0 {
		return 0
	}

	totalSpend := decimal.Zero
	for _, m := range members {
		totalSpend = totalSpend.Add(m.TotalSpend())
	}

	if !totalSpend.IsPositive() {
		sum := 0.0
		for _, m := range members {
			sum += m.UnifiedScore
		}
		return clamp(sum/float64(len(members)), 0, 100)
	}

	score := 0.0
	for _, m := range members {
		w, _ := m.TotalSpend().Div(totalSpend).Float64()
		score += w * m.UnifiedScore
	}

	s.logger.WithFields(map[string]interface{}{
		"ad_group_id": group.ID,
		"members":     len(members),
		"score":       score,
	}).Debug("Calculated ad group score")

	return clamp(score, 0, 100)
}
