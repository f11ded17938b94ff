package scoring

import (
	"time"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/engineconfig"
	"github.com/starcontent/adpulse/pkg/logger"
)

// UnifiedCalculator blends per-source scores into the unified impact
// score on the 0 ~ 100 scale used by budget reallocation
type UnifiedCalculator struct {
	weights engineconfig.SourceWeights
	logger  *logger.Logger
}

// NewUnifiedCalculator creates a new unified score calculator
func NewUnifiedCalculator(weights engineconfig.SourceWeights, log *logger.Logger) *UnifiedCalculator {
	return &UnifiedCalculator{
		weights: weights,
		logger:  log,
	}
}

// SourceScores carries the per-source inputs to the unified blend.
// A nil pointer means the source produced no signal for this item and
// its weight is redistributed among the present sources.
type SourceScores struct {
	TikTok *float64 // platform scale, 0 ~ 3
	Meta   *float64 // platform scale, 0 ~ 3
	Sku    *float64 // demand scale, 0 ~ 100
}

// Calculate blends the present sources into a 0 ~ 100 unified score and
// applies the item's boost window. With no sources at all the item is
// marked insufficient and scored zero.
func (c *UnifiedCalculator) Calculate(item *contracts.ContentItem, sources SourceScores, now time.Time) (float64, contracts.ScoreBreakdown) {
	type weighted struct {
		name   string
		weight float64
		norm   float64
	}

	var present []weighted
	if sources.TikTok != nil {
		present = append(present, weighted{"tiktok", c.weights.TikTok,
			clamp(*sources.TikTok/platformScoreMax*100, 0, 100)})
	}
	if sources.Meta != nil {
		present = append(present, weighted{"meta", c.weights.Meta,
			clamp(*sources.Meta/platformScoreMax*100, 0, 100)})
	}
	if sources.Sku != nil {
		present = append(present, weighted{"sku", c.weights.Sku,
			clamp(*sources.Sku, 0, 100)})
	}

	if len(present) == 0 {
		return 0, contracts.ScoreBreakdown{Reason: contracts.ReasonInsufficientData}
	}

	weightSum := 0.0
	for _, s := range present {
		weightSum += s.weight
	}
	if weightSum <= 0 {
		return 0, contracts.ScoreBreakdown{Reason: contracts.ReasonInsufficientData}
	}

	breakdown := contracts.ScoreBreakdown{Components: map[string]float64{}}
	blended := 0.0
	for _, s := range present {
		// Absent-source weight redistributed proportionally
		w := s.weight / weightSum
		blended += w * s.norm
		breakdown.Components[s.name+"_norm"] = s.norm
		breakdown.Components[s.name+"_weight"] = w
	}

	boost := item.EffectiveBoost(now)
	if boost != 1.0 {
		breakdown.Components["boost"] = boost
	}

	score := clamp(blended*boost, 0, 100)

	c.logger.WithFields(map[string]interface{}{
		"content_id": item.ID,
		"sources":    len(present),
		"boost":      boost,
		"score":      score,
	}).Debug("Calculated unified score")

	return score, breakdown
}
