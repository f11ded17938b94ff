package scoring

import (
	"context"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/engineconfig"
	"github.com/starcontent/adpulse/pkg/logger"
)

// MetaCalculator computes the Meta (Facebook/Instagram) platform score
// for a content item
type MetaCalculator struct {
	params engineconfig.MetaParams
	logger *logger.Logger
}

// NewMetaCalculator creates a new Meta score calculator
func NewMetaCalculator(params engineconfig.MetaParams, log *logger.Logger) *MetaCalculator {
	return &MetaCalculator{
		params: params,
		logger: log,
	}
}

// Calculate computes the Meta platform score (0 ~ 3). Cost metrics are
// inverted so cheaper delivery scores higher; frequency above the
// fatigue ceiling applies a linear penalty to the composite.
func (c *MetaCalculator) Calculate(ctx context.Context, item *contracts.ContentItem) (float64, contracts.ScoreBreakdown, error) {
	ads := item.MetaAds
	if ads == nil {
		// No delivery yet: neutral composite from organic completion only
		completion := saturate(item.Organic.CompletionRate, c.params.CompletionMid)
		score := platformScoreMax * (0.5*(1-c.params.CompletionWeight) +
			completion*c.params.CompletionWeight)
		return clamp(score, 0, platformScoreMax), contracts.ScoreBreakdown{
			Components: map[string]float64{
				"completion": completion,
				"organic":    1,
			},
		}, nil
	}

	ctr := saturate(ads.CTR(), c.params.CTRMid)
	cpc := inverseSaturate(ads.CPC(), c.params.CPCMid)
	cpr := inverseSaturate(ads.CostPerResult(), c.params.CPRMid)
	roas := saturate(ads.ROAS, c.params.ROASMid)
	completion := saturate(ads.CompletionRate(), c.params.CompletionMid)

	raw := platformScoreMax * (ctr*c.params.CTRWeight +
		cpc*c.params.CPCWeight +
		cpr*c.params.CPRWeight +
		roas*c.params.ROASWeight +
		completion*c.params.CompletionWeight)

	score := raw
	penalty := 0.0
	if ads.Frequency > c.params.FrequencyCeiling {
		penalty = c.params.FrequencyPenalty * (ads.Frequency - c.params.FrequencyCeiling)
		if penalty > 1 {
			penalty = 1
		}
		score = raw * (1 - penalty)
	}

	score = clamp(score, 0, platformScoreMax)

	breakdown := contracts.ScoreBreakdown{
		Components: map[string]float64{
			"ctr":             ctr,
			"cpc":             cpc,
			"cost_per_result": cpr,
			"roas":            roas,
			"completion":      completion,
			"raw":             raw,
		},
	}
	if penalty > 0 {
		breakdown.Components["frequency_penalty"] = penalty
	}

	c.logger.WithFields(map[string]interface{}{
		"content_id": item.ID,
		"frequency":  ads.Frequency,
		"penalty":    penalty,
		"score":      score,
	}).Debug("Calculated Meta platform score")

	return score, breakdown, nil
}

// inverseSaturate maps a cost metric into [0, 1] where lower is better,
// with value 0.5 at x == mid. A zero cost means no data, scored neutral.
func inverseSaturate(x, mid float64) float64 {
	if x <= 0 {
		return 0.5
	}
	return mid / (x + mid)
}
