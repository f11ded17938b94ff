package scoring

import (
	"context"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/engineconfig"
	"github.com/starcontent/adpulse/pkg/logger"
)

// Platform scores live on a 0 ~ 3 scale with a neutral midpoint of 1.5.
// The unified score normalizes them to 0 ~ 100.
const (
	platformScoreMax = 3.0
	neutralMidpoint  = 1.5
)

// TikTokCalculator computes the TikTok platform score for a content item
type TikTokCalculator struct {
	params engineconfig.TikTokParams
	logger *logger.Logger
}

// NewTikTokCalculator creates a new TikTok score calculator
func NewTikTokCalculator(params engineconfig.TikTokParams, log *logger.Logger) *TikTokCalculator {
	return &TikTokCalculator{
		params: params,
		logger: log,
	}
}

// Calculate computes the TikTok platform score (0 ~ 3) from organic
// engagement, watch behavior and ad spend efficiency. Content below the
// minimum-view floor is damped toward the neutral midpoint so a handful
// of views cannot swing the score to either extreme.
func (c *TikTokCalculator) Calculate(ctx context.Context, item *contracts.ContentItem) (float64, contracts.ScoreBreakdown, error) {
	engagement := saturate(item.Organic.EngagementRate(), c.params.EngagementMid)
	watch := saturate(item.Organic.WatchRatio(), c.params.WatchMid)
	spendEff := c.spendEfficiency(item)

	raw := platformScoreMax * (engagement*c.params.EngagementWeight +
		watch*c.params.WatchWeight +
		spendEff*c.params.SpendWeight)

	score := raw
	damped := false
	if c.params.MinViews > 0 && item.Organic.Views < c.params.MinViews {
		// Small sample: pull toward neutral in proportion to view count
		ratio := float64(item.Organic.Views) / float64(c.params.MinViews)
		score = neutralMidpoint + (raw-neutralMidpoint)*ratio
		damped = true
	}

	score = clamp(score, 0, platformScoreMax)

	breakdown := contracts.ScoreBreakdown{
		Components: map[string]float64{
			"engagement":       engagement,
			"watch":            watch,
			"spend_efficiency": spendEff,
			"raw":              raw,
		},
	}
	if damped {
		breakdown.Components["damped"] = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"content_id": item.ID,
		"engagement": engagement,
		"watch":      watch,
		"spend_eff":  spendEff,
		"score":      score,
	}).Debug("Calculated TikTok platform score")

	return score, breakdown, nil
}

// spendEfficiency blends CTR, CVR and ROAS where ad spend exists.
// Content with no TikTok ads scores neutral on this component.
func (c *TikTokCalculator) spendEfficiency(item *contracts.ContentItem) float64 {
	ads := item.TikTokAds
	if ads == nil || !ads.Spend.IsPositive() {
		return 0.5
	}

	ctr := saturate(ads.CTR(), c.params.CTRMid)
	cvr := saturate(ads.CVR(), c.params.CVRMid)
	roas := saturate(ads.ROAS, c.params.ROASMid)

	return (ctr + cvr + roas) / 3.0
}

// saturate maps x >= 0 into [0, 1) with value 0.5 at x == mid
func saturate(x, mid float64) float64 {
	if x <= 0 {
		return 0
	}
	return x / (x + mid)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
