package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/engineconfig"
	"github.com/starcontent/adpulse/pkg/logger"
)

func f(v float64) *float64 { return &v }

func TestUnifiedCalculator_Calculate(t *testing.T) {
	weights := engineconfig.Default().Scoring.Weights
	calc := NewUnifiedCalculator(weights, logger.NewNop())
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	item := &contracts.ContentItem{ID: 7}

	t.Run("all sources present blend at configured weights", func(t *testing.T) {
		// tiktok 2.4/3 -> 80, meta 1.5/3 -> 50, sku 60
		score, breakdown := calc.Calculate(item, SourceScores{
			TikTok: f(2.4), Meta: f(1.5), Sku: f(60),
		}, now)

		// 0.5*80 + 0.3*50 + 0.2*60 = 67
		assert.InDelta(t, 67.0, score, 1e-9)
		assert.InDelta(t, 80.0, breakdown.Components["tiktok_norm"], 1e-9)
		assert.Empty(t, breakdown.Reason)
	})

	t.Run("absent source weight is redistributed proportionally", func(t *testing.T) {
		score, breakdown := calc.Calculate(item, SourceScores{
			TikTok: f(2.4), Meta: f(1.5),
		}, now)

		// weights renormalize to 0.625 / 0.375
		assert.InDelta(t, 0.625*80+0.375*50, score, 1e-9)
		assert.InDelta(t, 0.625, breakdown.Components["tiktok_weight"], 1e-9)
	})

	t.Run("single source carries full weight", func(t *testing.T) {
		score, _ := calc.Calculate(item, SourceScores{Sku: f(73)}, now)
		assert.InDelta(t, 73.0, score, 1e-9)
	})

	t.Run("no sources means insufficient data", func(t *testing.T) {
		score, breakdown := calc.Calculate(item, SourceScores{}, now)
		assert.Equal(t, 0.0, score)
		assert.Equal(t, contracts.ReasonInsufficientData, breakdown.Reason)
	})

	t.Run("boost inside its window multiplies the score", func(t *testing.T) {
		start := now.Add(-time.Hour)
		end := now.Add(time.Hour)
		boosted := &contracts.ContentItem{
			ID: 8, BoostFactor: 1.5, BoostStart: &start, BoostEnd: &end,
		}

		score, breakdown := calc.Calculate(boosted, SourceScores{TikTok: f(1.5)}, now)
		assert.InDelta(t, 75.0, score, 1e-9)
		assert.Equal(t, 1.5, breakdown.Components["boost"])
	})

	t.Run("boost outside its window is inert", func(t *testing.T) {
		start := now.Add(time.Hour)
		boosted := &contracts.ContentItem{ID: 9, BoostFactor: 2.0, BoostStart: &start}

		score, breakdown := calc.Calculate(boosted, SourceScores{TikTok: f(1.5)}, now)
		assert.InDelta(t, 50.0, score, 1e-9)
		assert.NotContains(t, breakdown.Components, "boost")
	})

	t.Run("score is capped at 100", func(t *testing.T) {
		boosted := &contracts.ContentItem{ID: 10, BoostFactor: 3.0}
		score, _ := calc.Calculate(boosted, SourceScores{TikTok: f(3.0)}, now)
		assert.Equal(t, 100.0, score)
	})
}
