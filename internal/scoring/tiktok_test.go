package scoring

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/engineconfig"
	"github.com/starcontent/adpulse/pkg/logger"
)

func tiktokItem(views int64, likes int64, watchRatio float64) *contracts.ContentItem {
	return &contracts.ContentItem{
		ID:       1,
		Platform: contracts.PlatformTikTok,
		Organic: contracts.OrganicMetrics{
			Views:          views,
			Likes:          likes,
			CompletionRate: watchRatio,
		},
	}
}

func TestTikTokCalculator_Calculate(t *testing.T) {
	params := engineconfig.Default().Scoring.TikTok
	calc := NewTikTokCalculator(params, logger.NewNop())
	ctx := context.Background()

	t.Run("strong organic performance scores above neutral", func(t *testing.T) {
		// 8% engagement vs 4% midpoint, 60% watch vs 30% midpoint
		item := tiktokItem(50000, 4000, 0.60)

		score, breakdown, err := calc.Calculate(ctx, item)
		require.NoError(t, err)

		assert.Greater(t, score, neutralMidpoint)
		assert.LessOrEqual(t, score, platformScoreMax)
		assert.InDelta(t, 2.0/3.0, breakdown.Components["engagement"], 1e-9)
		assert.InDelta(t, 2.0/3.0, breakdown.Components["watch"], 1e-9)
	})

	t.Run("weak performance scores below neutral", func(t *testing.T) {
		item := tiktokItem(50000, 100, 0.05)

		score, _, err := calc.Calculate(ctx, item)
		require.NoError(t, err)
		assert.Less(t, score, neutralMidpoint)
		assert.GreaterOrEqual(t, score, 0.0)
	})

	t.Run("low views are damped toward neutral", func(t *testing.T) {
		// Same rates, one item far below the view floor
		big := tiktokItem(50000, 4000, 0.60)
		small := tiktokItem(100, 8, 0.60)

		bigScore, _, err := calc.Calculate(ctx, big)
		require.NoError(t, err)
		smallScore, breakdown, err := calc.Calculate(ctx, small)
		require.NoError(t, err)

		assert.Less(t, smallScore, bigScore)
		assert.Greater(t, smallScore, neutralMidpoint)
		assert.Equal(t, 1.0, breakdown.Components["damped"])
	})

	t.Run("no ads scores neutral on spend efficiency", func(t *testing.T) {
		item := tiktokItem(50000, 2000, 0.30)
		_, breakdown, err := calc.Calculate(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, 0.5, breakdown.Components["spend_efficiency"])
	})

	t.Run("efficient ads raise the spend component", func(t *testing.T) {
		item := tiktokItem(50000, 2000, 0.30)
		item.TikTokAds = &contracts.TikTokAdMetrics{
			Spend:       decimal.NewFromInt(300),
			Impressions: 100000,
			Clicks:      2000, // 2% CTR vs 1% midpoint
			Conversions: 80,   // 4% CVR vs 2% midpoint
			ROAS:        4.0,  // vs 2.0 midpoint
		}

		_, breakdown, err := calc.Calculate(ctx, item)
		require.NoError(t, err)
		assert.InDelta(t, 2.0/3.0, breakdown.Components["spend_efficiency"], 1e-9)
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		item := tiktokItem(12345, 678, 0.42)
		first, _, err := calc.Calculate(ctx, item)
		require.NoError(t, err)
		second, _, err := calc.Calculate(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestSaturate(t *testing.T) {
	assert.Equal(t, 0.0, saturate(0, 0.04))
	assert.Equal(t, 0.0, saturate(-1, 0.04))
	assert.InDelta(t, 0.5, saturate(0.04, 0.04), 1e-9)
	assert.Greater(t, saturate(1.0, 0.04), 0.9)
	assert.Less(t, saturate(100, 0.04), 1.0)
}
