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

func metaItem(ads *contracts.MetaAdMetrics) *contracts.ContentItem {
	return &contracts.ContentItem{
		ID:       2,
		Platform: contracts.PlatformInstagram,
		Organic:  contracts.OrganicMetrics{Views: 20000, Impressions: 30000},
		MetaAds:  ads,
	}
}

func TestMetaCalculator_Calculate(t *testing.T) {
	params := engineconfig.Default().Scoring.Meta
	calc := NewMetaCalculator(params, logger.NewNop())
	ctx := context.Background()

	t.Run("efficient delivery scores above neutral", func(t *testing.T) {
		item := metaItem(&contracts.MetaAdMetrics{
			Spend:        decimal.NewFromInt(500),
			Impressions:  100000,
			Clicks:       2000, // 2% CTR vs 1% midpoint
			Results:      100,
			ROAS:         4.0,
			Frequency:    2.0,
			ThruPlays:    3000,
			VideoViews3s: 6000,
		})

		score, breakdown, err := calc.Calculate(ctx, item)
		require.NoError(t, err)
		assert.Greater(t, score, neutralMidpoint)
		assert.NotContains(t, breakdown.Components, "frequency_penalty")
	})

	t.Run("frequency above ceiling is penalized", func(t *testing.T) {
		fresh := metaItem(&contracts.MetaAdMetrics{
			Spend: decimal.NewFromInt(500), Impressions: 100000, Clicks: 2000,
			Results: 100, ROAS: 4.0, Frequency: 2.0,
		})
		fatigued := metaItem(&contracts.MetaAdMetrics{
			Spend: decimal.NewFromInt(500), Impressions: 100000, Clicks: 2000,
			Results: 100, ROAS: 4.0, Frequency: 5.0,
		})

		freshScore, _, err := calc.Calculate(ctx, fresh)
		require.NoError(t, err)
		fatiguedScore, breakdown, err := calc.Calculate(ctx, fatigued)
		require.NoError(t, err)

		assert.Less(t, fatiguedScore, freshScore)
		// 0.20 penalty per unit over 3.5 ceiling
		assert.InDelta(t, 0.30, breakdown.Components["frequency_penalty"], 1e-9)
	})

	t.Run("extreme frequency cannot push the score negative", func(t *testing.T) {
		item := metaItem(&contracts.MetaAdMetrics{
			Spend: decimal.NewFromInt(500), Impressions: 100000, Clicks: 2000,
			Results: 100, ROAS: 4.0, Frequency: 50.0,
		})

		score, _, err := calc.Calculate(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("zero-cost metrics score neutral", func(t *testing.T) {
		// Impressions but no clicks or results: CPC and CPR unknown
		item := metaItem(&contracts.MetaAdMetrics{
			Spend:       decimal.NewFromInt(10),
			Impressions: 1000,
		})

		_, breakdown, err := calc.Calculate(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, 0.5, breakdown.Components["cpc"])
		assert.Equal(t, 0.5, breakdown.Components["cost_per_result"])
	})

	t.Run("organic-only item gets a completion-based score", func(t *testing.T) {
		item := metaItem(nil)
		item.Organic.CompletionRate = 0.50

		score, breakdown, err := calc.Calculate(ctx, item)
		require.NoError(t, err)
		assert.Greater(t, score, 0.0)
		assert.Equal(t, 1.0, breakdown.Components["organic"])
	})
}

func TestInverseSaturate(t *testing.T) {
	assert.Equal(t, 0.5, inverseSaturate(0, 5.0))
	assert.InDelta(t, 0.5, inverseSaturate(5.0, 5.0), 1e-9)
	assert.Greater(t, inverseSaturate(1.0, 5.0), 0.5)  // cheap is good
	assert.Less(t, inverseSaturate(50.0, 5.0), 0.5)    // expensive is bad
}
