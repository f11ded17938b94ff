package scoring

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/pkg/logger"
)

func member(id int64, unified float64, tiktokSpend int64) *contracts.ContentItem {
	item := &contracts.ContentItem{ID: id, UnifiedScore: unified}
	if tiktokSpend > 0 {
		item.TikTokAds = &contracts.TikTokAdMetrics{Spend: decimal.NewFromInt(tiktokSpend)}
	}
	return item
}

func TestGroupScorer_Score(t *testing.T) {
	scorer := NewGroupScorer(logger.NewNop())
	group := &contracts.AdGroup{ID: 1, Structure: contracts.StructureMultiItem}

	t.Run("spend-weighted mean", func(t *testing.T) {
		members := []*contracts.ContentItem{
			member(1, 80, 300), // 75% of spend
			member(2, 40, 100), // 25% of spend
		}
		score := scorer.Score(group, members)
		assert.InDelta(t, 0.75*80+0.25*40, score, 1e-9)
	})

	t.Run("zero spend falls back to equal weights", func(t *testing.T) {
		members := []*contracts.ContentItem{
			member(1, 80, 0),
			member(2, 40, 0),
		}
		score := scorer.Score(group, members)
		assert.InDelta(t, 60.0, score, 1e-9)
	})

	t.Run("no members scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Score(group, nil))
	})
}
