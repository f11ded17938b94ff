package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/engineconfig"
	"github.com/starcontent/adpulse/pkg/logger"
	"github.com/starcontent/adpulse/pkg/redis"
)

type fakeStore struct {
	items     []*contracts.ContentItem
	groups    []*contracts.AdGroup
	signals   map[string]*contracts.SkuSignal
	snapshots []*contracts.ScoreSnapshot
	saved     map[int64]int // content id -> SaveScores call count
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		signals: map[string]*contracts.SkuSignal{},
		saved:   map[int64]int{},
	}
}

func (s *fakeStore) ListScorable(ctx context.Context) ([]*contracts.ContentItem, error) {
	return s.items, nil
}

func (s *fakeStore) ListByGroup(ctx context.Context, groupID int64) ([]*contracts.ContentItem, error) {
	var out []*contracts.ContentItem
	for _, item := range s.items {
		if item.GroupID == groupID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fakeStore) GetByIDs(ctx context.Context, ids []int64) ([]*contracts.ContentItem, error) {
	var out []*contracts.ContentItem
	for _, id := range ids {
		for _, item := range s.items {
			if item.ID == id {
				out = append(out, item)
			}
		}
	}
	return out, nil
}

func (s *fakeStore) SaveScores(ctx context.Context, item *contracts.ContentItem) error {
	s.saved[item.ID]++
	return nil
}

func (s *fakeStore) AppendSnapshot(ctx context.Context, snap *contracts.ScoreSnapshot) error {
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *fakeStore) SaveGroupScore(ctx context.Context, groupID int64, score float64, at time.Time) error {
	for _, g := range s.groups {
		if g.ID == groupID {
			g.Score = score
			g.ScoredAt = &at
		}
	}
	return nil
}

func (s *fakeStore) ListAdGroupsByGroup(ctx context.Context, groupID int64) ([]*contracts.AdGroup, error) {
	var out []*contracts.AdGroup
	for _, g := range s.groups {
		if g.GroupID == groupID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *fakeStore) ListCurrentPlan(ctx context.Context) ([]*contracts.AdGroup, error) {
	return s.groups, nil
}

func (s *fakeStore) LatestByCodes(ctx context.Context, codes []string, date time.Time) ([]*contracts.SkuSignal, error) {
	var out []*contracts.SkuSignal
	for _, code := range codes {
		if sig, ok := s.signals[code]; ok {
			out = append(out, sig)
		}
	}
	return out, nil
}

func newTestService(store *fakeStore) *Service {
	cache := redis.NewCache(&redis.Client{}, "test")
	return NewService(engineconfig.Default(), store, store, store, store, cache, logger.NewNop())
}

func TestService_RunPass(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("scores content and appends history", func(t *testing.T) {
		store := newFakeStore()
		store.items = []*contracts.ContentItem{
			{
				ID: 1, Platform: contracts.PlatformTikTok, Status: contracts.StatusActive,
				Organic: contracts.OrganicMetrics{Views: 50000, Likes: 4000, CompletionRate: 0.6},
			},
		}
		svc := newTestService(store)

		result, err := svc.RunPass(ctx, now)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Scored)
		assert.Equal(t, 0, result.Failed)
		require.Len(t, store.snapshots, 1)
		assert.Equal(t, result.RunID, store.snapshots[0].RunID)
		assert.Greater(t, store.items[0].UnifiedScore, 0.0)
		assert.Contains(t, store.items[0].PlatformScores, contracts.PlatformTikTok)
	})

	t.Run("rerun on unchanged metrics writes nothing", func(t *testing.T) {
		store := newFakeStore()
		store.items = []*contracts.ContentItem{
			{
				ID: 1, Platform: contracts.PlatformTikTok, Status: contracts.StatusActive,
				Organic: contracts.OrganicMetrics{Views: 50000, Likes: 4000, CompletionRate: 0.6},
			},
		}
		svc := newTestService(store)

		first, err := svc.RunPass(ctx, now)
		require.NoError(t, err)
		require.Equal(t, 1, first.Scored)

		second, err := svc.RunPass(ctx, now.Add(time.Hour))
		require.NoError(t, err)

		assert.Equal(t, 0, second.Scored)
		assert.Equal(t, 1, second.Unchanged)
		assert.Len(t, store.snapshots, 1, "history must not grow on identical metrics")
		assert.Equal(t, 1, store.saved[1])
	})

	t.Run("no organic reach and no spend marks insufficient data", func(t *testing.T) {
		store := newFakeStore()
		store.items = []*contracts.ContentItem{
			{ID: 3, Platform: contracts.PlatformTikTok, Status: contracts.StatusReady},
		}
		svc := newTestService(store)

		result, err := svc.RunPass(ctx, now)
		require.NoError(t, err)

		assert.Equal(t, 1, result.Insufficient)
		assert.Equal(t, 0.0, store.items[0].UnifiedScore)
		assert.Equal(t, contracts.ReasonInsufficientData, store.items[0].ScoreDetails.Reason)
	})

	t.Run("sku demand joins the blend", func(t *testing.T) {
		store := newFakeStore()
		store.items = []*contracts.ContentItem{
			{
				ID: 4, Platform: contracts.PlatformTikTok, Status: contracts.StatusActive,
				ProductCodes: []string{"SKU-1", "SKU-2"},
				Organic:      contracts.OrganicMetrics{Views: 50000, Likes: 4000, CompletionRate: 0.6},
			},
		}
		store.signals["SKU-1"] = &contracts.SkuSignal{SKU: "SKU-1", DemandScore: 90}
		store.signals["SKU-2"] = &contracts.SkuSignal{SKU: "SKU-2", DemandScore: 70}
		svc := newTestService(store)

		_, err := svc.RunPass(ctx, now)
		require.NoError(t, err)

		// mean demand of 80, weight redistributed over tiktok+sku
		details := store.items[0].ScoreDetails
		assert.InDelta(t, 80.0, details.Components["sku_norm"], 1e-9)
	})

	t.Run("aggregates ad group scores spend-weighted", func(t *testing.T) {
		store := newFakeStore()
		store.items = []*contracts.ContentItem{
			{
				ID: 10, Platform: contracts.PlatformTikTok, Status: contracts.StatusActive,
				Organic:   contracts.OrganicMetrics{Views: 80000, Likes: 8000, CompletionRate: 0.7},
				TikTokAds: &contracts.TikTokAdMetrics{Spend: decimal.NewFromInt(300)},
			},
			{
				ID: 11, Platform: contracts.PlatformTikTok, Status: contracts.StatusActive,
				Organic:   contracts.OrganicMetrics{Views: 60000, Likes: 600, CompletionRate: 0.2},
				TikTokAds: &contracts.TikTokAdMetrics{Spend: decimal.NewFromInt(100)},
			},
		}
		store.groups = []*contracts.AdGroup{
			{
				ID: 1, Structure: contracts.StructureMultiItem, Active: true,
				CurrentPlan: true, MemberContentIDs: []int64{10, 11},
			},
		}
		svc := newTestService(store)

		result, err := svc.RunPass(ctx, now)
		require.NoError(t, err)

		assert.Equal(t, 1, result.GroupsScored)
		expected := 0.75*store.items[0].UnifiedScore + 0.25*store.items[1].UnifiedScore
		assert.InDelta(t, expected, store.groups[0].Score, 1e-9)
	})
}
