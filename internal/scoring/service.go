package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/engineconfig"
	"github.com/starcontent/adpulse/pkg/logger"
	"github.com/starcontent/adpulse/pkg/redis"
)

const skuCacheTTL = 30 * time.Minute

// Service runs the scoring pass: recompute platform and unified scores
// for all scorable content, persist score movements with history, then
// roll member scores up to their ad groups.
type Service struct {
	tiktok  *TikTokCalculator
	meta    *MetaCalculator
	unified *UnifiedCalculator
	groups  *GroupScorer

	contents contracts.ContentReader
	scores   contracts.ScoreWriter
	adGroups contracts.AdGroupReader
	skus     contracts.SkuSignalReader

	skuCache *redis.Cache
	epsilon  float64
	logger   *logger.Logger
}

// NewService wires the scoring pass from the parameter set
func NewService(
	cfg *engineconfig.Config,
	contents contracts.ContentReader,
	scores contracts.ScoreWriter,
	adGroups contracts.AdGroupReader,
	skus contracts.SkuSignalReader,
	skuCache *redis.Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		tiktok:   NewTikTokCalculator(cfg.Scoring.TikTok, log),
		meta:     NewMetaCalculator(cfg.Scoring.Meta, log),
		unified:  NewUnifiedCalculator(cfg.Scoring.Weights, log),
		groups:   NewGroupScorer(log),
		contents: contents,
		scores:   scores,
		adGroups: adGroups,
		skus:     skus,
		skuCache: skuCache,
		epsilon:  cfg.Scoring.ScoreEpsilon,
		logger:   log,
	}
}

// PassResult summarizes one scoring pass
type PassResult struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	Scored       int       `json:"scored"`
	Unchanged    int       `json:"unchanged"`
	Insufficient int       `json:"insufficient"`
	Failed       int       `json:"failed"`
	GroupsScored int       `json:"groups_scored"`
}

// RunPass scores every scorable content item and current-plan ad group.
// Item failures are logged and skipped; the pass keeps going so one bad
// row cannot stall the whole schedule.
func (s *Service) RunPass(ctx context.Context, now time.Time) (*PassResult, error) {
	runID := uuid.NewString()
	result := &PassResult{RunID: runID, StartedAt: now}

	log := s.logger.WithField("run_id", runID)
	log.Info("Scoring pass started")

	items, err := s.contents.ListScorable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scorable content: %w", err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		changed, err := s.scoreItem(ctx, item, now, runID)
		if err != nil {
			result.Failed++
			log.WithError(err).WithField("content_id", item.ID).Error("Failed to score content")
			continue
		}
		if item.ScoreDetails.Reason == contracts.ReasonInsufficientData {
			result.Insufficient++
		}
		if changed {
			result.Scored++
		} else {
			result.Unchanged++
		}
	}

	groups, err := s.adGroups.ListCurrentPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list current-plan ad groups: %w", err)
	}
	for _, group := range groups {
		changed, err := s.scoreGroup(ctx, group, now)
		if err != nil {
			result.Failed++
			log.WithError(err).WithField("ad_group_id", group.ID).Error("Failed to score ad group")
			continue
		}
		if changed {
			result.GroupsScored++
		}
	}

	log.WithFields(map[string]interface{}{
		"items":         len(items),
		"scored":        result.Scored,
		"unchanged":     result.Unchanged,
		"insufficient":  result.Insufficient,
		"failed":        result.Failed,
		"groups_scored": result.GroupsScored,
	}).Info("Scoring pass finished")

	return result, nil
}

// scoreItem recomputes one item's scores. Persists and snapshots only
// when the unified score moved by more than epsilon, so rerunning the
// pass on unchanged metrics writes nothing.
func (s *Service) scoreItem(ctx context.Context, item *contracts.ContentItem, now time.Time, runID string) (bool, error) {
	platformScores := map[contracts.Platform]float64{}
	breakdown := contracts.ScoreBreakdown{Components: map[string]float64{}}
	var sources SourceScores

	if s.hasNoSignal(item) {
		// Nothing to score: zero is a data gap, not bad performance
		breakdown.Reason = contracts.ReasonInsufficientData
	} else {
		if item.Platform == contracts.PlatformTikTok || item.TikTokAds != nil {
			score, bd, err := s.tiktok.Calculate(ctx, item)
			if err != nil {
				return false, fmt.Errorf("tiktok score: %w", err)
			}
			platformScores[contracts.PlatformTikTok] = score
			sources.TikTok = &score
			mergeComponents(breakdown.Components, "tiktok_", bd.Components)
		}

		if item.Platform.IsMeta() || item.MetaAds != nil {
			score, bd, err := s.meta.Calculate(ctx, item)
			if err != nil {
				return false, fmt.Errorf("meta score: %w", err)
			}
			platformScores[metaScoreKey(item)] = score
			sources.Meta = &score
			mergeComponents(breakdown.Components, "meta_", bd.Components)
		}

		if demand, ok := s.skuDemand(ctx, item, now); ok {
			sources.Sku = &demand
		}
	}

	unifiedScore, unifiedBD := s.unified.Calculate(item, sources, now)
	mergeComponents(breakdown.Components, "", unifiedBD.Components)
	if unifiedBD.Reason != "" {
		breakdown.Reason = unifiedBD.Reason
	}

	if !s.scoreMoved(item, unifiedScore, platformScores) {
		return false, nil
	}

	item.PlatformScores = platformScores
	item.UnifiedScore = unifiedScore
	item.ScoreDetails = breakdown
	scoredAt := now
	item.ScoredAt = &scoredAt

	if err := s.scores.SaveScores(ctx, item); err != nil {
		return false, fmt.Errorf("save scores: %w", err)
	}
	if err := s.scores.AppendSnapshot(ctx, &contracts.ScoreSnapshot{
		ContentID:      item.ID,
		PlatformScores: platformScores,
		UnifiedScore:   unifiedScore,
		Breakdown:      breakdown,
		RunID:          runID,
		CreatedAt:      now,
	}); err != nil {
		return false, fmt.Errorf("append score snapshot: %w", err)
	}

	return true, nil
}

func (s *Service) scoreGroup(ctx context.Context, group *contracts.AdGroup, now time.Time) (bool, error) {
	if len(group.MemberContentIDs) == 0 {
		return false, nil
	}
	members, err := s.contents.GetByIDs(ctx, group.MemberContentIDs)
	if err != nil {
		return false, fmt.Errorf("load group members: %w", err)
	}

	score := s.groups.Score(group, members)
	if math.Abs(score-group.Score) <= s.epsilon && group.ScoredAt != nil {
		return false, nil
	}

	if err := s.scores.SaveGroupScore(ctx, group.ID, score, now); err != nil {
		return false, fmt.Errorf("save group score: %w", err)
	}
	group.Score = score
	scoredAt := now
	group.ScoredAt = &scoredAt
	return true, nil
}

// hasNoSignal reports whether the item has neither organic reach nor ad
// spend on any platform
func (s *Service) hasNoSignal(item *contracts.ContentItem) bool {
	o := item.Organic
	if o.Views > 0 || o.Impressions > 0 || o.Reach > 0 {
		return false
	}
	return !item.TotalSpend().IsPositive()
}

// skuDemand returns the mean demand score of the item's product codes.
// Signals are cached per code; cache misses fall through to the store.
func (s *Service) skuDemand(ctx context.Context, item *contracts.ContentItem, now time.Time) (float64, bool) {
	if len(item.ProductCodes) == 0 {
		return 0, false
	}

	day := now.Format("2006-01-02")
	var signals []*contracts.SkuSignal
	var misses []string

	for _, code := range item.ProductCodes {
		var sig contracts.SkuSignal
		hit, err := s.skuCache.Get(ctx, "sku:"+code+":"+day, &sig)
		if err != nil {
			s.logger.WithError(err).WithField("sku", code).Warn("SKU cache read failed")
		}
		if hit {
			signals = append(signals, &sig)
		} else {
			misses = append(misses, code)
		}
	}

	if len(misses) > 0 {
		fetched, err := s.skus.LatestByCodes(ctx, misses, now)
		if err != nil {
			s.logger.WithError(err).WithField("content_id", item.ID).Warn("SKU signal lookup failed")
		} else {
			for _, sig := range fetched {
				signals = append(signals, sig)
				if err := s.skuCache.Set(ctx, "sku:"+sig.SKU+":"+day, sig, skuCacheTTL); err != nil {
					s.logger.WithError(err).WithField("sku", sig.SKU).Warn("SKU cache write failed")
				}
			}
		}
	}

	if len(signals) == 0 {
		return 0, false
	}

	sum := 0.0
	for _, sig := range signals {
		sum += sig.DemandScore
	}
	return clamp(sum/float64(len(signals)), 0, 100), true
}

func (s *Service) scoreMoved(item *contracts.ContentItem, unified float64, platform map[contracts.Platform]float64) bool {
	if item.ScoredAt == nil {
		return true
	}
	if math.Abs(unified-item.UnifiedScore) > s.epsilon {
		return true
	}
	if len(platform) != len(item.PlatformScores) {
		return true
	}
	for p, v := range platform {
		if math.Abs(v-item.PlatformScores[p]) > s.epsilon {
			return true
		}
	}
	return false
}

// metaScoreKey keys the Meta platform score under the item's own
// platform when it is a Meta surface, otherwise under facebook (the
// item is cross-posted and the ads ran there)
func metaScoreKey(item *contracts.ContentItem) contracts.Platform {
	if item.Platform.IsMeta() {
		return item.Platform
	}
	return contracts.PlatformFacebook
}

func mergeComponents(dst map[string]float64, prefix string, src map[string]float64) {
	for k, v := range src {
		dst[prefix+k] = v
	}
}
