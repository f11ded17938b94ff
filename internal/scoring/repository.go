package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starcontent/adpulse/internal/contracts"
)

// Repository handles content, ad group and SKU signal persistence
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new scoring repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var (
	_ contracts.ContentReader   = (*Repository)(nil)
	_ contracts.ScoreWriter     = (*Repository)(nil)
	_ contracts.AdGroupReader   = (*Repository)(nil)
	_ contracts.SkuSignalReader = (*Repository)(nil)
)

const contentColumns = `
	id, platform, platform_post_id, caption, style, source, status,
	group_id, product_codes, organic, tiktok_ads, meta_ads,
	platform_scores, unified_score, score_details, scored_at,
	boost_factor, boost_start, boost_end, boost_reason,
	expire_at, created_at
`

// ListScorable returns content that is not expired or deleted
func (r *Repository) ListScorable(ctx context.Context) ([]*contracts.ContentItem, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM content.items
		WHERE status != 'expired'
		  AND (expire_at IS NULL OR expire_at > NOW())
		  AND deleted_at IS NULL
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scorable content: %w", err)
	}
	defer rows.Close()

	return scanContentItems(rows)
}

// ListByGroup returns servable content in one spending group
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*contracts.ContentItem, error) {
	query := `
		SELECT ` + contentColumns + `
		FROM content.items
		WHERE group_id = $1
		  AND status IN ('ready', 'test_ad', 'active_ad')
		  AND (expire_at IS NULL OR expire_at > NOW())
		  AND deleted_at IS NULL
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group content: %w", err)
	}
	defer rows.Close()

	return scanContentItems(rows)
}

// GetByIDs returns content items by id, preserving input order
func (r *Repository) GetByIDs(ctx context.Context, ids []int64) ([]*contracts.ContentItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + contentColumns + `
		FROM content.items
		WHERE id = ANY($1) AND deleted_at IS NULL
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query content by ids: %w", err)
	}
	defer rows.Close()

	items, err := scanContentItems(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*contracts.ContentItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	ordered := make([]*contracts.ContentItem, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered, nil
}

// SaveScores writes platform/unified scores back onto the content row
func (r *Repository) SaveScores(ctx context.Context, item *contracts.ContentItem) error {
	platformScores, err := json.Marshal(item.PlatformScores)
	if err != nil {
		return fmt.Errorf("failed to marshal platform scores: %w", err)
	}
	details, err := json.Marshal(item.ScoreDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal score details: %w", err)
	}

	query := `
		UPDATE content.items
		SET platform_scores = $2, unified_score = $3, score_details = $4, scored_at = $5
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		item.ID, platformScores, item.UnifiedScore, details, item.ScoredAt)
	if err != nil {
		return fmt.Errorf("failed to save scores: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("content %d not found", item.ID)
	}
	return nil
}

// AppendSnapshot appends one score-history row
func (r *Repository) AppendSnapshot(ctx context.Context, snap *contracts.ScoreSnapshot) error {
	platformScores, err := json.Marshal(snap.PlatformScores)
	if err != nil {
		return fmt.Errorf("failed to marshal platform scores: %w", err)
	}
	breakdown, err := json.Marshal(snap.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal breakdown: %w", err)
	}

	query := `
		INSERT INTO content.score_history (
			content_id, platform_scores, unified_score, breakdown, run_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.pool.Exec(ctx, query,
		snap.ContentID, platformScores, snap.UnifiedScore, breakdown, snap.RunID, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append score snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the most recent score-history rows for one item
func (r *Repository) ListSnapshots(ctx context.Context, contentID int64, limit int) ([]*contracts.ScoreSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, content_id, platform_scores, unified_score, breakdown, run_id, created_at
		FROM content.score_history
		WHERE content_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, contentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	var snaps []*contracts.ScoreSnapshot
	for rows.Next() {
		var (
			snap           contracts.ScoreSnapshot
			platformScores []byte
			breakdown      []byte
		)
		if err := rows.Scan(
			&snap.ID, &snap.ContentID, &platformScores, &snap.UnifiedScore,
			&breakdown, &snap.RunID, &snap.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan score snapshot: %w", err)
		}
		if len(platformScores) > 0 {
			if err := json.Unmarshal(platformScores, &snap.PlatformScores); err != nil {
				return nil, fmt.Errorf("failed to unmarshal platform scores: %w", err)
			}
		}
		if err := json.Unmarshal(breakdown, &snap.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal breakdown: %w", err)
		}
		snaps = append(snaps, &snap)
	}
	return snaps, rows.Err()
}

// SaveGroupScore writes the aggregated score onto an ad group
func (r *Repository) SaveGroupScore(ctx context.Context, groupID int64, score float64, at time.Time) error {
	query := `UPDATE content.ad_groups SET score = $2, scored_at = $3 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, groupID, score, at)
	if err != nil {
		return fmt.Errorf("failed to save ad group score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ad group %d not found", groupID)
	}
	return nil
}

const adGroupColumns = `
	id, platform, external_adgroup_id, external_campaign_id, name,
	structure, style, group_id, active, current_plan,
	spend, impressions, clicks, conversions, frequency, roas,
	score, scored_at, member_content_ids, created_at
`

// ListAdGroupsByGroup returns active ad groups in one spending group
func (r *Repository) ListAdGroupsByGroup(ctx context.Context, groupID int64) ([]*contracts.AdGroup, error) {
	query := `
		SELECT ` + adGroupColumns + `
		FROM content.ad_groups
		WHERE group_id = $1 AND active
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ad groups: %w", err)
	}
	defer rows.Close()

	return scanAdGroups(rows)
}

// ListCurrentPlan returns active ad groups in the current budget plan
func (r *Repository) ListCurrentPlan(ctx context.Context) ([]*contracts.AdGroup, error) {
	query := `
		SELECT ` + adGroupColumns + `
		FROM content.ad_groups
		WHERE active AND current_plan
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query current-plan ad groups: %w", err)
	}
	defer rows.Close()

	return scanAdGroups(rows)
}

// LatestByCodes returns the most recent signal at or before date for
// each product code that has one
func (r *Repository) LatestByCodes(ctx context.Context, codes []string, date time.Time) ([]*contracts.SkuSignal, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT ON (sku)
			sku, signal_date, demand_score, trend_pct,
			online_revenue, online_orders, scan_count, offline_units
		FROM content.sku_signals
		WHERE sku = ANY($1) AND signal_date <= $2
		ORDER BY sku, signal_date DESC
	`

	rows, err := r.pool.Query(ctx, query, codes, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query sku signals: %w", err)
	}
	defer rows.Close()

	var signals []*contracts.SkuSignal
	for rows.Next() {
		var sig contracts.SkuSignal
		if err := rows.Scan(
			&sig.SKU, &sig.Date, &sig.DemandScore, &sig.TrendPct,
			&sig.OnlineRevenue, &sig.OnlineOrders, &sig.ScanCount, &sig.OfflineUnits,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sku signal: %w", err)
		}
		signals = append(signals, &sig)
	}
	return signals, rows.Err()
}

func scanContentItems(rows pgx.Rows) ([]*contracts.ContentItem, error) {
	var items []*contracts.ContentItem
	for rows.Next() {
		var (
			item           contracts.ContentItem
			organic        []byte
			tiktokAds      []byte
			metaAds        []byte
			platformScores []byte
			details        []byte
		)
		if err := rows.Scan(
			&item.ID, &item.Platform, &item.PlatformPostID, &item.Caption,
			&item.Style, &item.Source, &item.Status,
			&item.GroupID, &item.ProductCodes, &organic, &tiktokAds, &metaAds,
			&platformScores, &item.UnifiedScore, &details, &item.ScoredAt,
			&item.BoostFactor, &item.BoostStart, &item.BoostEnd, &item.BoostReason,
			&item.ExpireAt, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan content item: %w", err)
		}

		if err := json.Unmarshal(organic, &item.Organic); err != nil {
			return nil, fmt.Errorf("failed to unmarshal organic metrics: %w", err)
		}
		if len(tiktokAds) > 0 {
			item.TikTokAds = &contracts.TikTokAdMetrics{}
			if err := json.Unmarshal(tiktokAds, item.TikTokAds); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tiktok ad metrics: %w", err)
			}
		}
		if len(metaAds) > 0 {
			item.MetaAds = &contracts.MetaAdMetrics{}
			if err := json.Unmarshal(metaAds, item.MetaAds); err != nil {
				return nil, fmt.Errorf("failed to unmarshal meta ad metrics: %w", err)
			}
		}
		if len(platformScores) > 0 {
			if err := json.Unmarshal(platformScores, &item.PlatformScores); err != nil {
				return nil, fmt.Errorf("failed to unmarshal platform scores: %w", err)
			}
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &item.ScoreDetails); err != nil {
				return nil, fmt.Errorf("failed to unmarshal score details: %w", err)
			}
		}

		items = append(items, &item)
	}
	return items, rows.Err()
}

func scanAdGroups(rows pgx.Rows) ([]*contracts.AdGroup, error) {
	var groups []*contracts.AdGroup
	for rows.Next() {
		var g contracts.AdGroup
		if err := rows.Scan(
			&g.ID, &g.Platform, &g.ExternalAdGroupID, &g.ExternalCampaignID, &g.Name,
			&g.Structure, &g.Style, &g.GroupID, &g.Active, &g.CurrentPlan,
			&g.Spend, &g.Impressions, &g.Clicks, &g.Conversions, &g.Frequency, &g.ROAS,
			&g.Score, &g.ScoredAt, &g.MemberContentIDs, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ad group: %w", err)
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}
