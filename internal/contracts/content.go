package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContentItem is a piece of content (video/post) tracked across platforms.
// Owned by the content sync collaborators; the engine only reads metrics
// and writes the score fields back.
type ContentItem struct {
	ID             int64    `json:"id"`
	Platform       Platform `json:"platform"`
	PlatformPostID string   `json:"platform_post_id"`
	Caption        string   `json:"caption,omitempty"`

	Style  ContentStyle  `json:"style"`
	Source ContentSource `json:"source,omitempty"`
	Status ContentStatus `json:"status"`

	// Spending group this content competes in for budget
	GroupID      int64    `json:"group_id"`
	ProductCodes []string `json:"product_codes,omitempty"`

	Organic OrganicMetrics `json:"organic"`

	// Per-platform ad metrics. Either may be nil when the platform has
	// not produced ads for this item.
	TikTokAds *TikTokAdMetrics `json:"tiktok_ads,omitempty"`
	MetaAds   *MetaAdMetrics   `json:"meta_ads,omitempty"`

	// Score fields (written back by the scoring pass)
	PlatformScores map[Platform]float64 `json:"platform_scores,omitempty"`
	UnifiedScore   float64              `json:"unified_score"`
	ScoreDetails   ScoreBreakdown       `json:"score_details"`
	ScoredAt       *time.Time           `json:"scored_at,omitempty"`

	// Boost multiplier, only effective inside its window
	BoostFactor float64    `json:"boost_factor"`
	BoostStart  *time.Time `json:"boost_start,omitempty"`
	BoostEnd    *time.Time `json:"boost_end,omitempty"`
	BoostReason string     `json:"boost_reason,omitempty"`

	ExpireAt  *time.Time `json:"expire_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// OrganicMetrics holds platform-reported organic performance
type OrganicMetrics struct {
	Views       int64 `json:"views"`
	Impressions int64 `json:"impressions"`
	Reach       int64 `json:"reach"`
	Likes       int64 `json:"likes"`
	Comments    int64 `json:"comments"`
	Shares      int64 `json:"shares"`
	Saves       int64 `json:"saves"`

	VideoDuration  float64 `json:"video_duration,omitempty"`  // seconds
	AvgWatchTime   float64 `json:"avg_watch_time,omitempty"`  // seconds
	CompletionRate float64 `json:"completion_rate,omitempty"` // 0.0 ~ 1.0
}

// EngagementRate returns (likes+comments+shares+saves)/views, 0 when no views
func (m OrganicMetrics) EngagementRate() float64 {
	if m.Views == 0 {
		return 0
	}
	return float64(m.Likes+m.Comments+m.Shares+m.Saves) / float64(m.Views)
}

// WatchRatio returns avg watch time over duration, falling back to the
// platform-reported completion rate when duration is unknown
func (m OrganicMetrics) WatchRatio() float64 {
	if m.VideoDuration > 0 && m.AvgWatchTime > 0 {
		r := m.AvgWatchTime / m.VideoDuration
		if r > 1.0 {
			r = 1.0
		}
		return r
	}
	return m.CompletionRate
}

// TikTokAdMetrics holds TikTok ad delivery metrics for one content item
type TikTokAdMetrics struct {
	Spend       decimal.Decimal `json:"spend"`
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Conversions int64           `json:"conversions"`
	ROAS        float64         `json:"roas"`
}

// CTR returns clicks over impressions
func (m TikTokAdMetrics) CTR() float64 {
	if m.Impressions == 0 {
		return 0
	}
	return float64(m.Clicks) / float64(m.Impressions)
}

// CVR returns conversions over clicks
func (m TikTokAdMetrics) CVR() float64 {
	if m.Clicks == 0 {
		return 0
	}
	return float64(m.Conversions) / float64(m.Clicks)
}

// MetaAdMetrics holds Facebook/Instagram ad delivery metrics for one content item
type MetaAdMetrics struct {
	Spend       decimal.Decimal `json:"spend"`
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Results     int64           `json:"results"`
	ROAS        float64         `json:"roas"`
	Frequency   float64         `json:"frequency"`

	ThruPlays    int64 `json:"thruplays"`
	VideoViews3s int64 `json:"video_views_3s"`
}

// CTR returns clicks over impressions
func (m MetaAdMetrics) CTR() float64 {
	if m.Impressions == 0 {
		return 0
	}
	return float64(m.Clicks) / float64(m.Impressions)
}

// CPC returns spend per click
func (m MetaAdMetrics) CPC() float64 {
	if m.Clicks == 0 {
		return 0
	}
	f, _ := m.Spend.Float64()
	return f / float64(m.Clicks)
}

// CostPerResult returns spend per result
func (m MetaAdMetrics) CostPerResult() float64 {
	if m.Results == 0 {
		return 0
	}
	f, _ := m.Spend.Float64()
	return f / float64(m.Results)
}

// CompletionRate returns thruplays over 3-second views
func (m MetaAdMetrics) CompletionRate() float64 {
	if m.VideoViews3s == 0 {
		return 0
	}
	return float64(m.ThruPlays) / float64(m.VideoViews3s)
}

// ScoreBreakdown explains how a score was computed
type ScoreBreakdown struct {
	Components map[string]float64 `json:"components,omitempty"`
	Reason     string             `json:"reason,omitempty"`
}

// ReasonInsufficientData marks content scored as zero because there was
// nothing to score, rather than because it performed badly.
const ReasonInsufficientData = "insufficient_data"

// TotalSpend returns ad spend summed across platforms
func (c *ContentItem) TotalSpend() decimal.Decimal {
	total := decimal.Zero
	if c.TikTokAds != nil {
		total = total.Add(c.TikTokAds.Spend)
	}
	if c.MetaAds != nil {
		total = total.Add(c.MetaAds.Spend)
	}
	return total
}

// IsExpired reports whether the content is past its expiry date
func (c *ContentItem) IsExpired(now time.Time) bool {
	if c.Status == StatusExpired {
		return true
	}
	return c.ExpireAt != nil && now.After(*c.ExpireAt)
}

// IsServable reports whether the content can carry ad budget
func (c *ContentItem) IsServable(now time.Time) bool {
	if c.IsExpired(now) || c.Status == StatusPaused {
		return false
	}
	return c.Status == StatusReady || c.Status == StatusTestAd || c.Status == StatusActive
}

// EffectiveBoost returns the boost multiplier if the boost window covers
// now, otherwise 1.0
func (c *ContentItem) EffectiveBoost(now time.Time) float64 {
	if c.BoostFactor <= 0 || c.BoostFactor == 1.0 {
		return 1.0
	}
	if c.BoostStart != nil && now.Before(*c.BoostStart) {
		return 1.0
	}
	if c.BoostEnd != nil && now.After(*c.BoostEnd) {
		return 1.0
	}
	return c.BoostFactor
}

// ScoreSnapshot is one row of the append-only score history
type ScoreSnapshot struct {
	ID             int64                `json:"id"`
	ContentID      int64                `json:"content_id"`
	PlatformScores map[Platform]float64 `json:"platform_scores,omitempty"`
	UnifiedScore   float64              `json:"unified_score"`
	Breakdown      ScoreBreakdown       `json:"breakdown"`
	RunID          string               `json:"run_id"` // scoring pass correlation id
	CreatedAt      time.Time            `json:"created_at"`
}
