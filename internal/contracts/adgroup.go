package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdGroup is a platform ad group managed by the engine. In multi-item
// mode ad groups are the spending targets; in single-item mode each ad
// group wraps exactly one content item and the item itself is the target.
type AdGroup struct {
	ID                 int64    `json:"id"`
	Platform           Platform `json:"platform"`
	ExternalAdGroupID  string   `json:"external_adgroup_id"`
	ExternalCampaignID string   `json:"external_campaign_id,omitempty"`
	Name               string   `json:"name"`

	Structure GroupStructure `json:"structure"`
	Style     ContentStyle   `json:"style"`
	GroupID   int64          `json:"group_id"` // spending group

	Active      bool `json:"active"`
	CurrentPlan bool `json:"current_plan"` // part of the currently active budget plan

	// Aggregated delivery performance
	Spend       decimal.Decimal `json:"spend"`
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	Conversions int64           `json:"conversions"`
	Frequency   float64         `json:"frequency,omitempty"` // Meta only
	ROAS        float64         `json:"roas,omitempty"`

	// Derived score, aggregated over member content items
	Score    float64    `json:"score"`
	ScoredAt *time.Time `json:"scored_at,omitempty"`

	MemberContentIDs []int64 `json:"member_content_ids,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CTR returns clicks over impressions
func (g *AdGroup) CTR() float64 {
	if g.Impressions == 0 {
		return 0
	}
	return float64(g.Clicks) / float64(g.Impressions)
}
