package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// SkuSignal is the per-SKU-per-day demand signal aggregated from online
// sales, store scans and offline channel sell-through. Read-only input
// to the unified score.
type SkuSignal struct {
	SKU  string    `json:"sku"`
	Date time.Time `json:"date"`

	DemandScore float64 `json:"demand_score"` // 0 ~ 100
	TrendPct    float64 `json:"trend_pct"`    // vs previous period

	// Raw aggregates behind the score
	OnlineRevenue decimal.Decimal `json:"online_revenue"`
	OnlineOrders  int64           `json:"online_orders"`
	ScanCount     int64           `json:"scan_count"`
	OfflineUnits  int64           `json:"offline_units"`
}
