package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPlan is a time-bounded total advertising budget
type BudgetPlan struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	TotalBudget decimal.Decimal `json:"total_budget"`
	Mode        AllocationMode  `json:"mode"`

	// Per-platform budget split, fractions summing to 1.0
	PlatformSplit map[Platform]float64 `json:"platform_split,omitempty"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Covers reports whether the plan period includes the given date
func (p *BudgetPlan) Covers(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}

// BudgetAllocation assigns part of a plan to one spending group
type BudgetAllocation struct {
	ID      int64 `json:"id"`
	PlanID  int64 `json:"plan_id"`
	GroupID int64 `json:"group_id"` // spending group (product/content cohort)

	AllocatedBudget decimal.Decimal `json:"allocated_budget"`
	ActualSpend     decimal.Decimal `json:"actual_spend"`

	// Locked allocations are never touched by reallocation
	Locked bool `json:"locked"`

	// Style mix, fractions per content style summing to 1.0
	StyleWeights map[ContentStyle]float64 `json:"style_weights"`

	LastOptimizedAt *time.Time `json:"last_optimized_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DailyBudget is one allocation's slice for a single calendar date.
// Rewritten in place by the engine; Version is the optimistic-concurrency
// counter that serializes reallocation runs per (allocation, date).
type DailyBudget struct {
	ID           int64     `json:"id"`
	AllocationID int64     `json:"allocation_id"`
	Date         time.Time `json:"date"`

	PlannedBudget decimal.Decimal `json:"planned_budget"`
	ActualSpend   decimal.Decimal `json:"actual_spend"`

	Locked bool `json:"locked"`

	// Per-style breakdown; must sum to PlannedBudget
	StyleBudgets map[ContentStyle]decimal.Decimal `json:"style_budgets"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StyleTotal returns the sum of the style breakdown
func (d *DailyBudget) StyleTotal() decimal.Decimal {
	total := decimal.Zero
	for _, v := range d.StyleBudgets {
		total = total.Add(v)
	}
	return total
}

// TargetKind distinguishes the two spending-target flavours
type TargetKind string

const (
	TargetContent TargetKind = "content"
	TargetAdGroup TargetKind = "adgroup"
)

// TargetBudget is the per-target daily planned budget under one
// allocation. The engine rewrites these rows; locked rows are never
// modified and their amount is excluded from the redistributable pool.
type TargetBudget struct {
	ID           int64     `json:"id"`
	AllocationID int64     `json:"allocation_id"`
	Date         time.Time `json:"date"`

	Kind     TargetKind   `json:"kind"`
	TargetID int64        `json:"target_id"`
	Style    ContentStyle `json:"style"`

	PlannedBudget decimal.Decimal `json:"planned_budget"`
	ActualSpend   decimal.Decimal `json:"actual_spend"`

	Locked bool `json:"locked"`
}
