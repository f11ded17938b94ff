package contracts

import (
	"context"
	"time"
)

// ContentReader reads content items and their metrics
type ContentReader interface {
	// ListScorable returns content that is not expired or deleted
	ListScorable(ctx context.Context) ([]*ContentItem, error)

	// ListByGroup returns servable content in one spending group
	ListByGroup(ctx context.Context, groupID int64) ([]*ContentItem, error)

	// GetByIDs returns content items by id, preserving input order
	GetByIDs(ctx context.Context, ids []int64) ([]*ContentItem, error)
}

// ScoreWriter persists score results and history
type ScoreWriter interface {
	// SaveScores writes platform/unified scores back onto the content row
	SaveScores(ctx context.Context, item *ContentItem) error

	// AppendSnapshot appends one score-history row
	AppendSnapshot(ctx context.Context, snap *ScoreSnapshot) error

	// SaveGroupScore writes the aggregated score onto an ad group
	SaveGroupScore(ctx context.Context, groupID int64, score float64, at time.Time) error
}

// AdGroupReader reads managed ad groups
type AdGroupReader interface {
	// ListAdGroupsByGroup returns active ad groups in one spending group
	ListAdGroupsByGroup(ctx context.Context, groupID int64) ([]*AdGroup, error)

	// ListCurrentPlan returns active ad groups in the current budget plan
	ListCurrentPlan(ctx context.Context) ([]*AdGroup, error)
}

// SkuSignalReader reads the latest demand signals
type SkuSignalReader interface {
	// LatestByCodes returns the most recent signal at or before date for
	// each product code that has one
	LatestByCodes(ctx context.Context, codes []string, date time.Time) ([]*SkuSignal, error)
}

// BudgetStore reads and writes the budget hierarchy
type BudgetStore interface {
	ListActivePlans(ctx context.Context, date time.Time) ([]*BudgetPlan, error)
	GetPlan(ctx context.Context, planID int64) (*BudgetPlan, error)
	ListAllocations(ctx context.Context, planID int64) ([]*BudgetAllocation, error)
	GetAllocation(ctx context.Context, allocationID int64) (*BudgetAllocation, error)

	GetDailyBudget(ctx context.Context, allocationID int64, date time.Time) (*DailyBudget, error)
	CreateDailyBudget(ctx context.Context, db *DailyBudget) error

	ListTargetBudgets(ctx context.Context, allocationID int64, date time.Time) ([]*TargetBudget, error)

	// CommitReallocation atomically rewrites the daily budget's style
	// breakdown and target rows, guarded by the version counter. Returns
	// *ConflictError when expectedVersion is stale.
	CommitReallocation(ctx context.Context, db *DailyBudget, targets []*TargetBudget, expectedVersion int64) error
}

// RunStore persists optimization runs (append-only)
type RunStore interface {
	Append(ctx context.Context, run *OptimizationRun) error
	ListByAllocation(ctx context.Context, allocationID int64, limit int) ([]*OptimizationRun, error)
}
