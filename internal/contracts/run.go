package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// RunStatus is the terminal state of an optimization run
type RunStatus string

const (
	RunApplied   RunStatus = "applied"
	RunPreviewed RunStatus = "previewed"
	RunFailed    RunStatus = "failed"
)

// ReasonCode explains one budget change inside a run
type ReasonCode string

const (
	ReasonThresholdCut      ReasonCode = "THRESHOLD_CUT"
	ReasonScoreBoost        ReasonCode = "SCORE_BOOST"
	ReasonScoreReduce       ReasonCode = "SCORE_REDUCE"
	ReasonUnchanged         ReasonCode = "UNCHANGED"
	ReasonLockedSkipped     ReasonCode = "LOCKED_SKIPPED"
	ReasonTargetDropped     ReasonCode = "TARGET_DROPPED"
	ReasonPauseCandidate    ReasonCode = "PAUSE_CANDIDATE"
	ReasonNoEligibleTargets ReasonCode = "NO_ELIGIBLE_TARGETS"
)

// BudgetChange is one target's before/after inside a run
type BudgetChange struct {
	Kind     TargetKind   `json:"kind"`
	TargetID int64        `json:"target_id"`
	Style    ContentStyle `json:"style"`

	OldBudget decimal.Decimal `json:"old_budget"`
	NewBudget decimal.Decimal `json:"new_budget"`

	Reason ReasonCode `json:"reason"`
}

// PushDirective is the engine's instruction to the external platform-API
// client: set this target's daily budget on its platform. Push success or
// failure never changes the engine's committed state.
type PushDirective struct {
	Kind       TargetKind      `json:"kind"`
	TargetID   int64           `json:"target_id"`
	ExternalID string          `json:"external_id,omitempty"`
	Platform   Platform        `json:"platform"`
	NewBudget  decimal.Decimal `json:"new_budget"`
	Date       time.Time       `json:"date"`
}

// OptimizationRun is the append-only audit record of one reallocation
// invocation, proposed (dry run) or applied.
type OptimizationRun struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`

	Mode         AllocationMode `json:"mode"`
	PlanID       int64          `json:"plan_id"`
	AllocationID int64          `json:"allocation_id"`
	Date         time.Time      `json:"date"`
	DryRun       bool           `json:"dry_run"`

	Status        RunStatus `json:"status"`
	FailureReason string    `json:"failure_reason,omitempty"`

	// Hash of the engine parameter set the run was computed with
	ConfigHash string `json:"config_hash,omitempty"`

	// Ordered changes, one per target considered
	Changes []BudgetChange `json:"changes"`

	// Style bucket totals after rebalancing
	StyleTotals map[ContentStyle]decimal.Decimal `json:"style_totals,omitempty"`

	// Pool left unallocated (non-zero only when no targets were eligible)
	UnallocatedPool decimal.Decimal `json:"unallocated_pool"`

	// Directives emitted for the platform-push collaborator
	Directives []PushDirective `json:"directives,omitempty"`
}

// TotalAfter returns the sum of all new budgets in the run
func (r *OptimizationRun) TotalAfter() decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.Changes {
		total = total.Add(c.NewBudget)
	}
	return total
}

// ChangedCount returns the number of targets whose budget actually moved
func (r *OptimizationRun) ChangedCount() int {
	n := 0
	for _, c := range r.Changes {
		if !c.OldBudget.Equal(c.NewBudget) {
			n++
		}
	}
	return n
}
