package budget

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/starcontent/adpulse/internal/contracts"
)

const weightTolerance = 1e-6

// ValidatePlan rejects a budget plan with a non-positive total, an
// inverted period or a platform split that does not sum to 1.0
func ValidatePlan(plan *contracts.BudgetPlan) error {
	if !plan.TotalBudget.IsPositive() {
		return contracts.NewValidationError("total_budget", "must be positive, got %s", plan.TotalBudget)
	}
	if plan.EndDate.Before(plan.StartDate) {
		return contracts.NewValidationError("end_date", "must not precede start_date")
	}
	if len(plan.PlatformSplit) > 0 {
		sum := 0.0
		for platform, frac := range plan.PlatformSplit {
			if frac < 0 {
				return contracts.NewValidationError("platform_split",
					"fraction for %s must be >= 0, got %f", platform, frac)
			}
			sum += frac
		}
		if math.Abs(sum-1.0) > weightTolerance {
			return contracts.NewValidationError("platform_split",
				"fractions must sum to 1.0, got %f", sum)
		}
	}
	return nil
}

// ValidateAllocation rejects an allocation whose style weights do not
// sum to 1.0 or whose budget is negative
func ValidateAllocation(alloc *contracts.BudgetAllocation) error {
	if alloc.AllocatedBudget.IsNegative() {
		return contracts.NewValidationError("allocated_budget",
			"must be >= 0, got %s", alloc.AllocatedBudget)
	}
	if len(alloc.StyleWeights) == 0 {
		return contracts.NewValidationError("style_weights", "at least one style weight required")
	}
	sum := 0.0
	for style, w := range alloc.StyleWeights {
		if w < 0 {
			return contracts.NewValidationError("style_weights",
				"weight for %s must be >= 0, got %f", style, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return contracts.NewValidationError("style_weights",
			"weights must sum to 1.0, got %f", sum)
	}
	return nil
}

// ValidateDailyBudget rejects a daily slice whose style breakdown does
// not sum to the planned amount
func ValidateDailyBudget(db *contracts.DailyBudget) error {
	if db.PlannedBudget.IsNegative() {
		return contracts.NewValidationError("planned_budget",
			"must be >= 0, got %s", db.PlannedBudget)
	}
	for style, amount := range db.StyleBudgets {
		if amount.IsNegative() {
			return contracts.NewValidationError("style_budgets",
				"amount for %s must be >= 0, got %s", style, amount)
		}
	}
	if len(db.StyleBudgets) > 0 && !db.StyleTotal().Equal(db.PlannedBudget) {
		return contracts.NewValidationError("style_budgets",
			"breakdown sums to %s, planned budget is %s", db.StyleTotal(), db.PlannedBudget)
	}
	return nil
}

// SumTargets returns the sum of planned budgets over target rows
func SumTargets(targets []*contracts.TargetBudget) decimal.Decimal {
	total := decimal.Zero
	for _, t := range targets {
		total = total.Add(t.PlannedBudget)
	}
	return total
}
