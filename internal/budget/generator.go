package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/pkg/logger"
)

// Generator materializes daily budget slices from plan allocations.
// Each allocation's budget is spread evenly over the plan period and the
// daily amount is split across styles by the allocation's weights.
type Generator struct {
	store  contracts.BudgetStore
	logger *logger.Logger
}

// NewGenerator creates a new daily budget generator
func NewGenerator(store contracts.BudgetStore, log *logger.Logger) *Generator {
	return &Generator{store: store, logger: log}
}

// GenerateForDate ensures every allocation under every active plan has a
// daily budget row for the given date. Existing rows are left alone so
// regeneration never clobbers an optimized day.
func (g *Generator) GenerateForDate(ctx context.Context, date time.Time) (int, error) {
	date = Midnight(date)

	plans, err := g.store.ListActivePlans(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("list active plans: %w", err)
	}

	created := 0
	for _, plan := range plans {
		if !plan.Covers(date) {
			continue
		}
		allocations, err := g.store.ListAllocations(ctx, plan.ID)
		if err != nil {
			return created, fmt.Errorf("list allocations for plan %d: %w", plan.ID, err)
		}
		for _, alloc := range allocations {
			ok, err := g.ensure(ctx, plan, alloc, date)
			if err != nil {
				return created, err
			}
			if ok {
				created++
			}
		}
	}

	g.logger.WithFields(map[string]interface{}{
		"date":    date.Format("2006-01-02"),
		"plans":   len(plans),
		"created": created,
	}).Info("Generated daily budgets")

	return created, nil
}

// EnsureDailyBudget returns the daily budget for (allocation, date),
// creating it from the plan split when missing
func (g *Generator) EnsureDailyBudget(ctx context.Context, plan *contracts.BudgetPlan, alloc *contracts.BudgetAllocation, date time.Time) (*contracts.DailyBudget, error) {
	date = Midnight(date)

	db, err := g.store.GetDailyBudget(ctx, alloc.ID, date)
	if err != nil {
		return nil, err
	}
	if db != nil {
		return db, nil
	}
	if _, err := g.ensure(ctx, plan, alloc, date); err != nil {
		return nil, err
	}
	return g.store.GetDailyBudget(ctx, alloc.ID, date)
}

func (g *Generator) ensure(ctx context.Context, plan *contracts.BudgetPlan, alloc *contracts.BudgetAllocation, date time.Time) (bool, error) {
	existing, err := g.store.GetDailyBudget(ctx, alloc.ID, date)
	if err != nil {
		return false, fmt.Errorf("get daily budget: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	db := Materialize(plan, alloc, date)
	if err := ValidateDailyBudget(db); err != nil {
		return false, err
	}
	if err := g.store.CreateDailyBudget(ctx, db); err != nil {
		return false, fmt.Errorf("create daily budget: %w", err)
	}
	return true, nil
}

// Materialize builds the daily slice for (allocation, date) in memory
// without persisting it. Previews use this so a dry run never writes a
// budget row.
func Materialize(plan *contracts.BudgetPlan, alloc *contracts.BudgetAllocation, date time.Time) *contracts.DailyBudget {
	daily := DailyAmount(alloc.AllocatedBudget, plan.StartDate, plan.EndDate)
	return &contracts.DailyBudget{
		AllocationID:  alloc.ID,
		Date:          Midnight(date),
		PlannedBudget: daily,
		Locked:        alloc.Locked,
		StyleBudgets:  RebalanceStyles(daily, alloc.StyleWeights),
		Version:       1,
		UpdatedAt:     time.Now().UTC(),
	}
}

// DailyAmount spreads an allocation evenly over the plan period,
// rounded down to cents
func DailyAmount(total decimal.Decimal, start, end time.Time) decimal.Decimal {
	days := int64(Midnight(end).Sub(Midnight(start)).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return total.Div(decimal.NewFromInt(days)).RoundDown(2)
}

// Midnight truncates a timestamp to its UTC calendar date
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
