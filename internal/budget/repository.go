package budget

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starcontent/adpulse/internal/contracts"
)

// Repository handles budget hierarchy persistence
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new budget repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ contracts.BudgetStore = (*Repository)(nil)

// ListActivePlans returns active plans whose period covers the date
func (r *Repository) ListActivePlans(ctx context.Context, date time.Time) ([]*contracts.BudgetPlan, error) {
	query := `
		SELECT id, name, description, start_date, end_date,
		       total_budget, mode, platform_split, active, created_at
		FROM budget.plans
		WHERE active AND start_date <= $1 AND end_date >= $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query active plans: %w", err)
	}
	defer rows.Close()

	var plans []*contracts.BudgetPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// GetPlan returns one plan by id
func (r *Repository) GetPlan(ctx context.Context, planID int64) (*contracts.BudgetPlan, error) {
	query := `
		SELECT id, name, description, start_date, end_date,
		       total_budget, mode, platform_split, active, created_at
		FROM budget.plans
		WHERE id = $1
	`

	rows, err := r.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("budget plan %d not found", planID)
	}
	return scanPlan(rows)
}

// ListAllocations returns the allocations under one plan
func (r *Repository) ListAllocations(ctx context.Context, planID int64) ([]*contracts.BudgetAllocation, error) {
	query := `
		SELECT id, plan_id, group_id, allocated_budget, actual_spend,
		       locked, style_weights, last_optimized_at, created_at
		FROM budget.allocations
		WHERE plan_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var allocations []*contracts.BudgetAllocation
	for rows.Next() {
		alloc, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	return allocations, rows.Err()
}

// GetAllocation returns one allocation by id
func (r *Repository) GetAllocation(ctx context.Context, allocationID int64) (*contracts.BudgetAllocation, error) {
	query := `
		SELECT id, plan_id, group_id, allocated_budget, actual_spend,
		       locked, style_weights, last_optimized_at, created_at
		FROM budget.allocations
		WHERE id = $1
	`

	rows, err := r.pool.Query(ctx, query, allocationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocation: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("budget allocation %d not found", allocationID)
	}
	return scanAllocation(rows)
}

// GetDailyBudget returns the daily slice for (allocation, date), nil
// when none exists yet
func (r *Repository) GetDailyBudget(ctx context.Context, allocationID int64, date time.Time) (*contracts.DailyBudget, error) {
	query := `
		SELECT id, allocation_id, budget_date, planned_budget, actual_spend,
		       locked, style_budgets, version, updated_at
		FROM budget.daily_budgets
		WHERE allocation_id = $1 AND budget_date = $2
	`

	var (
		db           contracts.DailyBudget
		styleBudgets []byte
	)
	err := r.pool.QueryRow(ctx, query, allocationID, date).Scan(
		&db.ID, &db.AllocationID, &db.Date, &db.PlannedBudget, &db.ActualSpend,
		&db.Locked, &styleBudgets, &db.Version, &db.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query daily budget: %w", err)
	}
	if err := json.Unmarshal(styleBudgets, &db.StyleBudgets); err != nil {
		return nil, fmt.Errorf("failed to unmarshal style budgets: %w", err)
	}
	return &db, nil
}

// CreateDailyBudget inserts a new daily slice
func (r *Repository) CreateDailyBudget(ctx context.Context, db *contracts.DailyBudget) error {
	styleBudgets, err := json.Marshal(db.StyleBudgets)
	if err != nil {
		return fmt.Errorf("failed to marshal style budgets: %w", err)
	}

	query := `
		INSERT INTO budget.daily_budgets (
			allocation_id, budget_date, planned_budget, actual_spend,
			locked, style_budgets, version, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (allocation_id, budget_date) DO NOTHING
		RETURNING id
	`

	err = r.pool.QueryRow(ctx, query,
		db.AllocationID, db.Date, db.PlannedBudget, db.ActualSpend,
		db.Locked, styleBudgets, db.Version, db.UpdatedAt,
	).Scan(&db.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Someone else created it first; not an error
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create daily budget: %w", err)
	}
	return nil
}

// ListTargetBudgets returns the per-target rows for (allocation, date)
func (r *Repository) ListTargetBudgets(ctx context.Context, allocationID int64, date time.Time) ([]*contracts.TargetBudget, error) {
	query := `
		SELECT id, allocation_id, budget_date, kind, target_id, style,
		       planned_budget, actual_spend, locked
		FROM budget.target_budgets
		WHERE allocation_id = $1 AND budget_date = $2
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, allocationID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query target budgets: %w", err)
	}
	defer rows.Close()

	var targets []*contracts.TargetBudget
	for rows.Next() {
		var t contracts.TargetBudget
		if err := rows.Scan(
			&t.ID, &t.AllocationID, &t.Date, &t.Kind, &t.TargetID, &t.Style,
			&t.PlannedBudget, &t.ActualSpend, &t.Locked,
		); err != nil {
			return nil, fmt.Errorf("failed to scan target budget: %w", err)
		}
		targets = append(targets, &t)
	}
	return targets, rows.Err()
}

// CommitReallocation atomically rewrites the daily budget's style
// breakdown and target rows, guarded by the version counter. Returns
// *contracts.ConflictError when expectedVersion is stale.
func (r *Repository) CommitReallocation(ctx context.Context, db *contracts.DailyBudget, targets []*contracts.TargetBudget, expectedVersion int64) error {
	styleBudgets, err := json.Marshal(db.StyleBudgets)
	if err != nil {
		return fmt.Errorf("failed to marshal style budgets: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Version bump is the concurrency gate for the whole commit
	guardQuery := `
		UPDATE budget.daily_budgets
		SET style_budgets = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`
	tag, err := tx.Exec(ctx, guardQuery, db.ID, expectedVersion, styleBudgets)
	if err != nil {
		return fmt.Errorf("failed to update daily budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &contracts.ConflictError{
			AllocationID: db.AllocationID,
			Date:         db.Date,
			Version:      expectedVersion,
		}
	}

	upsertQuery := `
		INSERT INTO budget.target_budgets (
			allocation_id, budget_date, kind, target_id, style,
			planned_budget, actual_spend, locked
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (allocation_id, budget_date, kind, target_id) DO UPDATE SET
			style = EXCLUDED.style,
			planned_budget = EXCLUDED.planned_budget
	`
	for _, t := range targets {
		if t.Locked {
			// Locked rows are never rewritten
			continue
		}
		if _, err := tx.Exec(ctx, upsertQuery,
			t.AllocationID, t.Date, t.Kind, t.TargetID, t.Style,
			t.PlannedBudget, t.ActualSpend, t.Locked,
		); err != nil {
			return fmt.Errorf("failed to upsert target budget: %w", err)
		}
	}

	markQuery := `UPDATE budget.allocations SET last_optimized_at = NOW() WHERE id = $1`
	if _, err := tx.Exec(ctx, markQuery, db.AllocationID); err != nil {
		return fmt.Errorf("failed to mark allocation optimized: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit reallocation: %w", err)
	}

	db.Version = expectedVersion + 1
	return nil
}

func scanPlan(rows pgx.Rows) (*contracts.BudgetPlan, error) {
	var (
		plan  contracts.BudgetPlan
		split []byte
	)
	if err := rows.Scan(
		&plan.ID, &plan.Name, &plan.Description, &plan.StartDate, &plan.EndDate,
		&plan.TotalBudget, &plan.Mode, &split, &plan.Active, &plan.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}
	if len(split) > 0 {
		if err := json.Unmarshal(split, &plan.PlatformSplit); err != nil {
			return nil, fmt.Errorf("failed to unmarshal platform split: %w", err)
		}
	}
	return &plan, nil
}

func scanAllocation(rows pgx.Rows) (*contracts.BudgetAllocation, error) {
	var (
		alloc   contracts.BudgetAllocation
		weights []byte
	)
	if err := rows.Scan(
		&alloc.ID, &alloc.PlanID, &alloc.GroupID, &alloc.AllocatedBudget, &alloc.ActualSpend,
		&alloc.Locked, &weights, &alloc.LastOptimizedAt, &alloc.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan allocation: %w", err)
	}
	if err := json.Unmarshal(weights, &alloc.StyleWeights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal style weights: %w", err)
	}
	return &alloc, nil
}
