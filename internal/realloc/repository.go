package realloc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/starcontent/adpulse/internal/contracts"
)

// RunRepository persists optimization runs (append-only)
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

var _ contracts.RunStore = (*RunRepository)(nil)

// Append inserts one run record. Runs are never updated or deleted.
func (r *RunRepository) Append(ctx context.Context, run *contracts.OptimizationRun) error {
	changes, err := json.Marshal(run.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}
	styleTotals, err := json.Marshal(run.StyleTotals)
	if err != nil {
		return fmt.Errorf("failed to marshal style totals: %w", err)
	}
	directives, err := json.Marshal(run.Directives)
	if err != nil {
		return fmt.Errorf("failed to marshal directives: %w", err)
	}

	query := `
		INSERT INTO engine.optimization_runs (
			run_id, ts, mode, plan_id, allocation_id, run_date, dry_run,
			status, failure_reason, config_hash,
			changes, style_totals, unallocated_pool, directives
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.pool.Exec(ctx, query,
		run.RunID, run.Timestamp, run.Mode, run.PlanID, run.AllocationID, run.Date, run.DryRun,
		run.Status, run.FailureReason, run.ConfigHash,
		changes, styleTotals, run.UnallocatedPool, directives,
	)
	if err != nil {
		return fmt.Errorf("failed to append optimization run: %w", err)
	}
	return nil
}

// ListByAllocation returns the most recent runs for one allocation
func (r *RunRepository) ListByAllocation(ctx context.Context, allocationID int64, limit int) ([]*contracts.OptimizationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT run_id, ts, mode, plan_id, allocation_id, run_date, dry_run,
		       status, failure_reason, config_hash,
		       changes, style_totals, unallocated_pool, directives
		FROM engine.optimization_runs
		WHERE allocation_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, allocationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query optimization runs: %w", err)
	}
	defer rows.Close()

	var runs []*contracts.OptimizationRun
	for rows.Next() {
		var (
			run         contracts.OptimizationRun
			changes     []byte
			styleTotals []byte
			directives  []byte
		)
		if err := rows.Scan(
			&run.RunID, &run.Timestamp, &run.Mode, &run.PlanID, &run.AllocationID,
			&run.Date, &run.DryRun, &run.Status, &run.FailureReason, &run.ConfigHash,
			&changes, &styleTotals, &run.UnallocatedPool, &directives,
		); err != nil {
			return nil, fmt.Errorf("failed to scan optimization run: %w", err)
		}
		if err := json.Unmarshal(changes, &run.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changes: %w", err)
		}
		if len(styleTotals) > 0 {
			if err := json.Unmarshal(styleTotals, &run.StyleTotals); err != nil {
				return nil, fmt.Errorf("failed to unmarshal style totals: %w", err)
			}
		}
		if len(directives) > 0 {
			if err := json.Unmarshal(directives, &run.Directives); err != nil {
				return nil, fmt.Errorf("failed to unmarshal directives: %w", err)
			}
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}
