package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starcontent/adpulse/internal/contracts"
	"github.com/starcontent/adpulse/internal/realloc"
	"github.com/starcontent/adpulse/pkg/logger"
)

// ReallocationJob reallocates every active allocation's budget for the
// current date. Allocations are isolated: one failure is logged and the
// loop keeps going.
type ReallocationJob struct {
	engine *realloc.Engine
	store  contracts.BudgetStore
	logger *logger.Logger
}

// NewReallocationJob creates the reallocation job
func NewReallocationJob(engine *realloc.Engine, store contracts.BudgetStore, log *logger.Logger) *ReallocationJob {
	return &ReallocationJob{engine: engine, store: store, logger: log}
}

// Name returns the job name
func (j *ReallocationJob) Name() string {
	return "budget_reallocation"
}

// Schedule runs every 3 hours at minute 30, after the scoring pass
func (j *ReallocationJob) Schedule() string {
	return "0 30 */3 * * *"
}

// Run reallocates all allocations under all active plans for today
func (j *ReallocationJob) Run(ctx context.Context) error {
	now := time.Now().UTC()

	plans, err := j.store.ListActivePlans(ctx, now)
	if err != nil {
		return fmt.Errorf("list active plans: %w", err)
	}

	ran, failed := 0, 0
	for _, plan := range plans {
		if plan.Mode == contracts.ModeManual {
			continue
		}
		allocations, err := j.store.ListAllocations(ctx, plan.ID)
		if err != nil {
			j.logger.WithError(err).WithField("plan_id", plan.ID).Error("Failed to list allocations")
			failed++
			continue
		}
		for _, alloc := range allocations {
			if alloc.Locked {
				continue
			}
			run, err := j.engine.Reallocate(ctx, alloc.ID, now, false)
			if err != nil {
				var noTargets *contracts.NoEligibleTargetsError
				if errors.As(err, &noTargets) {
					j.logger.WithField("allocation_id", alloc.ID).Warn("No eligible targets")
					continue
				}
				failed++
				j.logger.WithError(err).WithField("allocation_id", alloc.ID).Error("Reallocation failed")
				continue
			}
			ran++
			j.logger.WithFields(map[string]interface{}{
				"allocation_id": alloc.ID,
				"run_id":        run.RunID,
				"changed":       run.ChangedCount(),
			}).Info("Allocation reallocated")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"plans":  len(plans),
		"ran":    ran,
		"failed": failed,
	}).Info("Scheduled reallocation finished")

	if failed > 0 && ran == 0 {
		return fmt.Errorf("all %d reallocations failed", failed)
	}
	return nil
}
