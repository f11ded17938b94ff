package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/starcontent/adpulse/internal/budget"
	"github.com/starcontent/adpulse/pkg/logger"
)

// DailyBudgetJob materializes the day's budget slices just after
// midnight so the first reallocation of the day never has to create them
type DailyBudgetJob struct {
	generator *budget.Generator
	logger    *logger.Logger
}

// NewDailyBudgetJob creates the daily budget generation job
func NewDailyBudgetJob(generator *budget.Generator, log *logger.Logger) *DailyBudgetJob {
	return &DailyBudgetJob{generator: generator, logger: log}
}

// Name returns the job name
func (j *DailyBudgetJob) Name() string {
	return "daily_budget_generation"
}

// Schedule runs daily at 00:05 UTC
func (j *DailyBudgetJob) Schedule() string {
	return "0 5 0 * * *"
}

// Run generates today's daily budgets for all active plans
func (j *DailyBudgetJob) Run(ctx context.Context) error {
	created, err := j.generator.GenerateForDate(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("generate daily budgets: %w", err)
	}

	j.logger.WithField("created", created).Info("Scheduled daily budget generation finished")
	return nil
}
