package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/starcontent/adpulse/internal/scoring"
	"github.com/starcontent/adpulse/pkg/logger"
)

// ScoringJob recomputes content and ad group scores every hour, after
// the metric sync collaborators have refreshed their numbers
type ScoringJob struct {
	service *scoring.Service
	logger  *logger.Logger
}

// NewScoringJob creates the scoring job
func NewScoringJob(service *scoring.Service, log *logger.Logger) *ScoringJob {
	return &ScoringJob{service: service, logger: log}
}

// Name returns the job name
func (j *ScoringJob) Name() string {
	return "scoring_pass"
}

// Schedule runs at minute 10 of every hour, giving metric syncs a head start
func (j *ScoringJob) Schedule() string {
	return "0 10 * * * *"
}

// Run executes one scoring pass
func (j *ScoringJob) Run(ctx context.Context) error {
	result, err := j.service.RunPass(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("scoring pass: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"scored":    result.Scored,
		"unchanged": result.Unchanged,
		"failed":    result.Failed,
	}).Info("Scheduled scoring pass finished")

	return nil
}
