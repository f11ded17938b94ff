package scheduler

import (
	"context"
	"time"
)

// Job is one scheduled unit of engine work
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron expression (with seconds field)
	Schedule() string
}

// JobResult is the outcome of one job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the recent execution results of one job
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, keeping the last 100
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > 100 {
		h.Results = h.Results[len(h.Results)-100:]
	}
}

// LatestResults returns the latest n results
func (h *JobHistory) LatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n == 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// SuccessRate returns the fraction of successful runs
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	ok := 0
	for _, r := range h.Results {
		if r.Success {
			ok++
		}
	}
	return float64(ok) / float64(len(h.Results))
}
