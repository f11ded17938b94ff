package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/starcontent/adpulse/internal/scheduler"
	"github.com/starcontent/adpulse/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the engine's recurring jobs",
	Long: `Starts the job scheduler and blocks until interrupted.

Jobs:
  scoring_pass             - hourly at :10
  budget_reallocation      - every 3 hours at :30
  daily_budget_generation  - daily at 00:05 UTC

Example:
  go run ./cmd/adpulse scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	engine, err := a.reallocEngine()
	if err != nil {
		return err
	}

	sched := scheduler.New(a.log)
	for _, job := range []scheduler.Job{
		jobs.NewScoringJob(a.scoringService(), a.log),
		jobs.NewReallocationJob(engine, a.budgetRepo, a.log),
		jobs.NewDailyBudgetJob(a.generator, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}

	sched.Start()
	fmt.Printf("Scheduler running with jobs: %v\n", sched.Jobs())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
