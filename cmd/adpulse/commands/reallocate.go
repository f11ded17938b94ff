package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/starcontent/adpulse/internal/budget"
)

// reallocateCmd represents the reallocate command
var reallocateCmd = &cobra.Command{
	Use:   "reallocate",
	Short: "Reallocate one allocation's daily budget",
	Long: `Redistributes one allocation's daily budget across its spending
targets by unified score, honoring locks, style weights and threshold
rules. Use --dry-run to preview without committing.

Example:
  go run ./cmd/adpulse reallocate --allocation 1
  go run ./cmd/adpulse reallocate --allocation 1 --date 2026-03-10 --dry-run`,
	RunE: runReallocate,
}

var (
	reallocAllocationID int64
	reallocDate         string
	reallocDryRun       bool
)

func init() {
	rootCmd.AddCommand(reallocateCmd)

	reallocateCmd.Flags().Int64Var(&reallocAllocationID, "allocation", 0, "allocation id (required)")
	reallocateCmd.Flags().StringVar(&reallocDate, "date", "", "target date YYYY-MM-DD (default today)")
	reallocateCmd.Flags().BoolVar(&reallocDryRun, "dry-run", false, "preview without committing")
	reallocateCmd.MarkFlagRequired("allocation")
}

func runReallocate(cmd *cobra.Command, args []string) error {
	date := time.Now().UTC()
	if reallocDate != "" {
		parsed, err := time.Parse("2006-01-02", reallocDate)
		if err != nil {
			return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
		date = parsed
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	engine, err := a.reallocEngine()
	if err != nil {
		return err
	}

	run, err := engine.Reallocate(cmd.Context(), reallocAllocationID, date, reallocDryRun)
	if err != nil {
		if run != nil {
			fmt.Printf("Run %s: %s (%s)\n", run.RunID, run.Status, run.FailureReason)
		}
		return err
	}

	fmt.Printf("Run %s: %s for allocation %d on %s\n",
		run.RunID, run.Status, run.AllocationID, budget.Midnight(date).Format("2006-01-02"))
	fmt.Printf("  targets: %d, moved: %d, total after: %s\n",
		len(run.Changes), run.ChangedCount(), run.TotalAfter())
	for _, c := range run.Changes {
		fmt.Printf("  %-8s %-4d %-9s %12s -> %12s  %s\n",
			c.Kind, c.TargetID, c.Style, c.OldBudget, c.NewBudget, c.Reason)
	}

	return nil
}
