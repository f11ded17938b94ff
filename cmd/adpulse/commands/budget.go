package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// budgetCmd groups budget maintenance subcommands
var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Budget maintenance commands",
}

// budgetGenerateCmd represents the budget generate command
var budgetGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate daily budget slices for a date",
	Long: `Materializes daily budget rows for every allocation under every
active plan covering the date. Existing rows are never overwritten.

Example:
  go run ./cmd/adpulse budget generate
  go run ./cmd/adpulse budget generate --date 2026-03-10`,
	RunE: runBudgetGenerate,
}

var budgetGenDate string

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetGenerateCmd)

	budgetGenerateCmd.Flags().StringVar(&budgetGenDate, "date", "", "target date YYYY-MM-DD (default today)")
}

func runBudgetGenerate(cmd *cobra.Command, args []string) error {
	date := time.Now().UTC()
	if budgetGenDate != "" {
		parsed, err := time.Parse("2006-01-02", budgetGenDate)
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

	created, err := a.generator.GenerateForDate(cmd.Context(), date)
	if err != nil {
		return fmt.Errorf("generate daily budgets: %w", err)
	}

	fmt.Printf("Created %d daily budget(s)\n", created)
	return nil
}
