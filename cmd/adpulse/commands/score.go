package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Run one scoring pass",
	Long: `Recomputes platform and unified scores for all scorable content,
then rolls member scores up to their ad groups. Scores that did not
move are left alone, so rerunning is safe.

Example:
  go run ./cmd/adpulse score`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.scoringService().RunPass(cmd.Context(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("scoring pass: %w", err)
	}

	fmt.Printf("Scoring pass %s finished\n", result.RunID)
	fmt.Printf("  scored:       %d\n", result.Scored)
	fmt.Printf("  unchanged:    %d\n", result.Unchanged)
	fmt.Printf("  insufficient: %d\n", result.Insufficient)
	fmt.Printf("  failed:       %d\n", result.Failed)
	fmt.Printf("  ad groups:    %d\n", result.GroupsScored)

	return nil
}
