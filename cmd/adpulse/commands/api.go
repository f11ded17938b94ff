package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/starcontent/adpulse/internal/api"
	"github.com/starcontent/adpulse/internal/api/handlers"
	"github.com/starcontent/adpulse/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Starts the HTTP API server.

Endpoints:
  GET  /health                               - Health check
  POST /api/optimize                         - Trigger a reallocation run
  GET  /api/runs?allocation_id=N             - Recent optimization runs
  GET  /api/scores/{contentID}               - Content scores and history
  GET  /api/plans                            - Active budget plans
  GET  /api/plans/{planID}/allocations       - Plan allocations
  GET  /api/allocations/{allocationID}/daily - Daily budget and targets
  POST /api/budgets/generate                 - Generate daily budgets

Example:
  go run ./cmd/adpulse api
  go run ./cmd/adpulse api --port 8070`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	engine, err := a.reallocEngine()
	if err != nil {
		return err
	}

	limiter := redis.NewRateLimiter(a.rdb, "adpulse")
	engineHandler := handlers.NewEngineHandler(engine, a.runRepo, a.scoringRepo, limiter, a.log)
	budgetHandler := handlers.NewBudgetHandler(a.budgetRepo, a.generator, a.log)

	router := api.NewRouter(engineHandler, budgetHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	// Run the server and wait for a shutdown signal
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
