package commands

import (
	"fmt"

	"github.com/starcontent/adpulse/internal/budget"
	"github.com/starcontent/adpulse/internal/engineconfig"
	"github.com/starcontent/adpulse/internal/push"
	"github.com/starcontent/adpulse/internal/realloc"
	"github.com/starcontent/adpulse/internal/scoring"
	"github.com/starcontent/adpulse/pkg/config"
	"github.com/starcontent/adpulse/pkg/database"
	"github.com/starcontent/adpulse/pkg/logger"
	"github.com/starcontent/adpulse/pkg/redis"
)

// app holds the wired process dependencies shared by the commands
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	db         *database.DB
	rdb        *redis.Client
	engineCfg  *engineconfig.Config
	configHash string

	scoringRepo *scoring.Repository
	budgetRepo  *budget.Repository
	runRepo     *realloc.RunRepository
	generator   *budget.Generator
}

// newApp loads config and connects the shared infrastructure
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Connected to database")

	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	engineCfg, err := engineconfig.LoadOrDefault(cfg.EngineConfigPath)
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, fmt.Errorf("load engine config: %w", err)
	}
	hash, err := engineconfig.Hash(engineCfg)
	if err != nil {
		db.Close()
		rdb.Close()
		return nil, fmt.Errorf("hash engine config: %w", err)
	}
	log.WithFields(map[string]interface{}{
		"config_id":   engineCfg.Meta.ConfigID,
		"config_hash": hash,
	}).Info("Engine parameters loaded")

	budgetRepo := budget.NewRepository(db.Pool)

	return &app{
		cfg:         cfg,
		log:         log,
		db:          db,
		rdb:         rdb,
		engineCfg:   engineCfg,
		configHash:  hash,
		scoringRepo: scoring.NewRepository(db.Pool),
		budgetRepo:  budgetRepo,
		runRepo:     realloc.NewRunRepository(db.Pool),
		generator:   budget.NewGenerator(budgetRepo, log),
	}, nil
}

// close releases the app's connections
func (a *app) close() {
	a.db.Close()
	if err := a.rdb.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis client")
	}
}

// scoringService wires the scoring pass
func (a *app) scoringService() *scoring.Service {
	cache := redis.NewCache(a.rdb, "adpulse")
	return scoring.NewService(
		a.engineCfg,
		a.scoringRepo, a.scoringRepo, a.scoringRepo, a.scoringRepo,
		cache, a.log,
	)
}

// reallocEngine wires the reallocation engine with the configured
// directive sinks
func (a *app) reallocEngine() (*realloc.Engine, error) {
	publisher, err := push.FromConfig(a.cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("build directive publisher: %w", err)
	}

	return realloc.NewEngine(
		a.engineCfg, a.configHash,
		a.budgetRepo, a.runRepo,
		a.scoringRepo, a.scoringRepo,
		a.generator, publisher, a.log,
	), nil
}
