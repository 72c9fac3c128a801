package commands

import (
	"fmt"
	"time"

	"github.com/wonny/radar/internal/activity"
	"github.com/wonny/radar/internal/combiner"
	"github.com/wonny/radar/internal/papertrade"
	"github.com/wonny/radar/internal/quality"
	"github.com/wonny/radar/internal/strategyconfig"
	"github.com/wonny/radar/pkg/config"
	"github.com/wonny/radar/pkg/database"
	"github.com/wonny/radar/pkg/logger"
)

// app holds the shared wiring for every command: config, logger, pool,
// repositories, and the pipeline components built on them.
type app struct {
	cfg      *config.Config
	strategy *strategyconfig.Config
	log      *logger.Logger
	db       *database.DB

	activity *activity.Repository
	signals  *combiner.Repository
	ledger   *papertrade.Repository

	combiner *combiner.Combiner
	filter   *quality.Filter
	selector *combiner.Selector
	engine   *papertrade.Engine
}

// newApp bootstraps the application.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	path := cfg.StrategyFile
	if strategyFile != "" {
		path = strategyFile
	}
	strategy, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load strategy config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		strategy: strategy,
		log:      log,
		db:       db,
		activity: activity.NewRepository(db.Pool),
		signals:  combiner.NewRepository(db.Pool),
		ledger:   papertrade.NewRepository(db.Pool),
	}
	a.combiner = combiner.NewCombiner(strategy, a.activity, a.signals, log)
	a.filter = quality.NewFilter(strategy.Quality, a.activity, log)
	a.selector = combiner.NewSelector(strategy.Selection, log)
	a.engine = papertrade.NewEngine(strategy.Trading, a.ledger, log)

	return a, nil
}

// Close releases the database pool.
func (a *app) Close() {
	a.db.Close()
}

// runDate resolves the --date flag, defaulting to today.
func runDate() (time.Time, error) {
	if dateFlag == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", dateFlag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: use YYYY-MM-DD", dateFlag)
	}
	return date, nil
}
