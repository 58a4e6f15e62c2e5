package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-dealer/internal/api"
	"github.com/phrazzld/scry-dealer/internal/config"
	"github.com/phrazzld/scry-dealer/internal/domain/selection"
	"github.com/phrazzld/scry-dealer/internal/events"
	"github.com/phrazzld/scry-dealer/internal/platform/postgres"
	"github.com/phrazzld/scry-dealer/internal/platform/sqlite"
	"github.com/phrazzld/scry-dealer/internal/service"
	"github.com/phrazzld/scry-dealer/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	cardStore   store.CardStore
	filterStore store.FilterStore
	dealerStore store.DealerStore
	studyStore  store.StudyStore
	queryStore  store.QueryStore

	selector selection.Selector

	// Event system
	eventEmitter  *events.InMemoryEventEmitter
	validityCache *service.ValidityCache

	// Service interfaces
	filterService service.FilterService
	dealerService service.DealerService
	queryService  service.QueryService
	studyService  service.StudyService
	cardService   service.CardService
}

// openDatabase connects to the configured driver.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err = postgres.Open(ctx, cfg.Database, logger)
	case config.DriverSQLite:
		db, err = sqlite.Open(ctx, cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// migrateDatabase runs a migration command. PostgreSQL migrations go through
// goose on a pooled connection; SQLite migrations go through golang-migrate
// on the database file.
func migrateDatabase(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, command, logger)
	case config.DriverSQLite:
		return sqlite.Migrate(cfg.Database.Path, command, logger)
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// newApplication wires stores, the selector, the validity cache and services
// for the configured driver and selection strategy.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var pushdown selection.Selector
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		app.cardStore = postgres.NewPostgresCardStore(db, logger)
		app.filterStore = postgres.NewPostgresFilterStore(db, logger)
		app.dealerStore = postgres.NewPostgresDealerStore(db, logger)
		app.studyStore = postgres.NewPostgresStudyStore(db, logger)
		app.queryStore = postgres.NewPostgresQueryStore(db, logger)
		pushdown = postgres.NewPushdownSelector(db, logger)
	case config.DriverSQLite:
		app.cardStore = sqlite.NewCardStore(db, logger)
		app.filterStore = sqlite.NewFilterStore(db, logger)
		app.dealerStore = sqlite.NewDealerStore(db, logger)
		app.studyStore = sqlite.NewStudyStore(db, logger)
		app.queryStore = sqlite.NewQueryStore(db, logger)
		pushdown = sqlite.NewPushdownSelector(db, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	switch cfg.Selection.Strategy {
	case config.StrategyPushdown:
		app.selector = pushdown
	default:
		app.selector = selection.NewEngine(app.cardStore, logger)
	}
	logger.Info("selection strategy configured",
		slog.String("strategy", cfg.Selection.Strategy),
		slog.String("driver", cfg.Database.Driver))

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.validityCache = service.NewValidityCache(cfg.Selection.ValidityCacheTTL, logger)
	app.eventEmitter.RegisterHandler(app.validityCache)

	var err error
	app.filterService, err = service.NewFilterService(
		app.filterStore,
		app.cardStore,
		app.selector,
		service.FilterServiceOptions{
			Emitter: app.eventEmitter,
			Cache:   app.validityCache,
			Workers: cfg.Selection.ValidityWorkers,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter service: %w", err)
	}

	app.dealerService, err = service.NewDealerService(
		app.dealerStore,
		app.filterStore,
		app.selector,
		service.DealerServiceOptions{},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create dealer service: %w", err)
	}

	app.queryService, err = service.NewQueryService(
		app.queryStore,
		app.cardStore,
		app.selector,
		service.QueryServiceOptions{},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query service: %w", err)
	}

	app.studyService, err = service.NewStudyService(app.studyStore, app.selector, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create study service: %w", err)
	}

	app.cardService, err = service.NewCardService(app.cardStore, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create card service: %w", err)
	}

	return app, nil
}

// router builds the HTTP handler tree over the application's services.
func (app *application) router() http.Handler {
	return api.NewRouter(api.Handlers{
		Filters: api.NewFilterHandler(app.filterService, app.logger),
		Dealers: api.NewDealerHandler(app.dealerService, app.logger),
		Queries: api.NewQueryHandler(app.queryService, app.logger),
		Studies: api.NewStudyHandler(app.studyService, app.logger),
		Cards:   api.NewCardHandler(app.cardService, app.logger),
	}, api.RouterConfig{
		Logger:         app.logger,
		RateLimitRPS:   app.config.Server.RateLimitRPS,
		RateLimitBurst: app.config.Server.RateLimitBurst,
	})
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", slog.String("error", err.Error()))
		}
	}
}
