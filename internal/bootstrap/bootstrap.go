// Package bootstrap wires configuration into the logger, store and metrics engine
// shared by the API server and the command-line tools.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"lg/glucose-api/internal/config"
	"lg/glucose-api/internal/glucose"
	"lg/glucose-api/internal/logger"
	"lg/glucose-api/internal/store"
	"lg/glucose-api/internal/store/postgres"
	"lg/glucose-api/internal/store/sqlite"
)

// App holds the long-lived dependencies built from a Config.
type App struct {
	Config      *config.Config
	Log         *zap.SugaredLogger
	Store       store.Store
	Preferences *store.PreferenceResolver
	Engine      *glucose.Engine
}

// New validates cfg and builds the App. Callers must Close it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	st, err := OpenStore(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	return NewApp(cfg, log, st), nil
}

// NewApp assembles an App around an already open store.
func NewApp(cfg *config.Config, log *zap.SugaredLogger, st store.Store) *App {
	prefs := store.NewPreferenceResolver(st, cfg.Location(), log)
	return &App{
		Config:      cfg,
		Log:         log,
		Store:       st,
		Preferences: prefs,
		Engine:      glucose.NewEngine(st, prefs, log),
	}
}

// OpenStore opens the backend selected by DB_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (store.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		s, err := sqlite.NewFileStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Infow("sqlite store ready", "path", cfg.SQLitePath)
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DBURL, log)
		if err != nil {
			return nil, err
		}
		log.Infow("postgres pool ready")
		return s, nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	err := a.Store.Close()
	_ = a.Log.Sync()
	return err
}
