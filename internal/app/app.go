// file: internal/app/app.go
// version: 1.0.0
// guid: 6a1f9d3b-8e24-4c70-b5d6-0e3c7a9f2b18

// Package app opens every store named by the configuration and wires the
// library, word storage, migration and maintenance services together.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jdfalk/speed-reader/internal/config"
	"github.com/jdfalk/speed-reader/internal/database"
	"github.com/jdfalk/speed-reader/internal/legacy"
	"github.com/jdfalk/speed-reader/internal/library"
	"github.com/jdfalk/speed-reader/internal/logger"
	"github.com/jdfalk/speed-reader/internal/maintenance"
	"github.com/jdfalk/speed-reader/internal/metrics"
	"github.com/jdfalk/speed-reader/internal/migration"
	"github.com/jdfalk/speed-reader/internal/models"
	"github.com/jdfalk/speed-reader/internal/operations"
	"github.com/jdfalk/speed-reader/internal/wordstore"
)

const queueShutdownTimeout = 10 * time.Second

// App holds the opened stores and the services built on them.
type App struct {
	Config      config.Config
	Store       *database.SQLiteStore
	Legacy      *legacy.Store
	Queue       *operations.Queue
	Migrator    *migration.Engine
	Words       *wordstore.Facade
	Library     *library.Manager
	Maintenance *maintenance.Maintainer

	log *logger.Logger
}

// OpenLegacyBackend opens the key-value backend selected by cfg.LegacyBackend.
func OpenLegacyBackend(cfg config.Config) (legacy.Backend, error) {
	switch cfg.LegacyBackend {
	case config.LegacyBackendMemory, "":
		return legacy.NewMemoryBackend(), nil
	case config.LegacyBackendPebble:
		if err := os.MkdirAll(cfg.LegacyPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create legacy directory: %w", err)
		}
		return legacy.NewPebbleBackend(cfg.LegacyPath)
	case config.LegacyBackendRedis:
		return legacy.NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown legacy backend %q", cfg.LegacyBackend)
	}
}

// Open validates cfg and opens both stores. The caller must Close the App.
func Open(cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.EnableMetrics {
		metrics.Register()
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := database.NewSQLiteStore(cfg.DatabasePath, database.WithChunkSize(cfg.ChunkSize))
	if err != nil {
		return nil, fmt.Errorf("failed to open object store: %w", err)
	}

	backend, err := OpenLegacyBackend(cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open legacy store: %w", err)
	}
	legacyStore := legacy.NewStore(backend,
		legacy.WithQuota(cfg.LegacyQuotaBytes),
		legacy.WithChunkSize(cfg.ChunkSize))

	a := &App{
		Config: cfg,
		Store:  store,
		Legacy: legacyStore,
		Queue:  operations.NewQueue(cfg.Workers, cfg.QueueSize),
		log:    logger.ForModule("app"),
	}
	a.Migrator = migration.NewEngine(legacyStore, store)
	a.Words = wordstore.NewFacade(store, legacyStore, wordstore.WithQueue(a.Queue))
	a.Library = library.NewManager(store, legacyStore,
		library.WithMigrator(a.Migrator),
		library.WithWords(a.Words))
	a.Maintenance = maintenance.NewMaintainer(store, legacyStore,
		maintenance.WithMigrator(a.Migrator),
		maintenance.WithBudget(cfg.ObjectStoreBudget),
		maintenance.WithLowThreshold(cfg.LowStorageThreshold),
		maintenance.WithCacheTTL(cfg.UsageCacheTTL))

	a.log.Debug("opened %s with %s legacy backend", cfg.DatabasePath, backend.Name())
	return a, nil
}

// Settings returns the reader settings, migrating legacy values first.
func (a *App) Settings(ctx context.Context) (models.AppSettings, error) {
	a.Migrator.Run(ctx)
	return a.Store.GetSettings(ctx)
}

// UpdateSettings applies the fields present in patch.
func (a *App) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.AppSettings, error) {
	a.Migrator.Run(ctx)
	return a.Store.PutSettings(ctx, patch)
}

// Close drains background work and closes both stores.
func (a *App) Close() error {
	var errs []error
	if err := a.Queue.Shutdown(queueShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("queue: %w", err))
	}
	if err := a.Words.Close(); err != nil {
		errs = append(errs, fmt.Errorf("word storage: %w", err))
	}
	if err := a.Legacy.Close(); err != nil {
		errs = append(errs, fmt.Errorf("legacy store: %w", err))
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("object store: %w", err))
	}
	return errors.Join(errs...)
}
