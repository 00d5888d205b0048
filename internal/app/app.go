package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/varoOP/shinkrolist/internal/anilist"
	"github.com/varoOP/shinkrolist/internal/cache"
	"github.com/varoOP/shinkrolist/internal/catalog"
	"github.com/varoOP/shinkrolist/internal/config"
	"github.com/varoOP/shinkrolist/internal/database"
	"github.com/varoOP/shinkrolist/internal/domain"
	"github.com/varoOP/shinkrolist/internal/logger"
	"github.com/varoOP/shinkrolist/internal/mal"
	"github.com/varoOP/shinkrolist/internal/notification"
	"github.com/varoOP/shinkrolist/internal/repository"
	"github.com/varoOP/shinkrolist/internal/seed"
	"github.com/varoOP/shinkrolist/internal/supabase"
	"github.com/varoOP/shinkrolist/internal/tracking"
)

// App represents the main application with all dependencies initialized
type App struct {
	Log      zerolog.Logger
	Config   *domain.Config
	Paths    *domain.Paths
	Catalog  catalog.Service
	Tracking tracking.Service
	Account  domain.AccountStore
	Cache    cache.Service
	Exports  domain.TrackingRepository

	db *database.DB
}

// NewApp loads configuration and wires every service. The caller must Close
// the returned App.
func NewApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(cfg, logger.New(cfg.LogLevel))
}

// New wires the application from an already loaded configuration
func New(cfg *domain.Config, log zerolog.Logger) (*App, error) {
	paths := domain.NewPaths(cfg.DataDir)
	if err := os.MkdirAll(paths.RootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", paths.RootDir, err)
	}

	db, err := database.NewDB(paths.DatabasePath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	device := database.NewDeviceRepo(log, db)

	records, err := cache.NewService(log, device, cfg.CacheCapacity)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	var dataset *seed.Dataset
	if cfg.SeedEnabled {
		dataset, err = seed.Load()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load seed dataset: %w", err)
		}
	}

	primary, secondary := sources(log, cfg)
	catalogService := catalog.NewService(log, cfg, primary, secondary, dataset, records)

	account := supabase.NewService(log, cfg, device)
	notify := notification.NewService(log, cfg.DiscordWebhookURL)
	trackingService := tracking.NewService(log, tracking.NewLocalBackend(log, device), account, records, notify)

	return &App{
		Log:      log,
		Config:   cfg,
		Paths:    paths,
		Catalog:  catalogService,
		Tracking: trackingService,
		Account:  account,
		Cache:    records,
		Exports:  repository.NewFileRepository(log),
		db:       db,
	}, nil
}

// sources orders the two record sources by the configured primary
func sources(log zerolog.Logger, cfg *domain.Config) (primary, secondary domain.RecordSource) {
	anilistSource := anilist.NewService(log, cfg)
	jikanSource := mal.NewService(log, cfg)

	if cfg.PrimarySource == domain.SourceJikan {
		return jikanSource, anilistSource
	}
	return anilistSource, jikanSource
}

// Ping checks that device storage is reachable
func (a *App) Ping(ctx context.Context) error {
	return a.db.Ping(ctx)
}

func (a *App) Close() error {
	return a.db.Close()
}
