// Package app wires configuration, storage, services and handlers into a
// running application.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/memoria/internal/common"
	"github.com/ternarybob/memoria/internal/handlers"
	"github.com/ternarybob/memoria/internal/interfaces"
	"github.com/ternarybob/memoria/internal/services/blacklist"
	"github.com/ternarybob/memoria/internal/services/events"
	"github.com/ternarybob/memoria/internal/services/resolver"
	"github.com/ternarybob/memoria/internal/services/scheduler"
	"github.com/ternarybob/memoria/internal/sources"
	"github.com/ternarybob/memoria/internal/storage"
)

// App holds all application dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	EventService     interfaces.EventService
	BlacklistService *blacklist.Service
	ResolverService  interfaces.ResolverService
	SchedulerService interfaces.SchedulerService

	WSHandler        *handlers.WebSocketHandler
	LogStreamer      *handlers.LogStreamer
	TimelineHandler  *handlers.TimelineHandler
	BlacklistHandler *handlers.BlacklistHandler
	StatusHandler    *handlers.StatusHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := storage.NewStorageManager(logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	app.EventService = events.NewService(logger)

	app.BlacklistService = blacklist.NewService(&cfg.Blacklist, storageManager.BlacklistStorage(), logger)
	if err := app.BlacklistService.Start(context.Background(), cfg.Blacklist.RefreshSchedule); err != nil {
		return nil, fmt.Errorf("failed to start blacklist service: %w", err)
	}

	if err := app.initResolver(); err != nil {
		return nil, err
	}

	app.SchedulerService = scheduler.NewService(
		app.ResolverService,
		app.EventService,
		storageManager.TraceStorage(),
		&cfg.Scheduler,
		logger,
	)

	app.initHandlers()

	logger.Info().
		Str("mode", cfg.Sources.Mode).
		Int("concurrency", cfg.Scheduler.Concurrency).
		Int("blacklist_size", app.BlacklistService.Size()).
		Msg("Application initialization complete")

	return app, nil
}

// initResolver builds the source adapters and the cascade resolver
func (a *App) initResolver() error {
	cfg := a.Config

	adapters := []interfaces.ImageSource{
		sources.NewWikipediaSource(&cfg.Sources.Wikipedia, a.Logger),
		sources.NewCommonsSource(&cfg.Sources.Commons, a.Logger),
		sources.NewArchiveSource(&cfg.Sources.Archive, a.Logger),
	}

	policy, err := resolver.NewPolicy(cfg.Resolver.Policy, resolver.AdapterNames(adapters))
	if err != nil {
		return fmt.Errorf("failed to build cascade policy: %w", err)
	}

	var metadata, altsearch interfaces.ImageSource
	if source := sources.NewMetadataSource(&cfg.Sources.Metadata, a.Logger); source != nil {
		metadata = source
	}
	if source := sources.NewAltSearchSource(&cfg.Sources.AltSearch, a.Logger); source != nil {
		altsearch = source
	}

	a.ResolverService = resolver.NewService(resolver.Options{
		Policy:    policy,
		Adapters:  adapters,
		Metadata:  metadata,
		AltSearch: altsearch,
		Blacklist: a.BlacklistService,
		Config:    &cfg.Resolver,
		Mode:      cfg.Sources.Mode,
		Logger:    a.Logger,
	})

	return nil
}

// initHandlers builds the HTTP handlers and connects the log stream
func (a *App) initHandlers() {
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.SchedulerService, a.Logger, &a.Config.WebSocket)

	a.LogStreamer = handlers.NewLogStreamer(a.WSHandler, &a.Config.WebSocket)
	a.LogStreamer.Start()
	a.Logger.SetChannel("websocket", a.LogStreamer.Channel())

	a.TimelineHandler = handlers.NewTimelineHandler(a.SchedulerService, a.StorageManager.TraceStorage(), a.Logger)
	a.BlacklistHandler = handlers.NewBlacklistHandler(a.BlacklistService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.SchedulerService, a.BlacklistService, a.Logger)
}

// Close shuts down services in reverse initialization order
func (a *App) Close() error {
	if a.SchedulerService != nil {
		a.SchedulerService.Reset()
	}

	if a.LogStreamer != nil {
		a.LogStreamer.Stop()
	}

	if a.BlacklistService != nil {
		a.BlacklistService.Stop()
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
