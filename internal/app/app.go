// Package app wires configuration, storage and services into a running
// storyblocks instance shared by the CLI and the MCP server.
package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"storyblocks/internal/config"
	"storyblocks/internal/domain"
	"storyblocks/internal/logging"
	"storyblocks/internal/media"
	"storyblocks/internal/service"
	"storyblocks/internal/storage"
)

// App holds the long-lived components of one process.
type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Events    *service.FanOut
	Stories   *service.StoryService
	Publisher *service.Publisher

	store domain.StoryStore
}

// Load reads the config at path (defaults when missing) and starts an App.
func Load(ctx context.Context, path string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// New validates cfg, opens the configured store and builds the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	events := &service.FanOut{}
	events.Add(service.LogEmitter{Log: log.Named("events")})

	stories := service.NewStoryService(store, service.Options{
		Emitter:  events,
		Ingestor: media.NewFileIngestor(cfg.Media.MaxBytes),
		Logger:   log,
		Debounce: cfg.Editor.Debounce(),
		Viewport: cfg.Editor.Viewport,
	})

	return &App{
		Config:    cfg,
		Log:       log,
		Events:    events,
		Stories:   stories,
		Publisher: service.NewPublisher(stories, cfg.PublishDir(), events, log),
		store:     store,
	}, nil
}

// Watcher builds an import watcher over the configured inbox directory.
func (a *App) Watcher() *service.ImportWatcher {
	return service.NewImportWatcher(a.Stories, a.Config.WatchDir(), 0, a.Log)
}

// Close stops the publisher and releases the store.
func (a *App) Close(ctx context.Context) error {
	a.Publisher.Stop(ctx)
	err := a.store.Close()
	// Sync on a terminal stderr returns EINVAL.
	_ = a.Log.Sync()
	return err
}
