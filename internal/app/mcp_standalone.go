package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	mcpserver "storyblocks/internal/mcp"
)

// ServeMCP runs storyblocks as a standalone MCP server on stdin/stdout.
// Scheduled publishing and the import watcher run alongside it when
// configured. Editing sessions left open by the client are committed on
// the way out. It returns when the client disconnects or on SIGINT/SIGTERM.
func (a *App) ServeMCP(ctx context.Context, version string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := mcpserver.New(mcpserver.Deps{
		Stories:   a.Stories,
		Publisher: a.Publisher,
		Logger:    a.Log,
		Version:   version,
	})
	a.Events.Add(srv)
	// Open editing sessions commit before the store closes.
	defer srv.Close()

	if expr := a.Config.Publish.Schedule; expr != "" {
		if err := a.Publisher.Schedule(ctx, expr); err != nil {
			return err
		}
	}

	watchDone := make(chan struct{})
	if a.Config.Watch.Enabled {
		go func() {
			defer close(watchDone)
			if err := a.Watcher().Run(ctx); err != nil {
				a.Log.Error("import watcher stopped", zap.Error(err))
			}
		}()
	} else {
		close(watchDone)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ServeStdio() }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
	}
	cancel()
	<-watchDone
	return err
}
