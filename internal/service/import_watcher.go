package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"storyblocks/internal/domain"
)

// DefaultSettle is how long a file must stay quiet before it is imported.
const DefaultSettle = 500 * time.Millisecond

// ─────────────────────────────────────────────────────────────
// ImportWatcher: imports markdown / json files dropped in a folder
// ─────────────────────────────────────────────────────────────

// ImportWatcher watches a directory and imports every *.md, *.markdown and
// *.json file written to it. The story title is the file name without its
// extension, so saving the same file again replaces that story's blocks.
type ImportWatcher struct {
	stories *StoryService
	dir     string
	settle  time.Duration
	log     *zap.Logger
}

func NewImportWatcher(stories *StoryService, dir string, settle time.Duration, log *zap.Logger) *ImportWatcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ImportWatcher{stories: stories, dir: dir, settle: settle, log: log.Named("watcher")}
}

// Importable reports whether path has an extension the watcher imports.
func Importable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".json":
		return true
	}
	return false
}

// ImportFile imports a single file by extension.
func (w *ImportWatcher) ImportFile(ctx context.Context, path string) (*domain.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return w.stories.ImportJSON(ctx, title, data)
	}
	return w.stories.ImportMarkdown(ctx, title, data)
}

// Run imports the files already present, then watches for changes until ctx
// is cancelled. Rapid writes to one file are coalesced.
func (w *ImportWatcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create watch dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.importExisting(ctx)
	w.log.Info("watching", zap.String("dir", w.dir))

	// pending maps a path to the time it may be imported. One timer tracks
	// the earliest deadline.
	pending := make(map[string]time.Time)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	rearm := func() {
		var next time.Time
		for _, at := range pending {
			if next.IsZero() || at.Before(next) {
				next = at
			}
		}
		if !next.IsZero() {
			timer.Reset(time.Until(next))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !Importable(event.Name) {
				continue
			}
			pending[event.Name] = time.Now().Add(w.settle)
			timer.Stop()
			rearm()

		case <-timer.C:
			now := time.Now()
			for path, at := range pending {
				if at.After(now) {
					continue
				}
				delete(pending, path)
				w.importLogged(ctx, path)
			}
			rearm()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *ImportWatcher) importExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn("list watch dir", zap.Error(err))
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && Importable(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.importLogged(ctx, filepath.Join(w.dir, name))
	}
}

func (w *ImportWatcher) importLogged(ctx context.Context, path string) {
	st, err := w.ImportFile(ctx, path)
	if err != nil {
		w.log.Error("import failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.log.Info("file imported", zap.String("path", path), zap.String("storyId", st.ID))
}
