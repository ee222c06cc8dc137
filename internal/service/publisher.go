package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
	"storyblocks/internal/media"
	"storyblocks/internal/render"
)

// publishConcurrency bounds how many stories render at once.
const publishConcurrency = 4

// ─────────────────────────────────────────────────────────────
// Publisher: renders stories to static HTML files
// ─────────────────────────────────────────────────────────────

// Publisher writes every story to <dir>/<slug>.html. Embedded data-URL
// images are written next to the page as <dir>/<slug>/<blockID><ext> so the
// HTML stays small.
type Publisher struct {
	stories *StoryService
	dir     string
	emitter EventEmitter
	log     *zap.Logger
	guard   publishGuard

	mu   sync.Mutex
	cron *cron.Cron
}

func NewPublisher(stories *StoryService, dir string, emitter EventEmitter, log *zap.Logger) *Publisher {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{stories: stories, dir: dir, emitter: emitter, log: log.Named("publisher")}
}

// PublishAll publishes every story concurrently and returns the written
// paths. Stories already being published by another run are skipped.
func (p *Publisher) PublishAll(ctx context.Context) ([]string, error) {
	stories, err := p.stories.ListStories(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		paths []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(publishConcurrency)
	for _, st := range stories {
		g.Go(func() error {
			path, err := p.PublishStory(gctx, st.ID)
			if err != nil {
				return fmt.Errorf("publish %s: %w", st.Slug, err)
			}
			if path != "" {
				mu.Lock()
				paths = append(paths, path)
				mu.Unlock()
			}
			return nil
		})
	}
	err = g.Wait()
	p.log.Info("publish finished", zap.Int("stories", len(stories)), zap.Int("written", len(paths)), zap.Error(err))
	return paths, err
}

// PublishStory renders one story. It returns "" without error when the
// story is already being published.
func (p *Publisher) PublishStory(ctx context.Context, storyID string) (string, error) {
	release, ok := p.guard.Acquire(storyID)
	if !ok {
		p.log.Debug("publish already running", zap.String("storyId", storyID))
		return "", nil
	}
	defer release()

	state, err := p.stories.GetStory(ctx, storyID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("create publish dir: %w", err)
	}

	bs, err := p.extractImages(state.Story.Slug, state.Blocks)
	if err != nil {
		return "", err
	}
	body, err := render.HTML(render.Render(bs))
	if err != nil {
		return "", err
	}

	path := filepath.Join(p.dir, state.Story.Slug+".html")
	if err := writeFileAtomic(path, []byte(page(state.Story.Title, body))); err != nil {
		return "", err
	}
	p.log.Info("story published", zap.String("storyId", storyID), zap.String("path", path))
	p.emitter.Emit(ctx, EventStoryPublished, PublishEvent{StoryID: storyID, Path: path})
	return path, nil
}

// extractImages writes data-URL image payloads to files and points the
// returned blocks at them. Other URLs, and images whose block id cannot be a
// file name, are left alone.
func (p *Publisher) extractImages(slug string, bs []domain.ContentBlock) ([]domain.ContentBlock, error) {
	out := make([]domain.ContentBlock, len(bs))
	for i, b := range bs {
		out[i] = b.Clone()
		if b.Type != domain.BlockTypeImage || !strings.HasPrefix(b.URL(), "data:") {
			continue
		}
		_, data, err := media.DecodeDataURL(b.URL())
		if err != nil {
			// Left as is; the renderer emits it and the browser decides.
			p.log.Warn("undecodable image kept inline", zap.String("block", b.ID), zap.Error(err))
			continue
		}
		if !blocks.ValidID(b.ID) {
			p.log.Warn("image with unsafe block id kept inline", zap.String("block", b.ID))
			continue
		}
		assetDir := filepath.Join(p.dir, slug)
		name := b.ID + media.Extension(data)
		path, err := assetPath(assetDir, name)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(assetDir, 0755); err != nil {
			return nil, fmt.Errorf("create asset dir: %w", err)
		}
		if err := writeFileAtomic(path, data); err != nil {
			return nil, err
		}
		out[i].ImageURL = domain.StringPtr(slug + "/" + name)
	}
	return out, nil
}

// assetPath joins name into dir and fails if the result is not a direct
// child of dir.
func assetPath(dir, name string) (string, error) {
	path := filepath.Join(dir, filepath.Base(name))
	if filepath.Dir(path) != filepath.Clean(dir) {
		return "", fmt.Errorf("asset %q escapes %s", name, dir)
	}
	return path, nil
}

func page(title, body string) string {
	return "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>" +
		html.EscapeString(title) + "</title></head><body>\n" + body + "\n</body></html>\n"
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".publish-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ── Scheduling ─────────────────────────────────────────────

// Schedule runs PublishAll on the cron expression expr until Stop.
func (p *Publisher) Schedule(ctx context.Context, expr string) error {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		if _, err := p.PublishAll(ctx); err != nil {
			p.log.Error("scheduled publish failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid publish schedule %q: %w", expr, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cron != nil {
		p.cron.Stop()
	}
	p.cron = c
	c.Start()
	p.log.Info("publish scheduled", zap.String("schedule", expr))
	return nil
}

// Stop halts the schedule and waits for running publishes or ctx.
func (p *Publisher) Stop(ctx context.Context) {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	if err := p.guard.Wait(ctx); err != nil {
		p.log.Warn("stopped before publishes finished", zap.Error(err))
	}
}
