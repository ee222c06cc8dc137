package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
	"storyblocks/internal/editor"
	"storyblocks/internal/importer"
	"storyblocks/internal/overlay"
	"storyblocks/internal/render"
	"storyblocks/internal/storage"
)

var (
	ErrBlockNotFound = errors.New("block not found")
	ErrUnknownFormat = errors.New("unknown render format")
	ErrNoIngestor    = errors.New("no image ingestor configured")
)

// Render formats accepted by StoryService.Render.
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
	FormatTerminal = "terminal"
	FormatJSON     = "json"
)

// ─────────────────────────────────────────────────────────────
// Story Service: business logic for stories and their blocks
// ─────────────────────────────────────────────────────────────

type Options struct {
	Emitter  EventEmitter
	Ingestor editor.Ingestor
	Logger   *zap.Logger
	Debounce time.Duration
	Viewport overlay.Viewport
}

// StoryService owns story persistence and is the commit target of every
// editing session it opens.
type StoryService struct {
	store    domain.StoryStore
	emitter  EventEmitter
	ingestor editor.Ingestor
	log      *zap.Logger
	debounce time.Duration
	viewport overlay.Viewport

	// mu serializes read-modify-write block mutations.
	mu sync.Mutex
}

func NewStoryService(store domain.StoryStore, opts Options) *StoryService {
	if opts.Emitter == nil {
		opts.Emitter = NopEmitter{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &StoryService{
		store:    store,
		emitter:  opts.Emitter,
		ingestor: opts.Ingestor,
		log:      opts.Logger.Named("stories"),
		debounce: opts.Debounce,
		viewport: opts.Viewport,
	}
}

// ── Stories ────────────────────────────────────────────────

// CreateStory creates an empty story with a unique slug derived from title.
func (s *StoryService) CreateStory(ctx context.Context, title string) (*domain.Story, error) {
	slug, err := s.uniqueSlug(ctx, Slugify(title))
	if err != nil {
		return nil, err
	}
	return s.createWithSlug(ctx, title, slug)
}

func (s *StoryService) createWithSlug(ctx context.Context, title, slug string) (*domain.Story, error) {
	st := &domain.Story{ID: uuid.New().String(), Title: title, Slug: slug}
	if err := s.store.CreateStory(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info("story created", zap.String("storyId", st.ID), zap.String("slug", st.Slug))
	s.emitter.Emit(ctx, EventStoryCreated, st)
	return st, nil
}

func (s *StoryService) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for n := 2; ; n++ {
		_, err := s.store.GetStoryBySlug(ctx, slug)
		if errors.Is(err, storage.ErrNotFound) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		slug = base + "-" + strconv.Itoa(n)
	}
}

// GetStory returns the story with its blocks.
func (s *StoryService) GetStory(ctx context.Context, id string) (*domain.StoryState, error) {
	st, err := s.store.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	bs, err := s.store.ListBlocks(ctx, id)
	if err != nil {
		return nil, err
	}
	if bs == nil {
		bs = []domain.ContentBlock{}
	}
	return &domain.StoryState{Story: *st, Blocks: bs}, nil
}

// ResolveStory accepts either an id or a slug.
func (s *StoryService) ResolveStory(ctx context.Context, idOrSlug string) (*domain.Story, error) {
	st, err := s.store.GetStory(ctx, idOrSlug)
	if errors.Is(err, storage.ErrNotFound) {
		return s.store.GetStoryBySlug(ctx, idOrSlug)
	}
	return st, err
}

func (s *StoryService) ListStories(ctx context.Context) ([]domain.Story, error) {
	return s.store.ListStories(ctx)
}

// RenameStory changes the title. The slug stays stable so published URLs
// do not move.
func (s *StoryService) RenameStory(ctx context.Context, id, title string) (*domain.Story, error) {
	st, err := s.store.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Title = title
	if err := s.store.UpdateStory(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *StoryService) DeleteStory(ctx context.Context, id string) error {
	if err := s.store.DeleteStory(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventStoryDeleted, id)
	return nil
}

// ── Commit ─────────────────────────────────────────────────

// Commit persists a full block list for a story. It is the host callback of
// editing sessions and the last step of every block mutation.
func (s *StoryService) Commit(ctx context.Context, storyID string, bs []domain.ContentBlock) error {
	bs = blocks.Normalize(bs)
	if err := s.store.ReplaceBlocks(ctx, storyID, bs); err != nil {
		return fmt.Errorf("commit story %s: %w", storyID, err)
	}
	s.log.Debug("committed", zap.String("storyId", storyID), zap.Int("blocks", len(bs)))
	s.emitter.Emit(ctx, EventStoryCommitted, CommitEvent{StoryID: storyID, Blocks: len(bs)})
	return nil
}

// mutate loads the story's blocks, applies fn and commits the result when
// fn reports a change.
func (s *StoryService) mutate(ctx context.Context, storyID string, fn func([]domain.ContentBlock) ([]domain.ContentBlock, bool, error)) ([]domain.ContentBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.ListBlocks(ctx, storyID)
	if err != nil {
		return nil, err
	}
	next, changed, err := fn(current)
	if err != nil {
		return nil, err
	}
	if !changed {
		return current, nil
	}
	if err := s.Commit(ctx, storyID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// ── Blocks ─────────────────────────────────────────────────

// InsertBlock inserts a new block at index at and returns it.
func (s *StoryService) InsertBlock(ctx context.Context, storyID string, at int, spec blocks.TypeSpec) (domain.ContentBlock, error) {
	var created domain.ContentBlock
	_, err := s.mutate(ctx, storyID, func(bs []domain.ContentBlock) ([]domain.ContentBlock, bool, error) {
		out, b := blocks.Insert(bs, at, spec)
		created = b
		return out, true, nil
	})
	return created, err
}

// UpdateBlock applies patch to block id. Order is never touched.
func (s *StoryService) UpdateBlock(ctx context.Context, storyID, id string, patch blocks.Patch) (domain.ContentBlock, error) {
	var updated domain.ContentBlock
	_, err := s.mutate(ctx, storyID, func(bs []domain.ContentBlock) ([]domain.ContentBlock, bool, error) {
		out := blocks.Update(bs, id, patch)
		b, ok := find(out, id)
		if !ok {
			return nil, false, fmt.Errorf("%s: %w", id, ErrBlockNotFound)
		}
		updated = b
		return out, true, nil
	})
	return updated, err
}

// RemoveBlock deletes block id. The last remaining block is cleared to an
// empty text block instead, matching the editor's behaviour.
func (s *StoryService) RemoveBlock(ctx context.Context, storyID, id string) error {
	_, err := s.mutate(ctx, storyID, func(bs []domain.ContentBlock) ([]domain.ContentBlock, bool, error) {
		if _, ok := find(bs, id); !ok {
			return nil, false, fmt.Errorf("%s: %w", id, ErrBlockNotFound)
		}
		if len(bs) == 1 {
			cleared := domain.ContentBlock{ID: id, Type: domain.BlockTypeText, Order: 0}
			return []domain.ContentBlock{cleared}, true, nil
		}
		return blocks.Remove(bs, id), true, nil
	})
	return err
}

// ReorderBlocks moves draggedID to just before targetID. Returns whether
// the order changed.
func (s *StoryService) ReorderBlocks(ctx context.Context, storyID, draggedID, targetID string) (bool, error) {
	moved := false
	_, err := s.mutate(ctx, storyID, func(bs []domain.ContentBlock) ([]domain.ContentBlock, bool, error) {
		out := blocks.Reorder(bs, draggedID, targetID)
		for i := range out {
			if out[i].ID != bs[i].ID {
				moved = true
				break
			}
		}
		return out, moved, nil
	})
	return moved, err
}

// AttachImage ingests a local file into image block id.
func (s *StoryService) AttachImage(ctx context.Context, storyID, id, path string) (domain.ContentBlock, error) {
	if s.ingestor == nil {
		return domain.ContentBlock{}, ErrNoIngestor
	}
	bs, err := s.store.ListBlocks(ctx, storyID)
	if err != nil {
		return domain.ContentBlock{}, err
	}
	target, ok := find(bs, id)
	if !ok {
		return domain.ContentBlock{}, fmt.Errorf("%s: %w", id, ErrBlockNotFound)
	}
	if target.Type != domain.BlockTypeImage {
		return domain.ContentBlock{}, fmt.Errorf("%s: %w", id, editor.ErrNotImage)
	}
	url, err := s.ingestor.Ingest(ctx, path)
	if err != nil {
		return domain.ContentBlock{}, fmt.Errorf("ingest %s: %w", path, err)
	}
	alt := filepath.Base(path)
	return s.UpdateBlock(ctx, storyID, id, blocks.Patch{
		ImageURL: &url,
		ImageAlt: &alt,
		Content:  &alt,
	})
}

func find(bs []domain.ContentBlock, id string) (domain.ContentBlock, bool) {
	for _, b := range bs {
		if b.ID == id {
			return b, true
		}
	}
	return domain.ContentBlock{}, false
}

// ── Render / import / export ───────────────────────────────

// Render returns the story in the requested format. width only applies to
// the terminal format.
func (s *StoryService) Render(ctx context.Context, storyID, format string, width int) (string, error) {
	bs, err := s.store.ListBlocks(ctx, storyID)
	if err != nil {
		return "", err
	}
	nodes := render.Render(bs)
	switch format {
	case FormatHTML, "":
		return render.HTML(nodes)
	case FormatMarkdown:
		return render.Markdown(nodes), nil
	case FormatTerminal:
		return render.Terminal(nodes, width)
	case FormatJSON:
		data, err := json.MarshalIndent(nodes, "", "  ")
		return string(data), err
	}
	return "", fmt.Errorf("%q: %w", format, ErrUnknownFormat)
}

// Export returns the story as an importable JSON document.
func (s *StoryService) Export(ctx context.Context, storyID string) ([]byte, error) {
	state, err := s.GetStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(importer.Document{Title: state.Story.Title, Blocks: state.Blocks}, "", "  ")
}

// ImportMarkdown replaces the blocks of the story named title (created on
// first import) with the blocks parsed from src.
func (s *StoryService) ImportMarkdown(ctx context.Context, title string, src []byte) (*domain.Story, error) {
	return s.importBlocks(ctx, title, importer.Markdown(src))
}

// ImportJSON is ImportMarkdown for exported JSON. A title inside the
// document wins over the given one.
func (s *StoryService) ImportJSON(ctx context.Context, title string, data []byte) (*domain.Story, error) {
	doc, err := importer.JSON(data)
	if err != nil {
		return nil, err
	}
	if doc.Title != "" {
		title = doc.Title
	}
	return s.importBlocks(ctx, title, doc.Blocks)
}

func (s *StoryService) importBlocks(ctx context.Context, title string, bs []domain.ContentBlock) (*domain.Story, error) {
	slug := Slugify(title)
	st, err := s.store.GetStoryBySlug(ctx, slug)
	if errors.Is(err, storage.ErrNotFound) {
		st, err = s.createWithSlug(ctx, title, slug)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	err = s.Commit(ctx, st.ID, bs)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.log.Info("story imported", zap.String("storyId", st.ID), zap.Int("blocks", len(bs)))
	s.emitter.Emit(ctx, EventStoryImported, st)
	return st, nil
}

// ── Editing sessions ───────────────────────────────────────

// OpenSession mounts the story's blocks into a new editing session whose
// commits are written back through Commit. The caller must Close it.
func (s *StoryService) OpenSession(ctx context.Context, storyID string) (*editor.Session, error) {
	bs, err := s.store.ListBlocks(ctx, storyID)
	if err != nil {
		return nil, err
	}
	log := s.log.With(zap.String("storyId", storyID))
	sess := editor.New(editor.Options{
		Debounce: s.debounce,
		Viewport: s.viewport,
		Ingestor: s.ingestor,
		Logger:   log,
		OnCommit: func(committed []domain.ContentBlock) {
			// Commits outlive the request that opened the session.
			if err := s.Commit(context.Background(), storyID, committed); err != nil {
				log.Error("session commit failed", zap.Error(err))
			}
		},
	})
	sess.Mount(bs)
	return sess, nil
}
