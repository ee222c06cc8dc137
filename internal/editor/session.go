// Package editor implements the transient editing session: a mutable buffer of
// elements that absorbs per-keystroke edits and flushes a dense block list to
// the host after a quiet period.
package editor

import (
	"errors"
	"sync"
	"time"

	"github.com/bep/debounce"
	"go.uber.org/zap"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
	"storyblocks/internal/overlay"
)

// DefaultDebounce is the quiet period before buffered edits are committed.
const DefaultDebounce = 100 * time.Millisecond

var (
	ErrUnknownElement = errors.New("editor: unknown element")
	ErrDragInProgress = errors.New("editor: drag in progress")
	ErrClosed         = errors.New("editor: session closed")
	ErrNotImage       = errors.New("editor: element is not an image")
)

// CommitFunc receives the committed, dense block list.
type CommitFunc func(blocks []domain.ContentBlock)

type Options struct {
	OnCommit CommitFunc
	Debounce time.Duration
	Ingestor Ingestor
	Viewport overlay.Viewport
	Logger   *zap.Logger
}

// Session owns the element buffer while a story is being edited.
//
// Lock order: commitMu before mu. Callbacks run without mu held.
type Session struct {
	opts   Options
	log    *zap.Logger
	arm    func(func())
	picker *overlay.Selector
	drag   *DragController

	commitMu sync.Mutex

	mu        sync.Mutex
	elements  []domain.Element
	hostCount int
	dirty     bool
	revision  uint64
	focus     string
	armedID   string
	closing   bool
	closed    bool

	reads sync.WaitGroup
}

// New creates an empty session. Call Mount before editing.
func New(opts Options) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Viewport == (overlay.Viewport{}) {
		opts.Viewport = overlay.Viewport{Width: 1280, Height: 800}
	}
	s := &Session{
		opts: opts,
		log:  opts.Logger.Named("editor"),
		arm:  debounce.New(opts.Debounce),
	}
	s.picker = overlay.NewSelector(overlay.DefaultFootprint, s.onPick)
	s.picker.OnDismiss(func() { s.armedID = "" })
	s.drag = newDragController(s.dropReorder)
	s.elements = []domain.Element{emptyParagraph()}
	return s
}

// Mount replaces the buffer with the host's blocks. The input is sorted and
// compacted defensively. An empty host list yields one empty paragraph, which
// is not committed until edited.
func (s *Session) Mount(hostBlocks []domain.ContentBlock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mountLocked(hostBlocks)
}

// SyncFromHost re-mounts only when the host's block count differs from the
// last one seen, so parent re-renders do not clobber in-progress edits.
// Reports whether a re-mount happened.
func (s *Session) SyncFromHost(hostBlocks []domain.ContentBlock) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(hostBlocks) == s.hostCount {
		return false
	}
	s.mountLocked(hostBlocks)
	return true
}

func (s *Session) mountLocked(hostBlocks []domain.ContentBlock) {
	s.elements = domain.ToElements(hostBlocks)
	if len(s.elements) == 0 {
		s.elements = []domain.Element{emptyParagraph()}
	}
	s.hostCount = len(hostBlocks)
	s.dirty = false
	if s.focus == "" || s.indexLocked(s.focus) < 0 {
		s.focus = s.elements[0].ID
	}
	s.log.Debug("mounted", zap.Int("blocks", len(hostBlocks)))
}

// Dispatch applies one action to the buffer and schedules a commit.
func (s *Session) Dispatch(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(a)
}

func (s *Session) dispatchLocked(a Action) error {
	if s.closed {
		return ErrClosed
	}
	if a.structural() && s.drag.active() {
		return ErrDragInProgress
	}
	changed, err := a.apply(s)
	if err != nil {
		return err
	}
	if changed {
		s.markDirtyLocked()
	}
	return nil
}

func (s *Session) markDirtyLocked() {
	s.dirty = true
	s.revision++
	s.arm(func() { s.Flush() })
}

// Flush commits the buffer if it changed since the last commit. It is the
// explicit commit boundary; the debounce timer calls it too.
func (s *Session) Flush() bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return false
	}
	out := domain.FromElements(s.elements)
	rev := s.revision
	s.dirty = false
	s.hostCount = len(out)
	s.mu.Unlock()

	s.log.Debug("commit", zap.Int("blocks", len(out)), zap.Uint64("revision", rev))
	if s.opts.OnCommit != nil {
		s.opts.OnCommit(out)
	}
	return true
}

// Close rejects new image reads, waits for pending ones, flushes outstanding
// edits and rejects further actions.
func (s *Session) Close() {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()
	// No reads.Add can happen past this point.
	s.reads.Wait()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	// Replace any armed timer callback with a no-op.
	s.arm(func() {})
	s.Flush()
}

// Elements returns a copy of the buffer.
func (s *Session) Elements() []domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Element, len(s.elements))
	for i, e := range s.elements {
		out[i] = e.Clone()
	}
	return out
}

// Snapshot converts the current buffer without committing it.
func (s *Session) Snapshot() []domain.ContentBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.FromElements(s.elements)
}

func (s *Session) Focus() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focus
}

// SetFocus moves focus to id if it exists.
func (s *Session) SetFocus(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexLocked(id) < 0 {
		return false
	}
	s.focus = id
	return true
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Drag exposes the drag controller wired to this session's reorder.
func (s *Session) Drag() *DragController { return s.drag }

func (s *Session) indexLocked(id string) int {
	for i, e := range s.elements {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func emptyParagraph() domain.Element {
	return domain.Element{ID: blocks.NewID(), Type: domain.ElementParagraph}
}
