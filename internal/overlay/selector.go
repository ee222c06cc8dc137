package overlay

import (
	"storyblocks/internal/registry"
)

// Key is a keyboard key the picker reacts to.
type Key string

const (
	KeyEscape Key = "Escape"
	KeyEnter  Key = "Enter"
	KeyUp     Key = "ArrowUp"
	KeyDown   Key = "ArrowDown"
)

// SelectFunc receives the picked kind and the insertion index the picker was
// opened with.
type SelectFunc func(sel registry.Selection, insertAt int)

// Selector is the searchable block-type popup. The same selector serves
// "insert after block N", "insert between blocks" and "slash at cursor"; only
// the insertAt index passed to Open differs.
type Selector struct {
	footprint Footprint
	onSelect  SelectFunc
	onDismiss func()

	open      bool
	placement Placement
	insertAt  int
	query     string
	results   []registry.Entry
	highlight int
}

// NewSelector creates a closed selector. onSelect may be nil for read-only use.
func NewSelector(fp Footprint, onSelect SelectFunc) *Selector {
	return &Selector{footprint: fp, onSelect: onSelect}
}

// OnDismiss registers a callback fired whenever the picker closes.
func (s *Selector) OnDismiss(fn func()) { s.onDismiss = fn }

// Open shows the picker at anchor, armed to insert at insertAt, with an empty
// query.
func (s *Selector) Open(anchor Point, vp Viewport, insertAt int) Placement {
	s.open = true
	s.placement = Place(anchor, vp, s.footprint)
	s.insertAt = insertAt
	s.SetQuery("")
	return s.placement
}

func (s *Selector) IsOpen() bool         { return s.open }
func (s *Selector) Placement() Placement { return s.placement }
func (s *Selector) InsertAt() int        { return s.insertAt }
func (s *Selector) Query() string        { return s.query }

// SetQuery re-filters the registry and resets the highlight to the top.
func (s *Selector) SetQuery(q string) {
	s.query = q
	s.results = registry.Filter(q)
	s.highlight = 0
}

// Results returns the entries matching the current query.
func (s *Selector) Results() []registry.Entry {
	return append([]registry.Entry(nil), s.results...)
}

// Empty reports the "no results" state; callers show registry.EmptyStateMessage.
func (s *Selector) Empty() bool { return len(s.results) == 0 }

// Highlighted returns the entry under the keyboard cursor.
func (s *Selector) Highlighted() (registry.Entry, bool) {
	if s.Empty() {
		return registry.Entry{}, false
	}
	return s.results[s.highlight], true
}

// MoveHighlight shifts the keyboard cursor by delta, wrapping around.
func (s *Selector) MoveHighlight(delta int) {
	n := len(s.results)
	if n == 0 {
		return
	}
	s.highlight = ((s.highlight+delta)%n + n) % n
}

// HandleKey reacts to picker keys and reports whether the key was consumed.
func (s *Selector) HandleKey(k Key) bool {
	if !s.open {
		return false
	}
	switch k {
	case KeyEscape:
		s.Dismiss()
	case KeyUp:
		s.MoveHighlight(-1)
	case KeyDown:
		s.MoveHighlight(1)
	case KeyEnter:
		if e, ok := s.Highlighted(); ok {
			s.Select(e.ID)
		}
	default:
		return false
	}
	return true
}

// ClickAt dismisses the picker when p lies outside it. Returns true if the
// click dismissed the picker.
func (s *Selector) ClickAt(p Point) bool {
	if !s.open || s.placement.Contains(p) {
		return false
	}
	s.Dismiss()
	return true
}

// Select picks the entry with the given id among the current results, fires
// the select callback and closes. Unknown or filtered-out ids are ignored.
func (s *Selector) Select(entryID string) bool {
	if !s.open {
		return false
	}
	for _, e := range s.results {
		if e.ID != entryID {
			continue
		}
		at := s.insertAt
		s.close()
		if s.onSelect != nil {
			s.onSelect(e.Selection(), at)
		}
		if s.onDismiss != nil {
			s.onDismiss()
		}
		return true
	}
	return false
}

// Dismiss closes the picker without selecting anything.
func (s *Selector) Dismiss() {
	if !s.open {
		return
	}
	s.close()
	if s.onDismiss != nil {
		s.onDismiss()
	}
}

func (s *Selector) close() {
	s.open = false
	s.query = ""
	s.results = nil
	s.highlight = 0
}
