package editor

import (
	"go.uber.org/zap"

	"storyblocks/internal/overlay"
	"storyblocks/internal/registry"
)

// PickerState is a read-only view of the block-type picker for rendering.
type PickerState struct {
	Open      bool              `json:"open"`
	Placement overlay.Placement `json:"placement"`
	InsertAt  int               `json:"insertAt"`
	Query     string            `json:"query"`
	Results   []registry.Entry  `json:"results"`
	Empty     bool              `json:"empty"`
	Message   string            `json:"message,omitempty"`
}

// OpenPicker shows the picker at anchor to insert a new element at index at.
// Hosts use it for "insert after block N" and "insert between blocks".
func (s *Session) OpenPicker(anchor overlay.Point, at int) PickerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openPickerLocked(anchor, at, "")
	return s.pickerStateLocked()
}

// openPickerLocked arms the picker. When armedID names an empty placeholder
// element, picking converts that element instead of inserting a new one.
func (s *Session) openPickerLocked(anchor overlay.Point, at int, armedID string) {
	s.picker.Open(anchor, s.opts.Viewport, at)
	s.armedID = armedID
}

// SearchPicker updates the picker's query.
func (s *Session) SearchPicker(query string) PickerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.picker.IsOpen() {
		s.picker.SetQuery(query)
	}
	return s.pickerStateLocked()
}

// PickEntry selects an entry by registry id.
func (s *Session) PickEntry(entryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.picker.Select(entryID)
}

// ClickAt dismisses the picker when the click lands outside it.
func (s *Session) ClickAt(p overlay.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.picker.ClickAt(p)
}

// DismissPicker closes the picker without touching the buffer.
func (s *Session) DismissPicker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picker.Dismiss()
}

func (s *Session) Picker() PickerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pickerStateLocked()
}

func (s *Session) pickerStateLocked() PickerState {
	st := PickerState{
		Open:      s.picker.IsOpen(),
		Placement: s.picker.Placement(),
		InsertAt:  s.picker.InsertAt(),
		Query:     s.picker.Query(),
		Results:   s.picker.Results(),
		Empty:     s.picker.Empty(),
	}
	if st.Open && st.Empty {
		st.Message = registry.EmptyStateMessage
	}
	return st
}

// onPick runs inside picker.Select, so the session lock is already held.
func (s *Session) onPick(sel registry.Selection, at int) {
	armed := s.armedID
	s.armedID = ""

	if s.closed {
		return
	}
	if i := s.indexLocked(armed); armed != "" && i >= 0 {
		if e := s.elements[i]; e.TextLike() && e.Empty() {
			convertInPlace(s, i, sel.ElementType())
			s.markDirtyLocked()
			return
		}
	}
	if err := s.dispatchLocked(ApplySelection{Selection: sel, At: at}); err != nil {
		s.log.Warn("picker selection rejected", zap.Error(err))
	}
}

// pickerKey forwards a key to the open picker. Returns true if consumed.
func (s *Session) pickerKey(k Key) bool {
	if !s.picker.IsOpen() {
		return false
	}
	switch k {
	case KeyEscape:
		return s.picker.HandleKey(overlay.KeyEscape)
	case KeyEnter:
		return s.picker.HandleKey(overlay.KeyEnter)
	case KeyUp:
		return s.picker.HandleKey(overlay.KeyUp)
	case KeyDown:
		return s.picker.HandleKey(overlay.KeyDown)
	}
	return false
}
