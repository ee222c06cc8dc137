package editor

import (
	"storyblocks/internal/domain"
	"storyblocks/internal/overlay"
)

// Key names follow the DOM KeyboardEvent.key values hosts already have.
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyBackspace Key = "Backspace"
	KeyEscape    Key = "Escape"
	KeyUp        Key = "ArrowUp"
	KeyDown      Key = "ArrowDown"
)

// slashTrigger typed alone into a paragraph opens the picker.
const slashTrigger = "/"

// KeyEvent is a key press inside element ID, with the caret position in
// viewport coordinates for anchoring the picker.
type KeyEvent struct {
	Key   Key
	Shift bool
	Caret overlay.Point
}

// KeyResult tells the host whether to suppress its default key handling.
type KeyResult struct {
	Handled      bool   `json:"handled"`
	PickerOpened bool   `json:"pickerOpened"`
	Focus        string `json:"focus"`
}

// HandleKey applies the keyboard-driven structural rules to element id:
//
//   - Enter in an empty text element opens the picker armed at its index.
//   - Enter elsewhere inserts an empty paragraph after the element.
//   - Shift+Enter is left to the host (newline).
//   - Backspace in an empty element removes it (or clears the last one).
//
// While the picker is open, navigation keys go to the picker first.
func (s *Session) HandleKey(id string, ev KeyEvent) (KeyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pickerKey(ev.Key) {
		return KeyResult{Handled: true, Focus: s.focus}, nil
	}

	i := s.indexLocked(id)
	if i < 0 {
		return KeyResult{}, ErrUnknownElement
	}
	e := s.elements[i]

	switch ev.Key {
	case KeyEnter:
		if ev.Shift {
			return KeyResult{Focus: s.focus}, nil
		}
		if e.TextLike() && e.Empty() {
			s.openPickerLocked(ev.Caret, i, e.ID)
			return KeyResult{Handled: true, PickerOpened: true, Focus: s.focus}, nil
		}
		if err := s.dispatchLocked(InsertElement{At: i + 1, Type: domain.ElementParagraph}); err != nil {
			return KeyResult{}, err
		}
		return KeyResult{Handled: true, Focus: s.focus}, nil

	case KeyBackspace:
		if !e.Empty() {
			return KeyResult{Focus: s.focus}, nil
		}
		if err := s.dispatchLocked(RemoveElement{ID: id}); err != nil {
			return KeyResult{}, err
		}
		return KeyResult{Handled: true, Focus: s.focus}, nil
	}
	return KeyResult{Focus: s.focus}, nil
}

// Input is the typing path: it stores content for element id, except that a
// lone "/" in a paragraph is swallowed and opens the picker at the caret.
func (s *Session) Input(id, content string, caret overlay.Point) (KeyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return KeyResult{}, ErrUnknownElement
	}
	if content == slashTrigger && s.elements[i].Type == domain.ElementParagraph {
		if err := s.dispatchLocked(SetContent{ID: id, Content: ""}); err != nil {
			return KeyResult{}, err
		}
		s.openPickerLocked(caret, i, id)
		return KeyResult{Handled: true, PickerOpened: true, Focus: s.focus}, nil
	}
	if err := s.dispatchLocked(SetContent{ID: id, Content: content}); err != nil {
		return KeyResult{}, err
	}
	s.focus = id
	return KeyResult{Handled: true, Focus: s.focus}, nil
}
