package editor

import (
	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
	"storyblocks/internal/registry"
)

// Action is one reducer step over the element buffer. apply runs with the
// session lock held and reports whether the buffer changed.
type Action interface {
	apply(s *Session) (bool, error)
	// structural actions change list membership or order and are refused
	// while a drag is in progress.
	structural() bool
}

// SetContent replaces an element's text.
type SetContent struct {
	ID      string
	Content string
}

// InsertElement creates an empty element at index At (clamped).
type InsertElement struct {
	At           int
	Type         domain.ElementType
	HeadingLevel int
}

// RemoveElement deletes an element. The last remaining element is cleared
// and reset to a paragraph instead, so the session never becomes empty.
type RemoveElement struct {
	ID string
}

// ReorderElements moves DraggedID to just before TargetID.
type ReorderElements struct {
	DraggedID string
	TargetID  string
}

// ApplySelection inserts the picked kind at At.
type ApplySelection struct {
	Selection registry.Selection
	At        int
}

// SetHeadingLevel changes a heading's level; out-of-range levels fall back
// to the default.
type SetHeadingLevel struct {
	ID    string
	Level int
}

// SetImage fills an image element's payload in one step.
type SetImage struct {
	ID  string
	URL string
	Alt string
}

func (a SetContent) structural() bool      { return false }
func (a InsertElement) structural() bool   { return true }
func (a RemoveElement) structural() bool   { return true }
func (a ReorderElements) structural() bool { return true }
func (a ApplySelection) structural() bool  { return true }
func (a SetHeadingLevel) structural() bool { return false }
func (a SetImage) structural() bool        { return false }

func (a SetContent) apply(s *Session) (bool, error) {
	i := s.indexLocked(a.ID)
	if i < 0 {
		return false, ErrUnknownElement
	}
	if s.elements[i].Content == a.Content {
		return false, nil
	}
	s.elements = cloneElements(s.elements)
	s.elements[i].Content = a.Content
	return true, nil
}

func (a InsertElement) apply(s *Session) (bool, error) {
	e := newElement(a.Type, a.HeadingLevel)
	s.elements = blocks.InsertAt(s.elements, a.At, e)
	s.focus = e.ID
	return true, nil
}

func (a RemoveElement) apply(s *Session) (bool, error) {
	i := s.indexLocked(a.ID)
	if i < 0 {
		return false, ErrUnknownElement
	}
	if len(s.elements) == 1 {
		cleared := domain.Element{ID: s.elements[0].ID, Type: domain.ElementParagraph}
		if s.elements[0] == cleared {
			return false, nil
		}
		s.elements = []domain.Element{cleared}
		s.focus = cleared.ID
		return true, nil
	}
	s.elements = blocks.RemoveAt(s.elements, i)
	if s.focus == a.ID || s.indexLocked(s.focus) < 0 {
		s.focus = s.elements[max(i-1, 0)].ID
	}
	return true, nil
}

func (a ReorderElements) apply(s *Session) (bool, error) {
	out, ok := blocks.MoveBefore(s.elements, elementID, a.DraggedID, a.TargetID)
	if !ok {
		return false, nil
	}
	s.elements = out
	return true, nil
}

func (a ApplySelection) apply(s *Session) (bool, error) {
	et := a.Selection.ElementType()
	return InsertElement{At: a.At, Type: et}.apply(s)
}

func (a SetHeadingLevel) apply(s *Session) (bool, error) {
	i := s.indexLocked(a.ID)
	if i < 0 {
		return false, ErrUnknownElement
	}
	level := domain.NormalizeHeadingLevel(&a.Level)
	if cur := s.elements[i].HeadingLevel; cur != nil && *cur == level {
		return false, nil
	}
	s.elements = cloneElements(s.elements)
	s.elements[i].HeadingLevel = domain.IntPtr(level)
	return true, nil
}

func (a SetImage) apply(s *Session) (bool, error) {
	i := s.indexLocked(a.ID)
	if i < 0 {
		return false, ErrUnknownElement
	}
	if s.elements[i].Type != domain.ElementImage {
		return false, ErrNotImage
	}
	s.elements = cloneElements(s.elements)
	e := &s.elements[i]
	e.ImageURL = domain.StringPtr(a.URL)
	e.ImageAlt = domain.StringPtr(a.Alt)
	e.Content = a.Alt
	return true, nil
}

func newElement(t domain.ElementType, headingLevel int) domain.Element {
	e := domain.Element{ID: blocks.NewID(), Type: t}
	switch t {
	case domain.ElementHeading:
		e.HeadingLevel = domain.IntPtr(domain.NormalizeHeadingLevel(&headingLevel))
	case domain.ElementImage:
		e.ImageURL = domain.StringPtr("")
		e.ImageAlt = domain.StringPtr("")
	case domain.ElementParagraph, domain.ElementBulletList, domain.ElementDivider:
	default:
		e.Type = domain.ElementParagraph
	}
	return e
}

// convertInPlace turns the element at i into kind t, keeping its id. Used
// when the picker was opened from an empty placeholder element.
func convertInPlace(s *Session, i int, t domain.ElementType) {
	fresh := newElement(t, 0)
	fresh.ID = s.elements[i].ID
	s.elements = cloneElements(s.elements)
	s.elements[i] = fresh
	s.focus = fresh.ID
}

func elementID(e domain.Element) string { return e.ID }

func cloneElements(in []domain.Element) []domain.Element {
	out := make([]domain.Element, len(in))
	copy(out, in)
	return out
}
