package editor

import "sync"

// DragController tracks at most one dragged element and turns a drop into a
// single reorder call.
type DragController struct {
	mu      sync.Mutex
	dragged string
	reorder func(draggedID, targetID string) bool
}

func newDragController(reorder func(draggedID, targetID string) bool) *DragController {
	return &DragController{reorder: reorder}
}

// NewDragController builds a standalone controller around any reorder
// function, for hosts that keep their own block list.
func NewDragController(reorder func(draggedID, targetID string) bool) *DragController {
	return newDragController(reorder)
}

// Start records id as the dragged element, replacing any previous drag.
func (d *DragController) Start(id string) {
	d.mu.Lock()
	d.dragged = id
	d.mu.Unlock()
}

// Over is called for drag-over on any droppable element. It returns true,
// meaning the host should prevent its default handling so a drop can happen.
func (d *DragController) Over(targetID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dragged != ""
}

// Drop reorders the dragged element before targetID and clears the drag
// state whatever the outcome. Returns whether the order changed.
func (d *DragController) Drop(targetID string) bool {
	d.mu.Lock()
	dragged := d.dragged
	d.dragged = ""
	d.mu.Unlock()

	if dragged == "" {
		return false
	}
	return d.reorder(dragged, targetID)
}

// Cancel abandons the drag without reordering.
func (d *DragController) Cancel() {
	d.mu.Lock()
	d.dragged = ""
	d.mu.Unlock()
}

func (d *DragController) Dragging() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dragged, d.dragged != ""
}

func (d *DragController) active() bool {
	_, ok := d.Dragging()
	return ok
}

// dropReorder is the session's reorder hook for its own controller.
func (s *Session) dropReorder(draggedID, targetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.revision
	if err := s.dispatchLocked(ReorderElements{DraggedID: draggedID, TargetID: targetID}); err != nil {
		return false
	}
	return s.revision != before
}
