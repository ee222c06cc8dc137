// Package blocks holds the pure operations over a story's block list.
// Every function returns a new slice; inputs are never modified.
package blocks

import (
	"regexp"

	"github.com/google/uuid"

	"storyblocks/internal/domain"
)

// NewID generates a block id. Replaced in tests that need stable ids.
var NewID = func() string { return uuid.New().String() }

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether id can be stored and used as a file name: 1 to 64
// letters, digits, '-' or '_'.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// TypeSpec describes the kind of block to insert.
type TypeSpec struct {
	Type         domain.BlockType
	Divider      bool
	HeadingLevel int
	Content      string
}

// Patch lists the fields Update may change. Nil fields are left alone.
// Order is deliberately absent.
type Patch struct {
	Type         *domain.BlockType
	Content      *string
	HeadingLevel *int
	ImageURL     *string
	ImageAlt     *string
}

// Normalize sorts blocks by order and rewrites every order to its index.
func Normalize(blocks []domain.ContentBlock) []domain.ContentBlock {
	return renumber(domain.SortByOrder(blocks))
}

// IsDense reports whether the orders of blocks, taken in order-sorted
// sequence, are exactly 0..n-1.
func IsDense(blocks []domain.ContentBlock) bool {
	for i, b := range domain.SortByOrder(blocks) {
		if b.Order != i {
			return false
		}
	}
	return true
}

// New builds a fresh block for spec with a generated id.
func New(spec TypeSpec) domain.ContentBlock {
	b := domain.ContentBlock{
		ID:      NewID(),
		Type:    spec.Type,
		Content: spec.Content,
	}
	if !b.Type.Valid() {
		b.Type = domain.BlockTypeText
	}
	switch {
	case spec.Divider:
		b.Type = domain.BlockTypeText
		b.Content = domain.DividerSentinel
	case b.Type == domain.BlockTypeHeading:
		level := spec.HeadingLevel
		if level < 1 || level > 3 {
			level = domain.DefaultHeadingLevel
		}
		b.HeadingLevel = domain.IntPtr(level)
	case b.Type == domain.BlockTypeImage:
		b.ImageURL = domain.StringPtr("")
		b.ImageAlt = domain.StringPtr("")
	}
	return b
}

// Insert places a new block at atIndex (clamped to [0, len]) and renumbers.
// Blocks previously at or after atIndex move down by one.
func Insert(blocks []domain.ContentBlock, atIndex int, spec TypeSpec) ([]domain.ContentBlock, domain.ContentBlock) {
	sorted := domain.SortByOrder(blocks)
	b := New(spec)
	out := spliceIn(sorted, clamp(atIndex, 0, len(sorted)), b)
	out = renumber(out)
	return out, out[indexOf(out, b.ID)]
}

// Update merges patch into the block with the given id. Unknown ids return
// the input unchanged.
func Update(blocks []domain.ContentBlock, id string, patch Patch) []domain.ContentBlock {
	if indexOf(blocks, id) < 0 {
		return blocks
	}
	out := make([]domain.ContentBlock, len(blocks))
	for i, b := range blocks {
		b = b.Clone()
		if b.ID == id {
			b = apply(b, patch)
		}
		out[i] = b
	}
	return out
}

// Remove deletes the block with the given id and renumbers the rest.
// Unknown ids return the input unchanged.
func Remove(blocks []domain.ContentBlock, id string) []domain.ContentBlock {
	sorted := domain.SortByOrder(blocks)
	i := indexOf(sorted, id)
	if i < 0 {
		return blocks
	}
	return renumber(spliceOut(sorted, i))
}

// Reorder moves draggedID to just before targetID's original position.
// It is a no-op when the ids are equal or either one is missing.
func Reorder(blocks []domain.ContentBlock, draggedID, targetID string) []domain.ContentBlock {
	sorted := domain.SortByOrder(blocks)
	out, ok := MoveBefore(sorted, func(b domain.ContentBlock) string { return b.ID }, draggedID, targetID)
	if !ok {
		return blocks
	}
	return renumber(out)
}

func apply(b domain.ContentBlock, p Patch) domain.ContentBlock {
	if p.Type != nil {
		b.Type = *p.Type
	}
	if p.Content != nil {
		b.Content = *p.Content
	}
	if p.HeadingLevel != nil {
		b.HeadingLevel = domain.IntPtr(*p.HeadingLevel)
	}
	if p.ImageURL != nil {
		b.ImageURL = domain.StringPtr(*p.ImageURL)
	}
	if p.ImageAlt != nil {
		b.ImageAlt = domain.StringPtr(*p.ImageAlt)
	}
	return b
}

func renumber(blocks []domain.ContentBlock) []domain.ContentBlock {
	for i := range blocks {
		blocks[i].Order = i
	}
	return blocks
}

func indexOf(blocks []domain.ContentBlock, id string) int {
	for i, b := range blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
