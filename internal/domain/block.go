package domain

import "sort"

type BlockType string

const (
	BlockTypeText       BlockType = "text"
	BlockTypeHeading    BlockType = "heading"
	BlockTypeImage      BlockType = "image"
	BlockTypeBulletList BlockType = "bullet_list"
)

// DividerSentinel marks a text block that is really a horizontal rule.
// It is part of the stored format and must survive persistence byte-for-byte.
const DividerSentinel = "---DIVIDER---"

// DefaultHeadingLevel is used when a heading carries no level or an invalid one.
const DefaultHeadingLevel = 2

// ContentBlock is one persisted unit of story content.
type ContentBlock struct {
	ID           string    `json:"id" bson:"id"`
	Type         BlockType `json:"type" bson:"type"`
	Content      string    `json:"content" bson:"content"`
	Order        int       `json:"order" bson:"order"`
	HeadingLevel *int      `json:"headingLevel,omitempty" bson:"headingLevel,omitempty"`
	ImageURL     *string   `json:"imageUrl,omitempty" bson:"imageUrl,omitempty"`
	ImageAlt     *string   `json:"imageAlt,omitempty" bson:"imageAlt,omitempty"`
}

// Valid reports whether t is one of the persisted block types.
func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeText, BlockTypeHeading, BlockTypeImage, BlockTypeBulletList:
		return true
	}
	return false
}

// IsDivider reports whether the block is a text block carrying the divider sentinel.
func (b ContentBlock) IsDivider() bool {
	return b.Type == BlockTypeText && b.Content == DividerSentinel
}

// Level returns the heading level, falling back to DefaultHeadingLevel when
// the stored value is absent or outside 1..3.
func (b ContentBlock) Level() int {
	return NormalizeHeadingLevel(b.HeadingLevel)
}

// URL returns the image URL or "" when unset.
func (b ContentBlock) URL() string {
	if b.ImageURL == nil {
		return ""
	}
	return *b.ImageURL
}

// Alt returns the image alt text or "" when unset.
func (b ContentBlock) Alt() string {
	if b.ImageAlt == nil {
		return ""
	}
	return *b.ImageAlt
}

// Clone returns a deep copy; pointer fields are not shared.
func (b ContentBlock) Clone() ContentBlock {
	out := b
	if b.HeadingLevel != nil {
		out.HeadingLevel = IntPtr(*b.HeadingLevel)
	}
	if b.ImageURL != nil {
		out.ImageURL = StringPtr(*b.ImageURL)
	}
	if b.ImageAlt != nil {
		out.ImageAlt = StringPtr(*b.ImageAlt)
	}
	return out
}

// NormalizeHeadingLevel maps nil and out-of-range levels to DefaultHeadingLevel.
func NormalizeHeadingLevel(level *int) int {
	if level == nil || *level < 1 || *level > 3 {
		return DefaultHeadingLevel
	}
	return *level
}

// SortByOrder returns a copy of blocks sorted by Order. Ties keep their input
// position so callers never see a nondeterministic result.
func SortByOrder(blocks []ContentBlock) []ContentBlock {
	out := make([]ContentBlock, len(blocks))
	for i, b := range blocks {
		out[i] = b.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }
