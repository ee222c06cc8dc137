package registry

import (
	"strings"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Block Type Registry: the kinds offered by the insert picker
// ─────────────────────────────────────────────────────────────

// EmptyStateMessage is what pickers show when a query matches nothing.
const EmptyStateMessage = "No matching blocks"

// Entry is one selectable block kind.
type Entry struct {
	ID          string           `json:"id"`
	DisplayName string           `json:"displayName"`
	Description string           `json:"description"`
	Icon        string           `json:"icon"`
	TargetType  domain.BlockType `json:"targetType"`
	IsDivider   bool             `json:"isDivider"`
}

// Selection is the output of picking an entry.
type Selection struct {
	TargetType domain.BlockType `json:"targetType"`
	IsDivider  bool             `json:"isDivider"`
}

var entries = []Entry{
	{ID: "paragraph", DisplayName: "Text", Description: "Plain paragraph text", Icon: "¶", TargetType: domain.BlockTypeText},
	{ID: "heading", DisplayName: "Heading", Description: "Section title", Icon: "H", TargetType: domain.BlockTypeHeading},
	{ID: "image", DisplayName: "Image", Description: "Upload an image (img, photo)", Icon: "▣", TargetType: domain.BlockTypeImage},
	{ID: "bullet_list", DisplayName: "Bullet list", Description: "List with one item per line", Icon: "•", TargetType: domain.BlockTypeBulletList},
	{ID: "divider", DisplayName: "Divider", Description: "Horizontal rule between sections", Icon: "—", TargetType: domain.BlockTypeText, IsDivider: true},
}

// All returns a copy of the full table in display order.
func All() []Entry {
	return append([]Entry(nil), entries...)
}

// Filter returns the entries whose display name or description contains query,
// ignoring case. Only the empty query returns the whole table; whitespace is
// matched literally. No match returns an empty, non-nil slice.
func Filter(query string) []Entry {
	q := strings.ToLower(query)
	if q == "" {
		return All()
	}
	out := []Entry{}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.DisplayName), q) ||
			strings.Contains(strings.ToLower(e.Description), q) {
			out = append(out, e)
		}
	}
	return out
}

// Lookup finds an entry by id.
func Lookup(id string) (Entry, bool) {
	for _, e := range entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (e Entry) Selection() Selection {
	return Selection{TargetType: e.TargetType, IsDivider: e.IsDivider}
}

// Spec turns a selection into an insert spec for the mutator.
func (s Selection) Spec() blocks.TypeSpec {
	return blocks.TypeSpec{Type: s.TargetType, Divider: s.IsDivider}
}

// ElementType maps a selection onto the editing variant.
func (s Selection) ElementType() domain.ElementType {
	if s.IsDivider {
		return domain.ElementDivider
	}
	switch s.TargetType {
	case domain.BlockTypeHeading:
		return domain.ElementHeading
	case domain.BlockTypeImage:
		return domain.ElementImage
	case domain.BlockTypeBulletList:
		return domain.ElementBulletList
	}
	return domain.ElementParagraph
}
