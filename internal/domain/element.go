package domain

// ElementType is the editing-time variant of a block. Unlike BlockType it
// tags dividers explicitly instead of hiding them in a sentinel.
type ElementType string

const (
	ElementParagraph  ElementType = "paragraph"
	ElementHeading    ElementType = "heading"
	ElementImage      ElementType = "image"
	ElementBulletList ElementType = "bullet_list"
	ElementDivider    ElementType = "divider"
)

// Element is the transient, edit-optimized shadow of a ContentBlock.
// It is never persisted.
type Element struct {
	ID           string      `json:"id"`
	Type         ElementType `json:"type"`
	Content      string      `json:"content"`
	HeadingLevel *int        `json:"headingLevel,omitempty"`
	ImageURL     *string     `json:"imageUrl,omitempty"`
	ImageAlt     *string     `json:"imageAlt,omitempty"`
}

// TextLike reports whether the element holds editable free text.
func (e Element) TextLike() bool {
	switch e.Type {
	case ElementParagraph, ElementHeading, ElementBulletList:
		return true
	}
	return false
}

// Empty reports whether the element has no content to keep.
func (e Element) Empty() bool {
	if e.Type == ElementImage {
		return e.Content == "" && (e.ImageURL == nil || *e.ImageURL == "")
	}
	return e.Content == ""
}

func (e Element) Clone() Element {
	out := e
	if e.HeadingLevel != nil {
		out.HeadingLevel = IntPtr(*e.HeadingLevel)
	}
	if e.ImageURL != nil {
		out.ImageURL = StringPtr(*e.ImageURL)
	}
	if e.ImageAlt != nil {
		out.ImageAlt = StringPtr(*e.ImageAlt)
	}
	return out
}

// ElementFromBlock converts one block. A text block carrying the divider
// sentinel becomes a divider element with empty content; everything else maps
// field for field.
func ElementFromBlock(b ContentBlock) Element {
	b = b.Clone()
	e := Element{
		ID:           b.ID,
		Content:      b.Content,
		HeadingLevel: b.HeadingLevel,
		ImageURL:     b.ImageURL,
		ImageAlt:     b.ImageAlt,
	}
	switch b.Type {
	case BlockTypeText:
		if b.Content == DividerSentinel {
			e.Type = ElementDivider
			e.Content = ""
		} else {
			e.Type = ElementParagraph
		}
	case BlockTypeHeading:
		e.Type = ElementHeading
	case BlockTypeImage:
		e.Type = ElementImage
	case BlockTypeBulletList:
		e.Type = ElementBulletList
	default:
		// Unknown stored types are kept editable as paragraphs.
		e.Type = ElementParagraph
	}
	return e
}

// BlockFromElement converts one element back, writing order as given.
func BlockFromElement(e Element, order int) ContentBlock {
	e = e.Clone()
	b := ContentBlock{
		ID:           e.ID,
		Content:      e.Content,
		Order:        order,
		HeadingLevel: e.HeadingLevel,
		ImageURL:     e.ImageURL,
		ImageAlt:     e.ImageAlt,
	}
	switch e.Type {
	case ElementDivider:
		b.Type = BlockTypeText
		b.Content = DividerSentinel
	case ElementHeading:
		b.Type = BlockTypeHeading
	case ElementImage:
		b.Type = BlockTypeImage
	case ElementBulletList:
		b.Type = BlockTypeBulletList
	default:
		b.Type = BlockTypeText
	}
	return b
}

// ToElements sorts blocks by order and converts each to an element.
func ToElements(blocks []ContentBlock) []Element {
	sorted := SortByOrder(blocks)
	out := make([]Element, len(sorted))
	for i, b := range sorted {
		out[i] = ElementFromBlock(b)
	}
	return out
}

// FromElements converts elements back to blocks with dense orders matching
// their index.
func FromElements(elements []Element) []ContentBlock {
	out := make([]ContentBlock, len(elements))
	for i, e := range elements {
		out[i] = BlockFromElement(e, i)
	}
	return out
}
