// Package render turns a committed block list into display nodes and
// serializes those nodes as HTML, Markdown or an ANSI terminal preview.
// Nothing here depends on an editing session.
package render

import (
	"strings"

	"storyblocks/internal/domain"
)

// EmptyPlaceholder is shown when a story has no blocks at all.
const EmptyPlaceholder = "No content yet."

type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindHeading   Kind = "heading"
	KindRule      Kind = "rule"
	KindImage     Kind = "image"
	KindList      Kind = "list"
	KindEmpty     Kind = "empty"
)

// Node is one displayable unit. Only the fields relevant to Kind are set.
type Node struct {
	Kind  Kind     `json:"kind"`
	Text  string   `json:"text,omitempty"`
	Level int      `json:"level,omitempty"`
	Items []string `json:"items,omitempty"`
	URL   string   `json:"url,omitempty"`
	Alt   string   `json:"alt,omitempty"`
}

// Render converts blocks into nodes. Blocks are sorted by order first; the
// caller's slice is not modified.
func Render(blocks []domain.ContentBlock) []Node {
	if len(blocks) == 0 {
		return []Node{{Kind: KindEmpty, Text: EmptyPlaceholder}}
	}
	nodes := make([]Node, 0, len(blocks))
	for _, b := range domain.SortByOrder(blocks) {
		if n, ok := renderBlock(b); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func renderBlock(b domain.ContentBlock) (Node, bool) {
	switch b.Type {
	case domain.BlockTypeHeading:
		return Node{Kind: KindHeading, Text: b.Content, Level: domain.NormalizeHeadingLevel(b.HeadingLevel)}, true
	case domain.BlockTypeImage:
		url := b.URL()
		if url == "" {
			return Node{}, false
		}
		return Node{Kind: KindImage, URL: url, Alt: b.Alt()}, true
	case domain.BlockTypeBulletList:
		items := ListItems(b.Content)
		if len(items) == 0 {
			return Node{}, false
		}
		return Node{Kind: KindList, Items: items}, true
	default:
		if b.IsDivider() {
			return Node{Kind: KindRule}, true
		}
		return Node{Kind: KindParagraph, Text: b.Content}, true
	}
}

// bulletMarkers are stripped once from the start of a list line.
var bulletMarkers = []string{"-", "*", "•"}

// ListItems splits bullet_list content into its non-empty items.
func ListItems(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		for _, m := range bulletMarkers {
			if strings.HasPrefix(line, m) {
				line = strings.TrimSpace(strings.TrimPrefix(line, m))
				break
			}
		}
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
