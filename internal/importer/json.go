package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
)

var ErrInvalidBlock = errors.New("importer: invalid block")

// Document is the export envelope: a titled block list.
type Document struct {
	Title  string                `json:"title"`
	Blocks []domain.ContentBlock `json:"blocks"`
}

// JSON decodes either a bare block array or a Document. Blocks are sorted
// and renumbered; blocks whose id is missing, duplicated or not a valid
// block id get a fresh one. An unknown block
// type is an error rather than a silent paragraph, since imports come from
// outside the editor.
func JSON(data []byte) (Document, error) {
	var doc Document
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &doc.Blocks); err != nil {
			return Document{}, fmt.Errorf("decode blocks: %w", err)
		}
	} else if err := json.Unmarshal(trimmed, &doc); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}

	seen := make(map[string]bool, len(doc.Blocks))
	for i := range doc.Blocks {
		b := &doc.Blocks[i]
		if !b.Type.Valid() {
			return Document{}, fmt.Errorf("block %d: type %q: %w", i, b.Type, ErrInvalidBlock)
		}
		if !blocks.ValidID(b.ID) || seen[b.ID] {
			b.ID = blocks.NewID()
		}
		seen[b.ID] = true
	}
	doc.Blocks = blocks.Normalize(doc.Blocks)
	return doc, nil
}
