// Package importer converts Markdown documents and JSON block exports into
// story blocks.
package importer

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
)

// Markdown parses src and returns one block per top-level element, with
// dense orders. Headings deeper than h3 become h3. Images that share a
// paragraph with text are split out into their own blocks in reading order.
func Markdown(src []byte) []domain.ContentBlock {
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var out []domain.ContentBlock
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, convert(n, src)...)
	}
	for i := range out {
		out[i].Order = i
	}
	return out
}

func convert(n ast.Node, src []byte) []domain.ContentBlock {
	switch n := n.(type) {
	case *ast.Heading:
		return []domain.ContentBlock{blocks.New(blocks.TypeSpec{
			Type:         domain.BlockTypeHeading,
			HeadingLevel: min(n.Level, 3),
			Content:      strings.TrimSpace(inlineText(n, src)),
		})}

	case *ast.ThematicBreak:
		return []domain.ContentBlock{blocks.New(blocks.TypeSpec{Divider: true})}

	case *ast.List:
		var items []string
		for li := n.FirstChild(); li != nil; li = li.NextSibling() {
			item := strings.ReplaceAll(flatText(li, src, " "), "\n", " ")
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			return nil
		}
		return []domain.ContentBlock{blocks.New(blocks.TypeSpec{
			Type:    domain.BlockTypeBulletList,
			Content: strings.Join(items, "\n"),
		})}

	case *ast.Paragraph:
		return paragraph(n, src)

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return textBlock(strings.TrimRight(rawLines(n, src), "\n"))

	case *ast.Blockquote:
		return textBlock(flatText(n, src, "\n"))
	}
	return nil
}

// paragraph emits text runs and images in the order they appear.
func paragraph(p *ast.Paragraph, src []byte) []domain.ContentBlock {
	var out []domain.ContentBlock
	var run strings.Builder
	flush := func() {
		if s := strings.TrimSpace(run.String()); s != "" {
			out = append(out, textBlock(s)...)
		}
		run.Reset()
	}

	for c := p.FirstChild(); c != nil; c = c.NextSibling() {
		img, ok := c.(*ast.Image)
		if !ok {
			writeInline(&run, c, src)
			continue
		}
		flush()
		b := blocks.New(blocks.TypeSpec{Type: domain.BlockTypeImage})
		alt := inlineText(img, src)
		b.ImageURL = domain.StringPtr(string(img.Destination))
		b.ImageAlt = domain.StringPtr(alt)
		b.Content = alt
		out = append(out, b)
	}
	flush()
	return out
}

func textBlock(s string) []domain.ContentBlock {
	if s == "" {
		return nil
	}
	return []domain.ContentBlock{blocks.New(blocks.TypeSpec{Type: domain.BlockTypeText, Content: s})}
}

func inlineText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeInline(&sb, c, src)
	}
	return sb.String()
}

func writeInline(sb *strings.Builder, n ast.Node, src []byte) {
	switch n := n.(type) {
	case *ast.Text:
		sb.Write(n.Segment.Value(src))
		if n.SoftLineBreak() || n.HardLineBreak() {
			sb.WriteByte('\n')
		}
	case *ast.String:
		sb.Write(n.Value)
	case *ast.AutoLink:
		sb.Write(n.URL(src))
	case *ast.RawHTML:
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			writeInline(sb, c, src)
		}
	}
}

// flatText joins the text of n's block children with sep.
func flatText(n ast.Node, src []byte, sep string) string {
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		var s string
		if fc := c.FirstChild(); fc != nil && fc.Type() == ast.TypeInline {
			s = inlineText(c, src)
		} else {
			s = flatText(c, src, sep)
		}
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

func rawLines(n ast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}
