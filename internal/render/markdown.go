package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown writes nodes in the export format. Paragraph line breaks become
// hard breaks so whitespace survives a round trip through a Markdown viewer.
func Markdown(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		switch n.Kind {
		case KindParagraph:
			parts = append(parts, strings.ReplaceAll(n.Text, "\n", "  \n"))
		case KindHeading:
			parts = append(parts, strings.Repeat("#", n.Level)+" "+n.Text)
		case KindRule:
			parts = append(parts, "---")
		case KindImage:
			parts = append(parts, fmt.Sprintf("![%s](%s)", n.Alt, n.URL))
		case KindList:
			lines := make([]string, len(n.Items))
			for i, item := range n.Items {
				lines[i] = "- " + item
			}
			parts = append(parts, strings.Join(lines, "\n"))
		case KindEmpty:
			parts = append(parts, "_"+n.Text+"_")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// Terminal renders nodes as ANSI text wrapped at width columns.
func Terminal(nodes []Node, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("terminal renderer: %w", err)
	}
	out, err := r.Render(Markdown(nodes))
	if err != nil {
		return "", fmt.Errorf("render terminal: %w", err)
	}
	return out, nil
}
