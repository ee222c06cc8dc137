package render

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var headingAtoms = map[int]atom.Atom{1: atom.H1, 2: atom.H2, 3: atom.H3}

// HTML serializes nodes into a single <div class="story"> fragment.
func HTML(nodes []Node) (string, error) {
	root := element(atom.Div, html.Attribute{Key: "class", Val: "story"})
	for _, n := range nodes {
		child, err := htmlNode(n)
		if err != nil {
			return "", err
		}
		root.AppendChild(child)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func htmlNode(n Node) (*html.Node, error) {
	switch n.Kind {
	case KindParagraph:
		p := element(atom.P, html.Attribute{Key: "style", Val: "white-space:pre-wrap"})
		p.AppendChild(text(n.Text))
		return p, nil
	case KindHeading:
		a, ok := headingAtoms[n.Level]
		if !ok {
			a = atom.H2
		}
		h := element(a)
		h.AppendChild(text(n.Text))
		return h, nil
	case KindRule:
		return element(atom.Hr), nil
	case KindImage:
		return element(atom.Img,
			html.Attribute{Key: "src", Val: n.URL},
			html.Attribute{Key: "alt", Val: n.Alt},
		), nil
	case KindList:
		ul := element(atom.Ul)
		for _, item := range n.Items {
			li := element(atom.Li)
			li.AppendChild(text(item))
			ul.AppendChild(li)
		}
		return ul, nil
	case KindEmpty:
		p := element(atom.P, html.Attribute{Key: "class", Val: "story-empty"})
		p.AppendChild(text(n.Text))
		return p, nil
	}
	return nil, fmt.Errorf("render html: unknown node kind %s", strconv.Quote(string(n.Kind)))
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
