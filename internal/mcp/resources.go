package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	storiesURI     = "storyblocks://stories"
	storyURIPrefix = "storyblocks://story/"
)

func (s *Server) registerResources() {
	// ── storyblocks://stories ──────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		storiesURI,
		"All Stories",
		mcp.WithMIMEType("application/json"),
	), s.handleStoriesResource)

	// ── storyblocks://story/{story}/markdown ───────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			storyURIPrefix+"{story}/markdown",
			"Story as Markdown",
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleStoryMarkdownResource,
	)
}

func (s *Server) handleStoriesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stories, err := s.stories.ListStories(ctx)
	if err != nil {
		return nil, err
	}

	type storySummary struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Slug  string `json:"slug"`
	}

	summaries := make([]storySummary, len(stories))
	for i, st := range stories {
		summaries[i] = storySummary{ID: st.ID, Title: st.Title, Slug: st.Slug}
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      storiesURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleStoryMarkdownResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	ref := storyRefFromURI(uri)
	if ref == "" {
		return nil, fmt.Errorf("could not extract story from URI: %s", uri)
	}
	st, err := s.stories.ResolveStory(ctx, ref)
	if err != nil {
		return nil, err
	}
	md, err := s.stories.Render(ctx, st.ID, "markdown", 0)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     md,
		},
	}, nil
}

// storyRefFromURI extracts the id or slug from "storyblocks://story/{story}/markdown".
func storyRefFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, storyURIPrefix)
	if !ok {
		return ""
	}
	ref, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return ref
}
