package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerRenderTools() {
	// ── render_story ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_story",
		mcp.WithDescription("Render a story for reading"),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithString("format",
			mcp.Description("Output format: html, markdown, terminal, json (default markdown)"),
			mcp.Enum("html", "markdown", "terminal", "json"),
		),
		mcp.WithNumber("width", mcp.Description("Wrap width for the terminal format (default 80)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleRenderStory)

	// ── export_story ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("export_story",
		mcp.WithDescription("Export a story as JSON that import_json accepts"),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleExportStory)

	// ── import_markdown ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("import_markdown",
		mcp.WithDescription("Replace the blocks of the story with this title (created if missing) with blocks parsed from markdown"),
		mcp.WithString("title", mcp.Description("Story title"), mcp.Required()),
		mcp.WithString("markdown", mcp.Description("Markdown source"), mcp.Required()),
	), s.handleImportMarkdown)

	// ── import_json ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("import_json",
		mcp.WithDescription("Replace a story's blocks from an export_story document or a bare block array"),
		mcp.WithString("title", mcp.Description("Story title, used when the document has none"), mcp.Required()),
		mcp.WithString("json", mcp.Description("JSON document"), mcp.Required()),
	), s.handleImportJSON)

	// ── publish_story ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("publish_story",
		mcp.WithDescription("Write a story to the publish directory as static HTML"),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
	), s.handlePublishStory)
}

func (s *Server) handleRenderStory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := s.stories.Render(ctx, st.ID, req.GetString("format", "markdown"), req.GetInt("width", 80))
	if err != nil {
		return nil, err
	}
	return textResult(out), nil
}

func (s *Server) handleExportStory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := s.stories.Export(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	return textResult(string(data)), nil
}

func (s *Server) handleImportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := requireArg(req, "title")
	if err != nil {
		return nil, err
	}
	st, err := s.stories.ImportMarkdown(ctx, title, []byte(req.GetString("markdown", "")))
	if err != nil {
		return nil, fmt.Errorf("import markdown: %w", err)
	}
	return jsonResult(st)
}

func (s *Server) handleImportJSON(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := requireArg(req, "title")
	if err != nil {
		return nil, err
	}
	data, err := requireArg(req, "json")
	if err != nil {
		return nil, err
	}
	st, err := s.stories.ImportJSON(ctx, title, []byte(data))
	if err != nil {
		return nil, fmt.Errorf("import json: %w", err)
	}
	return jsonResult(st)
}

func (s *Server) handlePublishStory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.publisher == nil {
		return nil, fmt.Errorf("publishing is not configured")
	}
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	path, err := s.publisher.PublishStory(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	if path == "" {
		return textResult(fmt.Sprintf("Story %s is already being published", st.Slug)), nil
	}
	return textResult(fmt.Sprintf("Published %s to %s", st.Slug, path)), nil
}
