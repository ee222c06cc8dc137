package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerStoryTools() {
	// ── list_stories ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_stories",
		mcp.WithDescription("List all stories, newest first"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListStories)

	// ── create_story ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_story",
		mcp.WithDescription("Create a new empty story. The slug is derived from the title."),
		mcp.WithString("title", mcp.Description("Story title"), mcp.Required()),
	), s.handleCreateStory)

	// ── get_story ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_story",
		mcp.WithDescription("Get a story and its blocks in order"),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleGetStory)

	// ── rename_story ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_story",
		mcp.WithDescription("Change a story's title. The slug does not change."),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title"), mcp.Required()),
	), s.handleRenameStory)

	// ── delete_story (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_story",
		mcp.WithDescription("Delete a story and all of its blocks"),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteStory)
}

func (s *Server) handleListStories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stories, err := s.stories.ListStories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return jsonResult(stories)
}

func (s *Server) handleCreateStory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := requireArg(req, "title")
	if err != nil {
		return nil, err
	}
	st, err := s.stories.CreateStory(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	return jsonResult(st)
}

func (s *Server) handleGetStory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	state, err := s.stories.GetStory(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(state)
}

func (s *Server) handleRenameStory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	title, err := requireArg(req, "title")
	if err != nil {
		return nil, err
	}
	renamed, err := s.stories.RenameStory(ctx, st.ID, title)
	if err != nil {
		return nil, fmt.Errorf("rename story: %w", err)
	}
	return jsonResult(renamed)
}

func (s *Server) handleDeleteStory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.stories.DeleteStory(ctx, st.ID); err != nil {
		return nil, fmt.Errorf("delete story: %w", err)
	}
	return textResult(fmt.Sprintf("Story %s deleted", st.Slug)), nil
}
