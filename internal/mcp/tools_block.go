package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"storyblocks/internal/blocks"
	"storyblocks/internal/registry"
)

func (s *Server) registerBlockTools() {
	// ── search_block_types ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("search_block_types",
		mcp.WithDescription("List the block kinds that can be inserted, optionally filtered by a search query"),
		mcp.WithString("query", mcp.Description("Case-insensitive filter on name and description (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleSearchBlockTypes)

	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of a story in order"),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListBlocks)

	// ── insert_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("insert_block",
		mcp.WithDescription("Insert a new block. Use search_block_types for the available kinds."),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithString("kind",
			mcp.Description("Block kind id: paragraph, heading, image, bullet_list, divider"),
			mcp.Required(),
		),
		mcp.WithNumber("index", mcp.Description("Position to insert at (optional, defaults to the end)")),
		mcp.WithString("content", mcp.Description("Initial text; list items one per line (optional)")),
		mcp.WithNumber("level", mcp.Description("Heading level 1-3 (optional, headings only)")),
	), s.handleInsertBlock)

	// ── update_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block",
		mcp.WithDescription("Update fields of a block. Omitted fields are left unchanged."),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("New text")),
		mcp.WithNumber("level", mcp.Description("New heading level 1-3")),
		mcp.WithString("imageUrl", mcp.Description("New image URL")),
		mcp.WithString("imageAlt", mcp.Description("New image alt text")),
	), s.handleUpdateBlock)

	// ── remove_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_block",
		mcp.WithDescription("Remove a block. Removing the last block clears it instead."),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveBlock)

	// ── reorder_blocks ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_blocks",
		mcp.WithDescription("Move a block so it sits just before another block"),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block to move"), mcp.Required()),
		mcp.WithString("beforeId", mcp.Description("Block to move it in front of"), mcp.Required()),
	), s.handleReorderBlocks)

	// ── attach_image ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("attach_image",
		mcp.WithDescription("Load a local image file into an image block as an embedded data URL"),
		mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Image block ID"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Absolute path of the image file"), mcp.Required()),
	), s.handleAttachImage)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleSearchBlockTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results := registry.Filter(req.GetString("query", ""))
	if len(results) == 0 {
		return textResult(registry.EmptyStateMessage), nil
	}
	return jsonResult(results)
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	state, err := s.stories.GetStory(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	return jsonResult(state.Blocks)
}

func (s *Server) handleInsertBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	kind, err := requireArg(req, "kind")
	if err != nil {
		return nil, err
	}
	entry, ok := registry.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("unknown block kind %q (see search_block_types)", kind)
	}

	spec := entry.Selection().Spec()
	spec.HeadingLevel = req.GetInt("level", 0)
	if !spec.Divider {
		spec.Content = req.GetString("content", "")
	}

	at := req.GetInt("index", -1)
	if at < 0 {
		state, err := s.stories.GetStory(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		at = len(state.Blocks)
	}

	b, err := s.stories.InsertBlock(ctx, st.ID, at, spec)
	if err != nil {
		return nil, fmt.Errorf("insert block: %w", err)
	}
	return jsonResult(b)
}

func (s *Server) handleUpdateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireArg(req, "blockId")
	if err != nil {
		return nil, err
	}

	args := req.GetArguments()
	var patch blocks.Patch
	if v, ok := args["content"].(string); ok {
		patch.Content = &v
	}
	if v, ok := args["level"].(float64); ok {
		level := int(v)
		patch.HeadingLevel = &level
	}
	if v, ok := args["imageUrl"].(string); ok {
		patch.ImageURL = &v
	}
	if v, ok := args["imageAlt"].(string); ok {
		patch.ImageAlt = &v
	}

	b, err := s.stories.UpdateBlock(ctx, st.ID, blockID, patch)
	if err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	return jsonResult(b)
}

func (s *Server) handleRemoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireArg(req, "blockId")
	if err != nil {
		return nil, err
	}
	if err := s.stories.RemoveBlock(ctx, st.ID, blockID); err != nil {
		return nil, fmt.Errorf("remove block: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s removed", blockID)), nil
}

func (s *Server) handleReorderBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireArg(req, "blockId")
	if err != nil {
		return nil, err
	}
	beforeID, err := requireArg(req, "beforeId")
	if err != nil {
		return nil, err
	}
	moved, err := s.stories.ReorderBlocks(ctx, st.ID, blockID, beforeID)
	if err != nil {
		return nil, fmt.Errorf("reorder blocks: %w", err)
	}
	if !moved {
		return textResult("Order unchanged"), nil
	}
	return textResult(fmt.Sprintf("Block %s moved before %s", blockID, beforeID)), nil
}

func (s *Server) handleAttachImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	blockID, err := requireArg(req, "blockId")
	if err != nil {
		return nil, err
	}
	path, err := requireArg(req, "path")
	if err != nil {
		return nil, err
	}
	b, err := s.stories.AttachImage(ctx, st.ID, blockID, path)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Image attached to block %s (%s)", b.ID, b.Alt())), nil
}
