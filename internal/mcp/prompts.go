package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("write_story",
		mcp.WithPromptDescription("Guide through drafting a new story block by block"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("What the story is about"),
			mcp.RequiredArgument(),
		),
	), s.handleWriteStoryPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("restructure_story",
		mcp.WithPromptDescription("Reorganise an existing story into clear sections"),
		mcp.WithArgument("story",
			mcp.ArgumentDescription("Story ID or slug"),
			mcp.RequiredArgument(),
		),
	), s.handleRestructurePrompt)
}

func (s *Server) handleWriteStoryPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Write a story about: %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Write a story about "%s". Follow these steps:

1. Use create_story with a short, descriptive title
2. Use search_block_types to see which kinds of blocks exist
3. Open with a level 1 heading, then add paragraph blocks with insert_block
4. Separate major sections with a divider and a level 2 heading
5. Use a bullet_list block for any list, one item per line
6. Finish with render_story (format markdown) and review the result

Keep paragraphs short. Do not leave empty blocks behind.`, topic),
				},
			},
		},
	}, nil
}

func (s *Server) handleRestructurePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	story := req.Params.Arguments["story"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Restructure story %s", story),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Restructure the story "%s":

1. Read it with list_blocks
2. Group related paragraphs under level 2 headings, inserting headings where needed
3. Use reorder_blocks to move blocks into a logical order
4. Remove duplicated or empty blocks with remove_block
5. Show the final version with render_story`, story),
				},
			},
		},
	}, nil
}
