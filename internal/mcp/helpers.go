package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"storyblocks/internal/domain"
)

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// requireArg returns a non-empty string argument or an error naming it.
func requireArg(req mcp.CallToolRequest, name string) (string, error) {
	v := req.GetString(name, "")
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// resolveStory accepts a story id or slug from the "story" argument.
func (s *Server) resolveStory(ctx context.Context, req mcp.CallToolRequest) (*domain.Story, error) {
	ref, err := requireArg(req, "story")
	if err != nil {
		return nil, err
	}
	st, err := s.stories.ResolveStory(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("story %q: %w", ref, err)
	}
	return st, nil
}

func boolPtr(v bool) *bool { return &v }
