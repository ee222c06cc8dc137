package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"storyblocks/internal/service"
)

// Server is the MCP server for storyblocks.
// It exposes tools, resources, and prompts so AI agents can write stories.
type Server struct {
	mcp *server.MCPServer
	log *zap.Logger

	// Services (injected from app layer)
	stories   *service.StoryService
	publisher *service.Publisher

	sessions sessionSet
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Stories   *service.StoryService
	Publisher *service.Publisher
	Logger    *zap.Logger
	Version   string
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := &Server{
		log:       deps.Logger.Named("mcp"),
		stories:   deps.Stories,
		publisher: deps.Publisher,
	}

	s.mcp = server.NewMCPServer(
		"storyblocks-mcp",
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
		server.WithLogging(),
	)

	s.registerStoryTools()
	s.registerBlockTools()
	s.registerRenderTools()
	s.registerSessionTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// Emit forwards service events to connected clients as log notifications,
// so an agent sees edits made by the watcher or the scheduler.
func (s *Server) Emit(_ context.Context, event string, data any) {
	s.mcp.SendNotificationToAllClients("notifications/message", map[string]any{
		"level":  string(mcp.LoggingLevelInfo),
		"logger": "storyblocks",
		"data":   map[string]any{"event": event, "payload": data},
	})
}
