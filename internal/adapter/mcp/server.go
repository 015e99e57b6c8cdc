// Package mcp exposes the onboarding pipeline as Model Context Protocol
// tools and resources over streamable HTTP.
package mcp

import (
	"context"
	"net/http"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
	"github.com/Strob0t/OnboardForge/internal/service"
)

// Pipeline runs and reads assessments.
type Pipeline interface {
	Assess(ctx context.Context, req application.CreateRequest) (*onboarding.Case, error)
	Get(ctx context.Context, id string) (*onboarding.Case, error)
	Evaluate(metrics map[string]any) (decision.Input, decision.Decision)
	Rules() []decision.RuleInfo
}

// ReviewQueue reads the human review queue.
type ReviewQueue interface {
	ListPending(ctx context.Context) ([]service.ReviewItem, error)
	GetPacket(ctx context.Context, id string) (*service.ReviewItem, error)
}

// ServerConfig names the server in the MCP handshake.
type ServerConfig struct {
	Name    string
	Version string
}

// ServerDeps are the services behind the tools. Nil deps make the
// corresponding tools return an error result.
type ServerDeps struct {
	Pipeline Pipeline
	Reviews  ReviewQueue
}

// Server wraps an MCP server with the onboarding tools registered.
type Server struct {
	mcpServer *mcpserver.MCPServer
	deps      ServerDeps
}

// NewServer builds the MCP server and registers tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
		deps: deps,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcpServer }

// Handler returns the streamable HTTP transport for mounting on a router.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer, mcpserver.WithStateLess(true))
}

func toolResultJSON(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}
