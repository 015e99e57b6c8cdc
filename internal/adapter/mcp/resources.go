package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"onboardforge://rules",
			"Decision Rules",
			mcplib.WithResourceDescription("The decision cascade in evaluation order"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleRulesResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"onboardforge://reviews/pending",
			"Pending Reviews",
			mcplib.WithResourceDescription("Applications waiting on a human reviewer"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePendingResource,
	)
}

func (s *Server) handleRulesResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Pipeline == nil {
		return jsonContents(req.Params.URI, `{"error":"pipeline not configured"}`), nil
	}
	data, err := json.Marshal(s.deps.Pipeline.Rules())
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, string(data)), nil
}

func (s *Server) handlePendingResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Reviews == nil {
		return jsonContents(req.Params.URI, `{"error":"review queue not configured"}`), nil
	}
	items, err := s.deps.Reviews.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, string(data)), nil
}

func jsonContents(uri, text string) []mcplib.ResourceContents {
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     text,
		},
	}
}
