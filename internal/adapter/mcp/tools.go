package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/OnboardForge/internal/domain/application"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.assessApplicationTool(),
		s.getApplicationTool(),
		s.listPendingReviewsTool(),
		s.getReviewPacketTool(),
		s.evaluateDecisionTool(),
	)
}

func (s *Server) assessApplicationTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("assess_application",
		mcplib.WithDescription("Submit a business account application and run the full assessment pipeline"),
		mcplib.WithObject("application",
			mcplib.Description("Application form: business_name, industry, employees, owner_name, owner_email, business_age, documents, identity, financials, business_profile"),
		),
		mcplib.WithBoolean("demo",
			mcplib.Description("Assess the built-in demo application instead"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleAssessApplication}
}

func (s *Server) getApplicationTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_application",
		mcplib.WithDescription("Get an application case with its assessment, decision and overrides"),
		mcplib.WithString("application_id",
			mcplib.Required(),
			mcplib.Description("The application ID (APP-...)"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetApplication}
}

func (s *Server) listPendingReviewsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_pending_reviews",
		mcplib.WithDescription("List applications waiting on a human reviewer"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleListPendingReviews}
}

func (s *Server) getReviewPacketTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("get_review_packet",
		mcplib.WithDescription("Get the reviewer packet for an application routed to human review"),
		mcplib.WithString("application_id",
			mcplib.Required(),
			mcplib.Description("The application ID (APP-...)"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleGetReviewPacket}
}

func (s *Server) evaluateDecisionTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("evaluate_decision",
		mcplib.WithDescription("Run the decision cascade over a flat metrics map without storing anything"),
		mcplib.WithObject("metrics",
			mcplib.Required(),
			mcplib.Description("Assessment metrics such as credit_score, compliance_score, documents_complete, kyc_status, kyc_risk_level"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleEvaluateDecision}
}

func (s *Server) handleAssessApplication(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Pipeline == nil {
		return mcplib.NewToolResultError("pipeline not configured"), nil
	}
	args := req.GetArguments()

	var form application.CreateRequest
	if demo, _ := args["demo"].(bool); demo {
		form = application.Demo()
	} else {
		raw, ok := args["application"]
		if !ok {
			return mcplib.NewToolResultError("application or demo is required"), nil
		}
		if err := decodeArg(raw, &form); err != nil {
			return mcplib.NewToolResultErrorFromErr("invalid application", err), nil
		}
	}

	c, err := s.deps.Pipeline.Assess(ctx, form)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to assess application", err), nil
	}
	return marshalResult(c, "case")
}

func (s *Server) handleGetApplication(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Pipeline == nil {
		return mcplib.NewToolResultError("pipeline not configured"), nil
	}
	id, ok := req.GetArguments()["application_id"].(string)
	if !ok || id == "" {
		return mcplib.NewToolResultError("application_id is required"), nil
	}
	c, err := s.deps.Pipeline.Get(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get application %s", id), err), nil
	}
	return marshalResult(c, "case")
}

func (s *Server) handleListPendingReviews(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Reviews == nil {
		return mcplib.NewToolResultError("review queue not configured"), nil
	}
	items, err := s.deps.Reviews.ListPending(ctx)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list pending reviews", err), nil
	}
	return marshalResult(items, "reviews")
}

func (s *Server) handleGetReviewPacket(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Reviews == nil {
		return mcplib.NewToolResultError("review queue not configured"), nil
	}
	id, ok := req.GetArguments()["application_id"].(string)
	if !ok || id == "" {
		return mcplib.NewToolResultError("application_id is required"), nil
	}
	item, err := s.deps.Reviews.GetPacket(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to get review packet %s", id), err), nil
	}
	return marshalResult(item, "review packet")
}

func (s *Server) handleEvaluateDecision(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Pipeline == nil {
		return mcplib.NewToolResultError("pipeline not configured"), nil
	}
	metrics, ok := req.GetArguments()["metrics"].(map[string]any)
	if !ok {
		return mcplib.NewToolResultError("metrics must be an object"), nil
	}
	in, d := s.deps.Pipeline.Evaluate(metrics)
	return marshalResult(map[string]any{"input": in, "decision": d}, "decision")
}

// decodeArg converts a loosely typed tool argument into dst.
func decodeArg(raw, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func marshalResult(v any, what string) (*mcplib.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal "+what, err), nil
	}
	return toolResultJSON(string(data)), nil
}
