// Package mcp serves the ticket pipeline as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
)

const (
	argCurrent  = "current_context"
	argWindow   = "window_context"
	argTicketID = "existing_ticket_id"
)

type Pipeline interface {
	Process(ctx context.Context, newText, window, existingTicketID string) (core.ProcessResult, error)
	Analyze(ctx context.Context, current, window string) (core.ActionDecision, error)
	Create(ctx context.Context, current, window string) (core.TicketDraft, core.TicketResult, error)
}

type Server struct {
	mcp      *server.MCPServer
	pipeline Pipeline
}

func NewServer(pipeline Pipeline) *Server {
	s := &Server{
		mcp:      server.NewMCPServer(core.KurtName, core.KurtVersion, server.WithToolCapabilities(false)),
		pipeline: pipeline,
	}

	s.mcp.AddTool(mcpproto.NewTool("analyze_ticket", contextArgs(
		"Decide whether a piece of meeting conversation should create a ticket, update one, or be ignored.",
	)...), s.analyze)

	s.mcp.AddTool(mcpproto.NewTool("create_ticket", contextArgs(
		"Draft a ticket from meeting conversation and file it in the issue tracker.",
	)...), s.create)

	s.mcp.AddTool(mcpproto.NewTool("process_conversation", append(contextArgs(
		"Run the full pipeline on new conversation: update a related ticket, create a new one, or do nothing.",
	), mcpproto.WithString(argTicketID, mcpproto.Description("Ticket to update regardless of the conversation's topic")))...), s.process)

	return s
}

func contextArgs(description string) []mcpproto.ToolOption {
	return []mcpproto.ToolOption{
		mcpproto.WithDescription(description),
		mcpproto.WithString(argCurrent, mcpproto.Required(), mcpproto.Description("New conversation text to act on")),
		mcpproto.WithString(argWindow, mcpproto.Description("Earlier conversation for context")),
	}
}

// Serve reads requests from in and writes responses to out until ctx ends or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	log.FromCtx(ctx).Info().Msg("serving mcp over stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) analyze(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	current, err := req.RequireString(argCurrent)
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	action, err := s.pipeline.Analyze(ctx, current, req.GetString(argWindow, ""))
	if err != nil {
		return toolError("analyze ticket", err), nil
	}
	return jsonResult(map[string]core.ActionDecision{"type_of_action": action})
}

func (s *Server) create(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	current, err := req.RequireString(argCurrent)
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	draft, ticket, err := s.pipeline.Create(ctx, current, req.GetString(argWindow, ""))
	if err != nil {
		return toolError("create ticket", err), nil
	}
	return jsonResult(map[string]any{"ticket": draft, "linear": ticket})
}

func (s *Server) process(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	current, err := req.RequireString(argCurrent)
	if err != nil {
		return mcpproto.NewToolResultError(err.Error()), nil
	}

	result, err := s.pipeline.Process(ctx, current, req.GetString(argWindow, ""), req.GetString(argTicketID, ""))
	if err != nil {
		return toolError("process conversation", err), nil
	}
	return jsonResult(result)
}

func toolError(op string, err error) *mcpproto.CallToolResult {
	return mcpproto.NewToolResultError(fmt.Sprintf("failed to %s: %v", op, err))
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}
