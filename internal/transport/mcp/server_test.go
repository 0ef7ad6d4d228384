package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	err error

	gotCurrent  string
	gotWindow   string
	gotTicketID string
}

func (f *fakePipeline) Process(_ context.Context, newText, window, ticketID string) (core.ProcessResult, error) {
	f.gotCurrent, f.gotWindow, f.gotTicketID = newText, window, ticketID
	if f.err != nil {
		return core.ProcessResult{}, f.err
	}
	return core.ProcessResult{Type: string(core.ActionNone)}, nil
}

func (f *fakePipeline) Analyze(_ context.Context, current, window string) (core.ActionDecision, error) {
	f.gotCurrent, f.gotWindow = current, window
	if f.err != nil {
		return "", f.err
	}
	return core.ActionCreateNewTicket, nil
}

func (f *fakePipeline) Create(_ context.Context, current, window string) (core.TicketDraft, core.TicketResult, error) {
	f.gotCurrent, f.gotWindow = current, window
	if f.err != nil {
		return core.TicketDraft{}, core.TicketResult{}, f.err
	}
	return core.TicketDraft{Title: "Report"}, core.TicketResult{Success: true, Issue: core.Issue{ID: "ISS-1"}}, nil
}

func callRequest(args map[string]any) mcpproto.CallToolRequest {
	var req mcpproto.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcpproto.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcpproto.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text
}

func TestServer_Tools(t *testing.T) {
	type handler func(*Server) func(context.Context, mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error)

	tests := []struct {
		name     string
		handler  handler
		args     map[string]any
		err      error
		wantJSON map[string]any
		wantErr  string
	}{
		{
			name:     "analyze",
			handler:  func(s *Server) func(context.Context, mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) { return s.analyze },
			args:     map[string]any{argCurrent: "Let's build the login page", argWindow: "earlier"},
			wantJSON: map[string]any{"type_of_action": "create_new_ticket"},
		},
		{
			name:    "analyze missing context",
			handler: func(s *Server) func(context.Context, mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) { return s.analyze },
			args:    map[string]any{argWindow: "earlier"},
			wantErr: argCurrent,
		},
		{
			name:    "create",
			handler: func(s *Server) func(context.Context, mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) { return s.create },
			args:    map[string]any{argCurrent: "ship the report"},
			wantJSON: map[string]any{
				"ticket": map[string]any{"title": "Report", "description": "", "priority": float64(0)},
				"linear": map[string]any{"success": true, "issue": map[string]any{"id": "ISS-1", "title": "", "url": ""}},
			},
		},
		{
			name:    "create fails",
			handler: func(s *Server) func(context.Context, mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) { return s.create },
			args:    map[string]any{argCurrent: "ship the report"},
			err:     &core.TransportError{Service: core.ServiceTracker, StatusCode: 502},
			wantErr: "failed to create ticket: tracker request failed: http 502",
		},
		{
			name:     "process",
			handler:  func(s *Server) func(context.Context, mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) { return s.process },
			args:     map[string]any{argCurrent: "small talk", argTicketID: "T1"},
			wantJSON: map[string]any{"type": "none"},
		},
		{
			name:    "process fails",
			handler: func(s *Server) func(context.Context, mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) { return s.process },
			args:    map[string]any{argCurrent: "x"},
			err:     errors.New("boom"),
			wantErr: "failed to process conversation: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := &fakePipeline{err: tt.err}
			s := NewServer(pipeline)

			res, err := tt.handler(s)(context.Background(), callRequest(tt.args))
			require.NoError(t, err)

			if tt.wantErr != "" {
				assert.True(t, res.IsError)
				assert.Contains(t, resultText(t, res), tt.wantErr)
				return
			}

			assert.False(t, res.IsError)
			var got map[string]any
			require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &got))
			assert.Equal(t, tt.wantJSON, got)
			assert.Equal(t, tt.args[argCurrent], pipeline.gotCurrent)
		})
	}
}

func TestServer_ProcessPassesTicketID(t *testing.T) {
	pipeline := &fakePipeline{}
	s := NewServer(pipeline)

	_, err := s.process(context.Background(), callRequest(map[string]any{
		argCurrent:  "finish the login flow",
		argWindow:   "login page talk",
		argTicketID: "T1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "login page talk", pipeline.gotWindow)
	assert.Equal(t, "T1", pipeline.gotTicketID)
}

func TestServer_ListTools(t *testing.T) {
	s := NewServer(&fakePipeline{})

	resp := s.mcp.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var got struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				Description string `json:"description"`
				InputSchema struct {
					Properties map[string]any `json:"properties"`
					Required   []string       `json:"required"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &got))

	byName := map[string]int{}
	for i, tool := range got.Result.Tools {
		byName[tool.Name] = i
	}
	for _, name := range []string{"analyze_ticket", "create_ticket", "process_conversation"} {
		i, ok := byName[name]
		require.True(t, ok, "tool %s not registered", name)
		tool := got.Result.Tools[i]
		assert.NotEmpty(t, tool.Description, name)
		assert.Equal(t, []string{argCurrent}, tool.InputSchema.Required, name)
		assert.Contains(t, tool.InputSchema.Properties, argWindow, name)
	}
	assert.Contains(t, got.Result.Tools[byName["process_conversation"]].InputSchema.Properties, argTicketID)
	assert.NotContains(t, got.Result.Tools[byName["analyze_ticket"]].InputSchema.Properties, argTicketID)
}
