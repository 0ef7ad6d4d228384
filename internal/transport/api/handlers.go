package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
)

type connectRequest struct {
	MeetingURL string `json:"meeting_url"`
	BotName    string `json:"bot_name"`
}

type transcriptRequest struct {
	BotID string `json:"bot_id"`
}

type contextRequest struct {
	CurrentContext   string `json:"currentContext"`
	WindowContext    string `json:"windowContext"`
	ExistingTicketID string `json:"existingTicketId"`
}

type taskRequest struct {
	IssueID     string `json:"issueId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	AssigneeID  string `json:"assigneeId"`
	DueDate     string `json:"dueDate"`
}

func (r taskRequest) draft() core.TicketDraft {
	return core.TicketDraft{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		AssigneeID:  r.AssigneeID,
		DueDate:     r.DueDate,
	}
}

func bindContext(c echo.Context) (contextRequest, error) {
	var req contextRequest
	if err := c.Bind(&req); err != nil {
		return req, err
	}
	if strings.TrimSpace(req.CurrentContext) == "" {
		return req, &core.ValidationError{Field: "currentContext"}
	}
	return req, nil
}

// connectToMeets sends a bot into the meeting and streams its session as SSE
// until the client goes away.
func (s *Server) connectToMeets(c echo.Context) error {
	var req connectRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.MeetingURL) == "" {
		return &core.ValidationError{Field: "meeting_url"}
	}
	if req.BotName == "" {
		req.BotName = s.defaultBotName
	}

	ctx := c.Request().Context()
	botID, err := s.deps.Bot.CreateBot(ctx, req.MeetingURL, req.BotName)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("meeting_url", req.MeetingURL).Msg("failed to connect to meeting")
		return c.JSON(http.StatusInternalServerError, errorBody{
			Type:    core.EventError,
			Error:   "Failed to connect to meeting",
			Details: err.Error(),
		})
	}

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	events := s.deps.Sessions.Run(sessCtx, botID)

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for ev := range events {
		frame, err := ev.MarshalSSE()
		if err != nil {
			log.FromCtx(ctx).Error().Err(err).Str("type", ev.Type).Msg("failed to encode event")
			continue
		}
		if _, err := res.Write(frame); err != nil {
			// client is gone; stop the session and let it release the bot
			cancel()
			continue
		}
		res.Flush()
	}
	return nil
}

func (s *Server) getTranscript(c echo.Context) error {
	var req transcriptRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.BotID) == "" {
		return &core.ValidationError{Field: "bot_id"}
	}

	text, err := s.deps.Bot.Transcript(c.Request().Context(), req.BotID)
	if err != nil {
		return failed("Failed to fetch transcript", err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"bot_id":     req.BotID,
		"transcript": text,
	})
}

func (s *Server) analyzeTicket(c echo.Context) error {
	req, err := bindContext(c)
	if err != nil {
		return err
	}

	action, err := s.deps.Pipeline.Analyze(c.Request().Context(), req.CurrentContext, req.WindowContext)
	if err != nil {
		return failed("Failed to analyze ticket", err)
	}
	return c.JSON(http.StatusOK, map[string]core.ActionDecision{"type_of_action": action})
}

func (s *Server) createTicket(c echo.Context) error {
	req, err := bindContext(c)
	if err != nil {
		return err
	}

	draft, ticket, err := s.deps.Pipeline.Create(c.Request().Context(), req.CurrentContext, req.WindowContext)
	if err != nil {
		return failed("Failed to create ticket", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ticket": draft,
		"linear": ticket,
	})
}

func (s *Server) processConversation(c echo.Context) error {
	req, err := bindContext(c)
	if err != nil {
		return err
	}

	result, err := s.deps.Pipeline.Process(c.Request().Context(), req.CurrentContext, req.WindowContext, req.ExistingTicketID)
	if err != nil {
		return failed("Failed to process conversation", err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) createTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Title) == "" {
		return &core.ValidationError{Field: "title"}
	}

	ticket, err := s.deps.Tracker.CreateIssue(c.Request().Context(), req.draft())
	if err != nil {
		return failed("Failed to create task", err)
	}
	return c.JSON(http.StatusOK, ticket)
}

func (s *Server) updateTask(c echo.Context) error {
	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.IssueID) == "" {
		return &core.ValidationError{Field: "issueId"}
	}

	ticket, err := s.deps.Tracker.UpdateIssue(c.Request().Context(), req.IssueID, req.draft())
	if err != nil {
		return failed("Failed to update task", err)
	}
	return c.JSON(http.StatusOK, ticket)
}
