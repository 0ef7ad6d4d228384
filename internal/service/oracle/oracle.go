// Package oracle asks a chat-completion model what a transcript delta means:
// which ticket action it calls for and what the ticket should say.
package oracle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
	"github.com/sandevgo/kurt/pkg/tokens"
	"golang.org/x/time/rate"
)

const (
	classifyTemperature  = 0.7
	draftTemperature     = 0.7
	addressedTemperature = 0.1
	replyTemperature     = 0.7

	dateLayout = "2006-01-02"
)

type Oracle struct {
	provider      core.AIProvider
	limiter       *rate.Limiter
	truncator     *tokens.Truncator
	now           func() time.Time
	assistantName string
}

type Option func(*Oracle)

// WithRateLimit paces provider calls to rps per second, shared by every caller.
func WithRateLimit(rps float64) Option {
	return func(o *Oracle) {
		if rps > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithTruncator bounds the window context sent with each prompt.
func WithTruncator(t *tokens.Truncator) Option {
	return func(o *Oracle) {
		o.truncator = t
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Oracle) {
		o.now = now
	}
}

func WithAssistantName(name string) Option {
	return func(o *Oracle) {
		if name != "" {
			o.assistantName = name
		}
	}
}

func New(provider core.AIProvider, opts ...Option) *Oracle {
	o := &Oracle{
		provider:      provider,
		now:           time.Now,
		assistantName: core.KurtName,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ClassifyAction decides whether current calls for a new ticket, an update, or nothing.
// relatedID, when set, is offered to the model as an existing ticket.
func (o *Oracle) ClassifyAction(ctx context.Context, current, window, relatedID string) (core.ActionDecision, error) {
	reply, err := o.chat(ctx, core.ChatRequest{
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: classifyPrompt},
			{Role: core.RoleUser, Content: classifyMessage(current, o.truncator.Tail(ctx, window), relatedID)},
		},
		Temperature: classifyTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return "", err
	}

	var raw rawDecision
	if err := decodeJSON(reply, &raw); err != nil {
		return "", err
	}

	action, err := core.ParseActionDecision(strings.TrimSpace(raw.TypeOfAction))
	if err != nil {
		return "", &core.OracleParseError{Raw: reply, Err: err}
	}

	log.FromCtx(ctx).Debug().
		Str("action", string(action)).
		Str("related_ticket", relatedID).
		Msg("oracle classified delta")
	return action, nil
}

// DraftTicket synthesizes ticket fields from the conversation.
// Out-of-range priorities become PriorityNone; unparseable due dates are dropped.
func (o *Oracle) DraftTicket(ctx context.Context, current, window string) (core.TicketDraft, error) {
	reply, err := o.chat(ctx, core.ChatRequest{
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: draftPrompt},
			{Role: core.RoleUser, Content: draftMessage(current, o.truncator.Tail(ctx, window), o.now().Format(dateLayout))},
		},
		Temperature: draftTemperature,
		JSONMode:    true,
	})
	if err != nil {
		return core.TicketDraft{}, err
	}

	var raw rawDraft
	if err := decodeJSON(reply, &raw); err != nil {
		return core.TicketDraft{}, err
	}

	logger := log.FromCtx(ctx)
	draft := core.TicketDraft{
		Title:       strings.TrimSpace(raw.Title),
		Description: raw.Description,
		AssigneeID:  strings.TrimSpace(raw.AssigneeID),
	}
	if draft.Title == "" {
		return core.TicketDraft{}, &core.OracleParseError{Raw: reply, Err: errors.New("draft has no title")}
	}

	if raw.Priority != "" {
		p, err := parsePriority(raw.Priority)
		switch {
		case err != nil:
			return core.TicketDraft{}, &core.OracleParseError{Raw: reply, Err: err}
		case p < core.PriorityNone || p > core.PriorityLow:
			logger.Warn().Int64("priority", p).Msg("oracle priority out of range, using none")
		default:
			draft.Priority = int(p)
		}
	}

	if due := strings.TrimSpace(raw.DueDate); due != "" {
		if _, err := time.Parse(dateLayout, due); err != nil {
			logger.Warn().Str("due_date", due).Msg("oracle due date is not YYYY-MM-DD, dropping it")
		} else {
			draft.DueDate = due
		}
	}

	logger.Debug().
		Str("title", draft.Title).
		Int("priority", draft.Priority).
		Msg("oracle drafted ticket")
	return draft, nil
}

// IsAddressed reports whether someone in text speaks to the assistant directly.
func (o *Oracle) IsAddressed(ctx context.Context, text string) (bool, error) {
	reply, err := o.chat(ctx, core.ChatRequest{
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: addressedPrompt(o.assistantName)},
			{Role: core.RoleUser, Content: text},
		},
		Temperature: addressedTemperature,
	})
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(reply), "true"), nil
}

func (o *Oracle) Reply(ctx context.Context, text string) (string, error) {
	reply, err := o.chat(ctx, core.ChatRequest{
		Messages: []core.Message{
			{Role: core.RoleSystem, Content: replyPrompt(o.assistantName)},
			{Role: core.RoleUser, Content: text},
		},
		Temperature: replyTemperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (o *Oracle) chat(ctx context.Context, req core.ChatRequest) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", &core.TransportError{Service: core.ServiceOracle, Err: err}
		}
	}

	msg, err := o.provider.Chat(ctx, req)
	if err != nil {
		if core.IsTransport(err) || core.IsOracleParse(err) {
			return "", err
		}
		return "", &core.TransportError{Service: core.ServiceOracle, Err: err}
	}
	return msg.Content, nil
}
