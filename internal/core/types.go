package core

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	KurtName          = "Kurt"
	KurtUserAgent     = "Kurt-Agent/0.1"
	KurtRepositoryURL = "https://github.com/sandevgo/kurt"
	KurtVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one completion call. JSONMode asks the provider for a JSON object body.
type ChatRequest struct {
	Messages    []Message
	Temperature float64
	JSONMode    bool
}

// ActionDecision is the oracle's verdict on a transcript delta.
type ActionDecision string

const (
	ActionCreateNewTicket ActionDecision = "create_new_ticket"
	ActionUpdateTicket    ActionDecision = "update_ticket"
	ActionNone            ActionDecision = "none"
)

func ParseActionDecision(s string) (ActionDecision, error) {
	switch a := ActionDecision(s); a {
	case ActionCreateNewTicket, ActionUpdateTicket, ActionNone:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// TicketDraft holds the ticket fields synthesized from conversation text.
// Priority: 0 = No priority, 1 = Urgent, 2 = High, 3 = Normal, 4 = Low.
type TicketDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	AssigneeID  string `json:"assigneeId,omitempty"`
	DueDate     string `json:"dueDate,omitempty"` // YYYY-MM-DD
}

const (
	PriorityNone   = 0
	PriorityUrgent = 1
	PriorityLow    = 4
)

type Issue struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// TicketResult mirrors the tracker's mutation payload.
type TicketResult struct {
	Success bool  `json:"success"`
	Issue   Issue `json:"issue"`
}

const (
	EventConnection    = "connection"
	EventTranscript    = "transcript"
	EventTicketCreated = "ticket_created"
	EventTicketUpdated = "ticket_updated"
	EventBotAddressed  = "bot_addressed"
	EventError         = "error"
)

// ProcessResult is the outcome of processing one transcript delta.
// Type is ticket_created, ticket_updated, or the raw decision when nothing was written.
type ProcessResult struct {
	Type   string        `json:"type"`
	Ticket *TicketResult `json:"ticket,omitempty"`
	Draft  *TicketDraft  `json:"-"`
}

// Event is one message on a session stream.
type Event struct {
	Type       string        `json:"type"`
	Status     string        `json:"status,omitempty"`
	BotID      string        `json:"bot_id,omitempty"`
	SessionID  string        `json:"session_id,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	Response   string        `json:"response,omitempty"`
	Ticket     *TicketResult `json:"ticket,omitempty"`
	Error      string        `json:"error,omitempty"`
	Details    string        `json:"details,omitempty"`
	Timestamp  *time.Time    `json:"timestamp,omitempty"`
}

// MarshalSSE frames the event as a server-sent-events data line.
func (e Event) MarshalSSE() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)+8)
	out = append(out, "data: "...)
	out = append(out, data...)
	out = append(out, '\n', '\n')
	return out, nil
}
