package core

import "context"

type AIProvider interface {
	Chat(ctx context.Context, req ChatRequest) (Message, error)
}

type IssueTracker interface {
	CreateIssue(ctx context.Context, draft TicketDraft) (TicketResult, error)
	UpdateIssue(ctx context.Context, issueID string, draft TicketDraft) (TicketResult, error)
}

type MeetingBot interface {
	CreateBot(ctx context.Context, meetingURL, botName string) (string, error)
	Transcript(ctx context.Context, botID string) (string, error)
	Leave(ctx context.Context, botID string) error
}

// TicketNotifier receives every ticket the pipeline writes.
type TicketNotifier interface {
	NotifyTicket(ctx context.Context, eventType string, ticket TicketResult, draft TicketDraft) error
}
