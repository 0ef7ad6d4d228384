// Package telegram posts ticket activity to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/kurt/internal/config"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
	tele "gopkg.in/telebot.v3"
)

var priorityNames = map[int]string{
	0: "No priority",
	1: "Urgent",
	2: "High",
	3: "Normal",
	4: "Low",
}

type Notifier struct {
	chat   tele.ChatID
	sender *sender
}

// NewNotifier builds a send-only bot. apiURL overrides the Telegram API endpoint when set.
func NewNotifier(cfg *config.TelegramConfig, apiURL string) (*Notifier, error) {
	b, err := tele.NewBot(tele.Settings{
		URL:     apiURL,
		Token:   cfg.Token,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Notifier{
		chat:   tele.ChatID(cfg.ChatID),
		sender: newSender(b),
	}, nil
}

// NotifyTicket posts the ticket to the chat. Updates are sent without a notification sound.
func (n *Notifier) NotifyTicket(ctx context.Context, eventType string, ticket core.TicketResult, draft core.TicketDraft) error {
	silent := eventType == core.EventTicketUpdated
	if err := n.sender.sendMarkdown(ctx, n.chat, formatTicket(eventType, ticket, draft), silent); err != nil {
		return fmt.Errorf("notify ticket %s: %w", ticket.Issue.ID, err)
	}
	log.FromCtx(ctx).Debug().Str("ticket_id", ticket.Issue.ID).Msg("ticket notification sent")
	return nil
}

func formatTicket(eventType string, ticket core.TicketResult, draft core.TicketDraft) string {
	verb := "Ticket created"
	if eventType == core.EventTicketUpdated {
		verb = "Ticket updated"
	}

	title := ticket.Issue.Title
	if title == "" {
		title = draft.Title
	}

	var b strings.Builder
	if ticket.Issue.URL != "" {
		fmt.Fprintf(&b, "**%s**: [%s](%s)\n\n", verb, title, ticket.Issue.URL)
	} else {
		fmt.Fprintf(&b, "**%s**: %s\n\n", verb, title)
	}

	if name, ok := priorityNames[draft.Priority]; ok && draft.Priority != core.PriorityNone {
		fmt.Fprintf(&b, "Priority: %s\n", name)
	}
	if draft.DueDate != "" {
		fmt.Fprintf(&b, "Due: %s\n", draft.DueDate)
	}
	if desc := strings.TrimSpace(draft.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
	}
	return b.String()
}
