// Package ticket turns transcript deltas into tracker tickets.
package ticket

import (
	"context"

	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
)

type Oracle interface {
	ClassifyAction(ctx context.Context, current, window, relatedID string) (core.ActionDecision, error)
	DraftTicket(ctx context.Context, current, window string) (core.TicketDraft, error)
}

// Cache is the process-wide memory of recently written tickets.
type Cache interface {
	Add(ticketID, contextText string)
	FindRelated(contextText string) (string, bool)
}

type Processor struct {
	cache     Cache
	oracle    Oracle
	tracker   core.IssueTracker
	notifiers []core.TicketNotifier
}

type Option func(*Processor)

// WithNotifier adds a receiver for every ticket the processor writes.
func WithNotifier(n core.TicketNotifier) Option {
	return func(p *Processor) {
		if n != nil {
			p.notifiers = append(p.notifiers, n)
		}
	}
}

func NewProcessor(cache Cache, oracle Oracle, tracker core.IssueTracker, opts ...Option) *Processor {
	p := &Processor{
		cache:   cache,
		oracle:  oracle,
		tracker: tracker,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process handles one transcript delta. A related ticket, given or found in the
// cache, is always updated; otherwise the oracle decides. Errors are returned as is.
func (p *Processor) Process(ctx context.Context, newText, window, existingTicketID string) (core.ProcessResult, error) {
	logger := log.FromCtx(ctx)

	relatedID := existingTicketID
	if relatedID == "" {
		if id, ok := p.cache.FindRelated(newText); ok {
			relatedID = id
			logger.Debug().Str("ticket_id", id).Msg("delta matches cached ticket")
		}
	}

	if relatedID != "" {
		draft, err := p.oracle.DraftTicket(ctx, newText, window)
		if err != nil {
			return core.ProcessResult{}, err
		}
		ticket, err := p.tracker.UpdateIssue(ctx, relatedID, draft)
		if err != nil {
			return core.ProcessResult{}, err
		}
		p.cache.Add(ticket.Issue.ID, newText)
		p.notify(ctx, core.EventTicketUpdated, ticket, draft)

		return core.ProcessResult{Type: core.EventTicketUpdated, Ticket: &ticket, Draft: &draft}, nil
	}

	action, err := p.oracle.ClassifyAction(ctx, newText, window, "")
	if err != nil {
		return core.ProcessResult{}, err
	}

	if action != core.ActionCreateNewTicket {
		// update_ticket without a known ticket has nothing to update
		return core.ProcessResult{Type: string(action)}, nil
	}

	draft, ticket, err := p.create(ctx, newText, window)
	if err != nil {
		return core.ProcessResult{}, err
	}
	return core.ProcessResult{Type: core.EventTicketCreated, Ticket: &ticket, Draft: &draft}, nil
}

// Analyze classifies current, offering the best cached match as an existing ticket.
func (p *Processor) Analyze(ctx context.Context, current, window string) (core.ActionDecision, error) {
	relatedID, _ := p.cache.FindRelated(current)
	return p.oracle.ClassifyAction(ctx, current, window, relatedID)
}

// Create drafts and files a new ticket without consulting the classifier.
func (p *Processor) Create(ctx context.Context, current, window string) (core.TicketDraft, core.TicketResult, error) {
	return p.create(ctx, current, window)
}

func (p *Processor) create(ctx context.Context, current, window string) (core.TicketDraft, core.TicketResult, error) {
	draft, err := p.oracle.DraftTicket(ctx, current, window)
	if err != nil {
		return core.TicketDraft{}, core.TicketResult{}, err
	}
	ticket, err := p.tracker.CreateIssue(ctx, draft)
	if err != nil {
		return core.TicketDraft{}, core.TicketResult{}, err
	}
	p.cache.Add(ticket.Issue.ID, current)
	p.notify(ctx, core.EventTicketCreated, ticket, draft)
	return draft, ticket, nil
}

func (p *Processor) notify(ctx context.Context, eventType string, ticket core.TicketResult, draft core.TicketDraft) {
	for _, n := range p.notifiers {
		if err := n.NotifyTicket(ctx, eventType, ticket, draft); err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("ticket_id", ticket.Issue.ID).Msg("ticket notification failed")
		}
	}
}
