// Package poller follows one meeting bot's transcript and feeds new speech to
// the ticket processor, reporting what happened as a stream of events.
package poller

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/kurt/internal/core"
	"github.com/sandevgo/kurt/pkg/log"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultCallTimeout = 30 * time.Second

	fetchFailed   = "Failed to fetch transcript"
	processFailed = "Failed to process conversation"
)

type Processor interface {
	Process(ctx context.Context, newText, window, existingTicketID string) (core.ProcessResult, error)
}

// Assistant answers participants who speak to the bot by name.
type Assistant interface {
	IsAddressed(ctx context.Context, text string) (bool, error)
	Reply(ctx context.Context, text string) (string, error)
}

type Poller struct {
	bot         core.MeetingBot
	processor   Processor
	assistant   Assistant
	interval    time.Duration
	callTimeout time.Duration
	now         func() time.Time
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithCallTimeout bounds each outbound step of a poll: fetch, processing, assistant.
func WithCallTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.callTimeout = d
		}
	}
}

func WithAssistant(a Assistant) Option {
	return func(p *Poller) {
		p.assistant = a
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		p.now = now
	}
}

func New(bot core.MeetingBot, processor Processor, opts ...Option) *Poller {
	p := &Poller{
		bot:         bot,
		processor:   processor,
		interval:    DefaultInterval,
		callTimeout: DefaultCallTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls botID until ctx is cancelled. The returned channel yields a
// connection event first and is closed after the bot has been asked to leave.
func (p *Poller) Run(ctx context.Context, botID string) <-chan core.Event {
	out := make(chan core.Event)
	s := &session{
		Poller: p,
		botID:  botID,
		id:     uuid.NewString(),
		out:    out,
	}

	go func() {
		defer close(out)
		ctx := log.WithSession(ctx, s.botID, s.id)
		defer s.release(ctx)
		s.loop(ctx)
	}()
	return out
}

// session is the per-bot state. It is only touched by the Run goroutine.
type session struct {
	*Poller
	botID string
	id    string
	out   chan<- core.Event

	lastSeen    string // last transcript fully processed
	lastEmitted string // last transcript announced to the consumer
	window      string
}

func (s *session) loop(ctx context.Context) {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("session started")

	if !s.emit(ctx, core.Event{
		Type:      core.EventConnection,
		Status:    "connected",
		BotID:     s.botID,
		SessionID: s.id,
	}) {
		return
	}

	for ctx.Err() == nil {
		s.poll(ctx)
		if !s.wait(ctx) {
			break
		}
	}
	logger.Info().Msg("session stopped")
}

func (s *session) poll(ctx context.Context) {
	logger := log.FromCtx(ctx)

	fetchCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	text, err := s.bot.Transcript(fetchCtx, s.botID)
	cancel()
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("transcript fetch failed")
		s.emit(ctx, core.Event{Type: core.EventError, Error: fetchFailed, Details: err.Error()})
		return
	}

	if text == "" || text == s.lastSeen {
		return
	}

	delta := s.delta(ctx, text)
	if delta == "" {
		s.lastSeen, s.window = text, text
		return
	}

	if text != s.lastEmitted {
		s.lastEmitted = text
		now := s.now()
		if !s.emit(ctx, core.Event{Type: core.EventTranscript, Transcript: delta, Timestamp: &now}) {
			return
		}
		s.answer(ctx, delta)
	}

	procCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	result, err := s.processor.Process(procCtx, delta, s.window, "")
	cancel()
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		// lastSeen stays put so the same delta is retried on the next poll
		logger.Error().Err(err).Msg("conversation processing failed")
		s.emit(ctx, core.Event{Type: core.EventError, Error: processFailed, Details: err.Error()})
		return
	}

	logger.Debug().Str("result", result.Type).Msg("delta processed")
	if result.Ticket != nil && (result.Type == core.EventTicketCreated || result.Type == core.EventTicketUpdated) {
		if !s.emit(ctx, core.Event{Type: result.Type, Ticket: result.Ticket}) {
			return
		}
	}

	s.lastSeen = text
	s.window = text
}

// delta strips the already processed prefix and surrounding whitespace.
// A transcript that no longer extends what was seen is taken whole.
func (s *session) delta(ctx context.Context, text string) string {
	if strings.HasPrefix(text, s.lastSeen) {
		return strings.TrimSpace(text[len(s.lastSeen):])
	}
	log.FromCtx(ctx).Warn().
		Int("previous_len", len(s.lastSeen)).
		Int("current_len", len(text)).
		Msg("transcript was rewritten, processing it in full")
	return strings.TrimSpace(text)
}

// answer replies when the bot is addressed. Failures never affect ticket processing.
func (s *session) answer(ctx context.Context, delta string) {
	if s.assistant == nil {
		return
	}
	logger := log.FromCtx(ctx)

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	addressed, err := s.assistant.IsAddressed(callCtx, delta)
	if err != nil {
		logger.Warn().Err(err).Msg("assistant check failed")
		return
	}
	if !addressed {
		return
	}

	reply, err := s.assistant.Reply(callCtx, delta)
	if err != nil {
		logger.Warn().Err(err).Msg("assistant reply failed")
		return
	}

	now := s.now()
	s.emit(ctx, core.Event{Type: core.EventBotAddressed, Transcript: delta, Response: reply, Timestamp: &now})
}

func (s *session) emit(ctx context.Context, ev core.Event) bool {
	select {
	case s.out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *session) wait(ctx context.Context) bool {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// release asks the bot to leave. It runs once per session, after cancellation.
func (s *session) release(ctx context.Context) {
	leaveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
	defer cancel()

	if err := s.bot.Leave(leaveCtx, s.botID); err != nil {
		log.FromCtx(ctx).Warn().Err(&core.CleanupError{BotID: s.botID, Err: err}).Msg("bot cleanup failed")
	}
}
