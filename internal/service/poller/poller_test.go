package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/kurt/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	text string
	err  error
}

type fakeBot struct {
	mu       sync.Mutex
	script   []fetchResult
	pos      int
	leaves   int
	leaveErr error
}

func (f *fakeBot) CreateBot(context.Context, string, string) (string, error) {
	return "bot_1", nil
}

func (f *fakeBot) Transcript(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r := f.script[min(f.pos, len(f.script)-1)]
	f.pos++
	return r.text, r.err
}

func (f *fakeBot) Leave(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves++
	return f.leaveErr
}

func (f *fakeBot) leaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leaves
}

type processCall struct {
	delta  string
	window string
}

type fakeProcessor struct {
	mu      sync.Mutex
	calls   []processCall
	results []core.ProcessResult
	errs    []error
}

func (f *fakeProcessor) Process(_ context.Context, newText, window, _ string) (core.ProcessResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.calls)
	f.calls = append(f.calls, processCall{delta: newText, window: window})
	if i < len(f.errs) && f.errs[i] != nil {
		return core.ProcessResult{}, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return core.ProcessResult{Type: string(core.ActionNone)}, nil
}

func (f *fakeProcessor) snapshot() []processCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]processCall(nil), f.calls...)
}

type fakeAssistant struct {
	addressed bool
	err       error
}

func (f *fakeAssistant) IsAddressed(context.Context, string) (bool, error) {
	return f.addressed, f.err
}

func (f *fakeAssistant) Reply(_ context.Context, text string) (string, error) {
	return "on it", nil
}

// drain collects events in the background; the returned func blocks until the channel closes.
func drain(t *testing.T, ch <-chan core.Event) func() []core.Event {
	t.Helper()
	var (
		mu     sync.Mutex
		events []core.Event
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		for ev := range ch {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}
	}()
	return func() []core.Event {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("event stream did not close")
		}
		mu.Lock()
		defer mu.Unlock()
		return events
	}
}

func types(events []core.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func fixedClock() time.Time {
	return time.Date(2025, 2, 23, 10, 0, 0, 0, time.UTC)
}

func newTestPoller(bot *fakeBot, proc *fakeProcessor, opts ...Option) *Poller {
	opts = append([]Option{WithInterval(time.Millisecond), WithClock(fixedClock)}, opts...)
	return New(bot, proc, opts...)
}

func TestPoller_DeltaSequence(t *testing.T) {
	bot := &fakeBot{script: []fetchResult{
		{text: ""},
		{text: "Alice: hi"},
		{text: "Alice: hi\nBob: let's ship the report"},
	}}
	proc := &fakeProcessor{}
	ctx, cancel := context.WithCancel(context.Background())

	wait := drain(t, newTestPoller(bot, proc).Run(ctx, "bot_1"))

	require.Eventually(t, func() bool { return len(proc.snapshot()) == 2 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond) // a few no-op polls on the unchanged transcript
	cancel()
	events := wait()

	assert.Equal(t, []processCall{
		{delta: "Alice: hi", window: ""},
		{delta: "Bob: let's ship the report", window: "Alice: hi"},
	}, proc.snapshot())

	assert.Equal(t, []string{core.EventConnection, core.EventTranscript, core.EventTranscript}, types(events))
	assert.Equal(t, "connected", events[0].Status)
	assert.Equal(t, "bot_1", events[0].BotID)
	assert.NotEmpty(t, events[0].SessionID)
	assert.Equal(t, "Alice: hi", events[1].Transcript)
	assert.Equal(t, "Bob: let's ship the report", events[2].Transcript)
	require.NotNil(t, events[2].Timestamp)
	assert.Equal(t, fixedClock(), *events[2].Timestamp)

	assert.Equal(t, 1, bot.leaveCount())
}

func TestPoller_FetchErrorKeepsPolling(t *testing.T) {
	bot := &fakeBot{script: []fetchResult{
		{err: &core.TransportError{Service: core.ServiceBot, StatusCode: 503}},
		{text: "Alice: ship it"},
	}}
	proc := &fakeProcessor{}
	ctx, cancel := context.WithCancel(context.Background())

	wait := drain(t, newTestPoller(bot, proc).Run(ctx, "bot_1"))
	require.Eventually(t, func() bool { return len(proc.snapshot()) == 1 }, time.Second, time.Millisecond)
	cancel()
	events := wait()

	require.Equal(t, []string{core.EventConnection, core.EventError, core.EventTranscript}, types(events))
	assert.Equal(t, "Failed to fetch transcript", events[1].Error)
	assert.Contains(t, events[1].Details, "503")
}

func TestPoller_ProcessorErrorRetriesDelta(t *testing.T) {
	ticket := &core.TicketResult{Success: true, Issue: core.Issue{ID: "ISS-1", Title: "Report", URL: "u"}}
	bot := &fakeBot{script: []fetchResult{{text: "Bob: let's ship the report"}}}
	proc := &fakeProcessor{
		errs: []error{&core.TransportError{Service: core.ServiceOracle, StatusCode: 500}},
		results: []core.ProcessResult{
			{},
			{Type: core.EventTicketCreated, Ticket: ticket},
		},
	}
	ctx, cancel := context.WithCancel(context.Background())

	wait := drain(t, newTestPoller(bot, proc).Run(ctx, "bot_1"))
	require.Eventually(t, func() bool { return len(proc.snapshot()) >= 2 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	cancel()
	events := wait()

	calls := proc.snapshot()
	require.Len(t, calls, 2, "processed once more after the failure, then idle")
	assert.Equal(t, calls[0], calls[1])

	require.Equal(t, []string{
		core.EventConnection,
		core.EventTranscript,
		core.EventError,
		core.EventTicketCreated,
	}, types(events))
	assert.Equal(t, "Failed to process conversation", events[2].Error)
	assert.Contains(t, events[2].Details, "http 500")
	assert.Equal(t, ticket, events[3].Ticket)
}

func TestPoller_TicketUpdatedEvent(t *testing.T) {
	ticket := &core.TicketResult{Success: true, Issue: core.Issue{ID: "T1"}}
	bot := &fakeBot{script: []fetchResult{{text: "Alice: finish the login page email flow"}}}
	proc := &fakeProcessor{results: []core.ProcessResult{{Type: core.EventTicketUpdated, Ticket: ticket}}}
	ctx, cancel := context.WithCancel(context.Background())

	wait := drain(t, newTestPoller(bot, proc).Run(ctx, "bot_1"))
	require.Eventually(t, func() bool { return len(proc.snapshot()) == 1 }, time.Second, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	cancel()
	events := wait()

	require.Len(t, events, 3)
	assert.Equal(t, core.EventTicketUpdated, events[2].Type)
	assert.Equal(t, "T1", events[2].Ticket.Issue.ID)
}

func TestPoller_RewrittenTranscript(t *testing.T) {
	bot := &fakeBot{script: []fetchResult{
		{text: "Alice: hi"},
		{text: "Bob: hello there"},
	}}
	proc := &fakeProcessor{}
	ctx, cancel := context.WithCancel(context.Background())

	wait := drain(t, newTestPoller(bot, proc).Run(ctx, "bot_1"))
	require.Eventually(t, func() bool { return len(proc.snapshot()) == 2 }, time.Second, time.Millisecond)
	cancel()
	wait()

	assert.Equal(t, "Bob: hello there", proc.snapshot()[1].delta)
}

func TestPoller_Assistant(t *testing.T) {
	tests := []struct {
		name      string
		assistant *fakeAssistant
		wantTypes []string
	}{
		{
			name:      "addressed",
			assistant: &fakeAssistant{addressed: true},
			wantTypes: []string{core.EventConnection, core.EventTranscript, core.EventBotAddressed},
		},
		{
			name:      "not addressed",
			assistant: &fakeAssistant{},
			wantTypes: []string{core.EventConnection, core.EventTranscript},
		},
		{
			name:      "check fails",
			assistant: &fakeAssistant{err: errors.New("oracle down")},
			wantTypes: []string{core.EventConnection, core.EventTranscript},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := &fakeBot{script: []fetchResult{{text: "Alice: Kurt, what's next?"}}}
			proc := &fakeProcessor{}
			ctx, cancel := context.WithCancel(context.Background())

			wait := drain(t, newTestPoller(bot, proc, WithAssistant(tt.assistant)).Run(ctx, "bot_1"))
			require.Eventually(t, func() bool { return len(proc.snapshot()) == 1 }, time.Second, time.Millisecond)
			cancel()
			events := wait()

			assert.Equal(t, tt.wantTypes, types(events))
			if tt.assistant.addressed {
				assert.Equal(t, "on it", events[2].Response)
				assert.Equal(t, "Alice: Kurt, what's next?", events[2].Transcript)
			}
		})
	}
}

func TestPoller_CancelDuringWait(t *testing.T) {
	bot := &fakeBot{
		script:   []fetchResult{{text: ""}},
		leaveErr: errors.New("bot already gone"),
	}
	p := New(bot, &fakeProcessor{}, WithInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	ch := p.Run(ctx, "bot_1")
	ev := <-ch
	assert.Equal(t, core.EventConnection, ev.Type)

	cancel()
	wait := drain(t, ch)
	wait()

	assert.Equal(t, 1, bot.leaveCount(), "leave failure is swallowed")
}

func TestPoller_CancelBeforeConsumerReads(t *testing.T) {
	bot := &fakeBot{script: []fetchResult{{text: ""}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := New(bot, &fakeProcessor{}).Run(ctx, "bot_1")
	for range ch {
	}
	assert.Equal(t, 1, bot.leaveCount())
}
