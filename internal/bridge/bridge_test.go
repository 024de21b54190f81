package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fady17/task/internal/agent"
	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/pkg/logger"
)

type recordingChannel struct {
	mu      sync.Mutex
	id      string
	open    bool
	sent    []string
	sendErr error
	closed  int
}

func newChannel(id string) *recordingChannel {
	return &recordingChannel{id: id, open: true}
}

func (c *recordingChannel) ID() string        { return c.id }
func (c *recordingChannel) Transport() string { return "test" }

func (c *recordingChannel) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, string(data))
	return nil
}

func (c *recordingChannel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *recordingChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	c.closed++
	return nil
}

func (c *recordingChannel) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

// scriptedRunner emits fixed events. When gate is set it blocks before the
// last event until gate is closed or ctx is done.
type scriptedRunner struct {
	events   []model.Event
	gate     chan struct{}
	started  chan struct{}
	requests []agent.Request
	mu       sync.Mutex
}

func (r *scriptedRunner) Run(ctx context.Context, req agent.Request) <-chan model.Event {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()

	out := make(chan model.Event)
	go func() {
		defer close(out)
		for i, e := range r.events {
			if r.gate != nil && i == len(r.events)-1 {
				if r.started != nil {
					close(r.started)
				}
				select {
				case <-r.gate:
				case <-ctx.Done():
					out <- model.ChatMessage(agent.FailureMessage)
					return
				}
			}
			out <- e
		}
	}()
	return out
}

type memoryJournal struct {
	mu      sync.Mutex
	records map[int64][]model.Event
}

func (j *memoryJournal) Record(_ context.Context, sessionID int64, e model.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.records == nil {
		j.records = map[int64][]model.Event{}
	}
	j.records[sessionID] = append(j.records[sessionID], e)
	return nil
}

var turnEvents = []model.Event{
	model.TitleChanged("Groceries"),
	model.StateChanged(model.ResourceTodos),
	model.ChatMessage("Added milk."),
}

func TestHandleForwardsEventsInOrder(t *testing.T) {
	runner := &scriptedRunner{events: turnEvents}
	journal := &memoryJournal{}
	b := New(runner, logger.NewNop(), WithJournal(journal))
	ch := newChannel("c1")
	require.NoError(t, b.Attach(ch))

	require.NoError(t, b.Handle(ch, []byte(`{"prompt":" add milk ","sessionId":7}`)))

	assert.Equal(t, []string{
		`{"type":"state_change","resource":"sessions"}`,
		`{"type":"state_change","resource":"todos"}`,
		`{"type":"chat_message","content":"Added milk."}`,
	}, ch.messages())
	assert.Equal(t, []agent.Request{{Prompt: "add milk", SessionID: 7}}, runner.requests)
	assert.Equal(t, turnEvents, journal.records[7])
}

func TestHandleRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `hello`},
		{"empty prompt", `{"prompt":"  ","sessionId":1}`},
		{"missing session", `{"prompt":"hi"}`},
		{"string session", `{"prompt":"hi","sessionId":"abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptedRunner{events: turnEvents}
			b := New(runner, logger.NewNop())
			ch := newChannel("c1")

			require.NoError(t, b.Handle(ch, []byte(tt.raw)))

			require.Len(t, ch.messages(), 1)
			assert.Contains(t, ch.messages()[0], `"type":"chat_message"`)
			assert.Contains(t, ch.messages()[0], "Invalid message")
			assert.Empty(t, runner.requests)
		})
	}
}

func TestClosedChannelDoesNotStopTurn(t *testing.T) {
	runner := &scriptedRunner{events: turnEvents}
	journal := &memoryJournal{}
	b := New(runner, logger.NewNop(), WithJournal(journal))
	ch := newChannel("c1")
	require.NoError(t, ch.Close())

	require.NoError(t, b.Handle(ch, []byte(`{"prompt":"hi","sessionId":3}`)))

	assert.Empty(t, ch.messages())
	assert.Len(t, journal.records[3], 3)
}

func TestSendErrorsAreSwallowed(t *testing.T) {
	runner := &scriptedRunner{events: turnEvents}
	b := New(runner, logger.NewNop())
	ch := newChannel("c1")
	ch.sendErr = errors.New("broken pipe")

	assert.NoError(t, b.Handle(ch, []byte(`{"prompt":"hi","sessionId":3}`)))
}

func TestAttachDetach(t *testing.T) {
	b := New(&scriptedRunner{}, logger.NewNop())
	ch := newChannel("c1")

	require.NoError(t, b.Attach(ch))
	require.NoError(t, b.Attach(ch))
	assert.Equal(t, 1, b.Connections())

	b.Detach(ch)
	assert.Equal(t, 0, b.Connections())
	assert.False(t, ch.Open())
}

func TestShutdownWaitsForRunningTurns(t *testing.T) {
	runner := &scriptedRunner{events: turnEvents, gate: make(chan struct{}), started: make(chan struct{})}
	b := New(runner, logger.NewNop())
	ch := newChannel("c1")
	require.NoError(t, b.Attach(ch))

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		_ = b.Handle(ch, []byte(`{"prompt":"hi","sessionId":1}`))
	}()
	<-runner.started

	shutdown := make(chan error, 1)
	go func() { shutdown <- b.Shutdown(context.Background()) }()

	select {
	case <-shutdown:
		t.Fatal("shutdown returned while a turn was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.gate)
	require.NoError(t, <-shutdown)
	<-handled

	assert.Equal(t, `{"type":"chat_message","content":"Added milk."}`, ch.messages()[2])
	assert.Equal(t, 0, b.Connections())
	assert.ErrorIs(t, b.Attach(newChannel("c2")), ErrClosed)
	assert.ErrorIs(t, b.Handle(ch, []byte(`{"prompt":"hi","sessionId":1}`)), ErrClosed)
}

func TestShutdownDeadlineCancelsTurns(t *testing.T) {
	runner := &scriptedRunner{events: turnEvents, gate: make(chan struct{}), started: make(chan struct{})}
	b := New(runner, logger.NewNop())
	ch := newChannel("c1")
	require.NoError(t, b.Attach(ch))

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		_ = b.Handle(ch, []byte(`{"prompt":"hi","sessionId":1}`))
	}()
	<-runner.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Shutdown(ctx), context.DeadlineExceeded)
	<-handled

	// The cancelled turn still ended with its chat message before the
	// channel was closed.
	sent := ch.messages()
	require.NotEmpty(t, sent)
	assert.JSONEq(t, `{"type":"chat_message","content":"`+agent.FailureMessage+`"}`, sent[len(sent)-1])
	assert.False(t, ch.Open())
}
