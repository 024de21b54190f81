package nats

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fady17/task/internal/agent"
	"github.com/fady17/task/internal/bridge"
	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/pkg/logger"
)

type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	published map[string][]string
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{connected: true, published: map[string][]string{}}
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[subject] = append(p.published[subject], string(data))
	return nil
}

func (p *fakePublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *fakePublisher) on(subject string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.published[subject]...)
}

type echoRunner struct{}

func (echoRunner) Run(_ context.Context, req agent.Request) <-chan model.Event {
	out := make(chan model.Event, 2)
	out <- model.StateChanged(model.ResourceTodos)
	out <- model.ChatMessage("done: " + req.Prompt)
	close(out)
	return out
}

func TestReplyChannel(t *testing.T) {
	pub := newFakePublisher()
	ch := newReplyChannel(pub, "_INBOX.abc")

	assert.NotEmpty(t, ch.ID())
	assert.Equal(t, TransportName, ch.Transport())
	require.True(t, ch.Open())
	require.NoError(t, ch.Send(context.Background(), []byte(`{"type":"chat_message","content":"hi"}`)))
	assert.Equal(t, []string{`{"type":"chat_message","content":"hi"}`}, pub.on("_INBOX.abc"))

	pub.connected = false
	assert.False(t, ch.Open())

	pub.connected = true
	require.NoError(t, ch.Close())
	assert.False(t, ch.Open())
	assert.Error(t, ch.Send(context.Background(), []byte(`{}`)))
}

func TestTransportServeRepliesAndDetaches(t *testing.T) {
	b := bridge.New(echoRunner{}, logger.NewNop())
	tr := &Transport{bridge: b, logger: logger.NewNop()}
	pub := newFakePublisher()

	tr.serve(newReplyChannel(pub, "_INBOX.1"), []byte(`{"prompt":"add eggs","sessionId":4}`))
	tr.wg.Wait()

	assert.Equal(t, []string{
		`{"type":"state_change","resource":"todos"}`,
		`{"type":"chat_message","content":"done: add eggs"}`,
	}, pub.on("_INBOX.1"))
	assert.Equal(t, 0, b.Connections())
}

func TestTransportRejectsAfterShutdown(t *testing.T) {
	b := bridge.New(echoRunner{}, logger.NewNop())
	require.NoError(t, b.Shutdown(context.Background()))
	tr := &Transport{bridge: b, logger: logger.NewNop()}
	pub := newFakePublisher()

	tr.serve(newReplyChannel(pub, "_INBOX.1"), []byte(`{"prompt":"hi","sessionId":1}`))
	tr.wg.Wait()

	assert.Empty(t, pub.on("_INBOX.1"))
}

func TestSubjects(t *testing.T) {
	assert.Equal(t, "agent.events.12.chat_message", EventSubject(12, model.EventChatMessage))
	assert.Equal(t, "agent.events.12.state_changed", EventSubject(12, model.EventStateChanged))
	assert.Equal(t, "agent.events.12.>", SessionFilter(12))
}

func TestJournalEntryEncoding(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err := encodeEntry(3, model.TitleChanged("Weekend Chores"), ts)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "title_changed", raw["kind"])
	assert.Equal(t, "Weekend Chores", raw["title"])

	entry, err := decodeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.SessionID)
	assert.JSONEq(t, `{"type":"state_change","resource":"sessions"}`, string(entry.Payload))
	assert.True(t, ts.Equal(entry.Timestamp))
}
