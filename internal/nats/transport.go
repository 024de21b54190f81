package nats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fady17/task/internal/bridge"
	"github.com/fady17/task/pkg/logger"
)

// TransportName labels NATS connections in logs and metrics.
const TransportName = "nats"

// Publisher is the part of a NATS connection a reply channel needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	IsConnected() bool
}

// replyChannel sends a turn's events to the reply subject of the request
// that started it.
type replyChannel struct {
	id     string
	reply  string
	pub    Publisher
	mu     sync.Mutex
	closed bool
}

func newReplyChannel(pub Publisher, reply string) *replyChannel {
	return &replyChannel{id: uuid.NewString(), reply: reply, pub: pub}
}

func (c *replyChannel) ID() string        { return c.id }
func (c *replyChannel) Transport() string { return TransportName }

func (c *replyChannel) Send(_ context.Context, data []byte) error {
	if !c.Open() {
		return errors.New("reply channel closed")
	}
	return c.pub.Publish(c.reply, data)
}

func (c *replyChannel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.pub.IsConnected()
}

func (c *replyChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Transport queue-subscribes to the chat subject and hands every request
// to the bridge. Each request runs on its own goroutine.
type Transport struct {
	conn    *nats.Conn
	subject string
	queue   string
	bridge  *bridge.Bridge
	logger  *logger.Logger

	sub *nats.Subscription
	wg  sync.WaitGroup
}

// NewTransport creates a transport. Nothing is subscribed until Run.
func NewTransport(client *Client, subject, queue string, b *bridge.Bridge, log *logger.Logger) *Transport {
	return &Transport{
		conn:    client.Conn(),
		subject: subject,
		queue:   queue,
		bridge:  b,
		logger:  log.With(zap.String("subject", subject), zap.String("queue", queue)),
	}
}

// Run subscribes and blocks until ctx is done, then drains the
// subscription and waits for handlers still forwarding events.
func (t *Transport) Run(ctx context.Context) error {
	sub, err := t.conn.QueueSubscribe(t.subject, t.queue, t.handle)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", t.subject, err)
	}
	t.sub = sub
	t.logger.Info("NATS chat transport listening")

	<-ctx.Done()

	if err := sub.Drain(); err != nil {
		t.logger.Warn("failed to drain subscription", zap.Error(err))
	}
	t.wg.Wait()
	return nil
}

func (t *Transport) handle(msg *nats.Msg) {
	if msg.Reply == "" {
		t.logger.Warn("dropping chat request without reply subject")
		return
	}
	t.serve(newReplyChannel(t.conn, msg.Reply), msg.Data)
}

func (t *Transport) serve(ch bridge.Channel, data []byte) {
	if err := t.bridge.Attach(ch); err != nil {
		t.logger.Warn("rejecting chat request", zap.Error(err))
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.bridge.Detach(ch)
		if err := t.bridge.Handle(ch, data); err != nil {
			t.logger.Warn("chat request not handled", zap.Error(err))
		}
	}()
}
