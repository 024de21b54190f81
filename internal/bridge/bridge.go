// Package bridge connects client channels to the agent: it decodes inbound
// messages, runs a turn for each and forwards every event back.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fady17/task/internal/agent"
	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/pkg/logger"
	"github.com/fady17/task/pkg/metrics"
)

// InvalidMessage is sent back for inbound payloads that cannot start a turn.
const InvalidMessage = `Invalid message. Expected {"prompt": "...", "sessionId": 123}.`

// ErrClosed is returned once Shutdown has been called.
var ErrClosed = errors.New("bridge: closed")

// Channel is one client connection.
type Channel interface {
	ID() string
	Transport() string
	Send(ctx context.Context, data []byte) error
	Open() bool
	Close() error
}

// Runner starts agent turns.
type Runner interface {
	Run(ctx context.Context, req agent.Request) <-chan model.Event
}

// Journal records forwarded events.
type Journal interface {
	Record(ctx context.Context, sessionID int64, e model.Event) error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithJournal records every forwarded event to j.
func WithJournal(j Journal) Option {
	return func(b *Bridge) { b.journal = j }
}

// Bridge owns the set of connected channels and the turns running for them.
type Bridge struct {
	runner  Runner
	journal Journal
	logger  *logger.Logger

	base   context.Context
	cancel context.CancelFunc
	turns  sync.WaitGroup

	mu     sync.Mutex
	conns  map[string]Channel
	closed bool
}

// New creates a bridge. Turns run on a context owned by the bridge, so a
// client going away does not abort work already started.
func New(runner Runner, log *logger.Logger, opts ...Option) *Bridge {
	base, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		runner: runner,
		logger: log,
		base:   base,
		cancel: cancel,
		conns:  make(map[string]Channel),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach registers a connection.
func (b *Bridge) Attach(ch Channel) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if _, ok := b.conns[ch.ID()]; ok {
		return nil
	}
	b.conns[ch.ID()] = ch
	metrics.ConnectionsActive.WithLabelValues(ch.Transport()).Inc()
	b.logger.WithConnection(ch.ID(), ch.Transport()).Debug("connection attached")
	return nil
}

// Detach unregisters a connection and closes it.
func (b *Bridge) Detach(ch Channel) {
	b.mu.Lock()
	_, ok := b.conns[ch.ID()]
	delete(b.conns, ch.ID())
	b.mu.Unlock()

	if ok {
		metrics.ConnectionsActive.WithLabelValues(ch.Transport()).Dec()
	}
	if err := ch.Close(); err != nil {
		b.logger.WithConnection(ch.ID(), ch.Transport()).Warn("failed to close connection", zap.Error(err))
	}
}

// Connections returns the number of attached channels.
func (b *Bridge) Connections() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

// Handle decodes one inbound payload, runs the turn it asks for and
// forwards the turn's events to ch in order. It returns when the turn is
// over.
func (b *Bridge) Handle(ch Channel, raw []byte) error {
	log := b.logger.WithConnection(ch.ID(), ch.Transport())

	req, err := decode(raw)
	if err != nil {
		log.Warn("rejected inbound message", zap.Error(err))
		b.send(log, ch, 0, model.ErrorMessage(InvalidMessage))
		return nil
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.turns.Add(1)
	b.mu.Unlock()
	defer b.turns.Done()

	log = log.WithSession(req.SessionID)
	log.Info("turn started")
	for e := range b.runner.Run(b.base, req) {
		b.send(log, ch, req.SessionID, e)
	}
	log.Info("turn finished")
	return nil
}

// send forwards one event. A closed or failing channel is logged and
// otherwise ignored.
func (b *Bridge) send(log *logger.Logger, ch Channel, sessionID int64, e model.Event) {
	if b.journal != nil && sessionID > 0 {
		if err := b.journal.Record(b.base, sessionID, e); err != nil {
			log.Warn("failed to journal event", zap.Error(err), zap.Stringer("kind", e.Kind))
		}
	}

	if !ch.Open() {
		metrics.EventsSent.WithLabelValues(e.WireType(), "dropped").Inc()
		log.Debug("client gone, dropping event", zap.Stringer("kind", e.Kind))
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		metrics.EventsSent.WithLabelValues(e.WireType(), "failed").Inc()
		log.Error("failed to encode event", zap.Error(err))
		return
	}
	if err := ch.Send(b.base, data); err != nil {
		metrics.EventsSent.WithLabelValues(e.WireType(), "failed").Inc()
		log.Warn("failed to send event", zap.Error(err), zap.Stringer("kind", e.Kind))
		return
	}
	metrics.EventsSent.WithLabelValues(e.WireType(), "ok").Inc()
}

// Shutdown stops accepting turns and waits for running ones. When ctx
// expires first the remaining turns are cancelled. All connections are
// closed before it returns.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.turns.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		b.logger.Warn("shutdown deadline reached, cancelling running turns")
		b.cancel()
		<-done
	}
	b.cancel()

	b.mu.Lock()
	conns := make([]Channel, 0, len(b.conns))
	for _, ch := range b.conns {
		conns = append(conns, ch)
	}
	b.mu.Unlock()
	for _, ch := range conns {
		b.Detach(ch)
	}
	return err
}

func decode(raw []byte) (agent.Request, error) {
	var msg model.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return agent.Request{}, err
	}
	msg.Prompt = strings.TrimSpace(msg.Prompt)
	if msg.Prompt == "" {
		return agent.Request{}, errors.New("empty prompt")
	}
	if msg.SessionID <= 0 {
		return agent.Request{}, errors.New("missing sessionId")
	}
	return agent.Request{Prompt: msg.Prompt, SessionID: msg.SessionID}, nil
}
