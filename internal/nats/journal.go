package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/fady17/task/internal/model"
)

const (
	// StreamName is the JetStream stream holding outbound agent events.
	StreamName = "AGENT_EVENTS"

	// SubjectPrefix is the prefix of every journal subject.
	SubjectPrefix = "agent.events"
)

// JournalEntry is one recorded event.
type JournalEntry struct {
	Sequence  uint64          `json:"seq,omitempty"`
	SessionID int64           `json:"session_id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"event"`
	Title     string          `json:"title,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

// Journal appends turn events to JetStream.
type Journal struct {
	js  jetstream.JetStream
	now func() time.Time
}

// NewJournal creates a journal on the client's JetStream context.
func NewJournal(client *Client) *Journal {
	return &Journal{js: client.JetStream(), now: time.Now}
}

// EnsureStream creates the events stream unless it already exists.
func (j *Journal) EnsureStream(ctx context.Context) error {
	if _, err := j.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := j.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Events sent to chat clients",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// EventSubject returns the subject an event of a session is recorded under.
func EventSubject(sessionID int64, kind model.EventKind) string {
	return fmt.Sprintf("%s.%d.%s", SubjectPrefix, sessionID, kind)
}

// SessionFilter matches every recorded event of a session.
func SessionFilter(sessionID int64) string {
	return fmt.Sprintf("%s.%d.>", SubjectPrefix, sessionID)
}

// Record publishes one event and waits for the stream ack.
func (j *Journal) Record(ctx context.Context, sessionID int64, e model.Event) error {
	data, err := encodeEntry(sessionID, e, j.now())
	if err != nil {
		return err
	}
	if _, err := j.js.Publish(ctx, EventSubject(sessionID, e.Kind), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Events reads up to limit recorded events of a session after the given
// stream sequence. It reports whether more may be available.
func (j *Journal) Events(ctx context.Context, sessionID int64, afterSequence uint64, limit int) ([]JournalEntry, bool, error) {
	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: SessionFilter(sessionID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := j.js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch events: %w", err)
	}

	var entries []JournalEntry
	for msg := range batch.Messages() {
		entry, err := decodeEntry(msg.Data())
		if err != nil {
			continue
		}
		if meta, err := msg.Metadata(); err == nil {
			entry.Sequence = meta.Sequence.Stream
		}
		entries = append(entries, entry)
	}
	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, false, fmt.Errorf("batch error: %w", err)
	}

	return entries, len(entries) == limit, nil
}

func encodeEntry(sessionID int64, e model.Event, ts time.Time) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	data, err := json.Marshal(JournalEntry{
		SessionID: sessionID,
		Kind:      e.Kind.String(),
		Payload:   payload,
		Title:     e.Title,
		Timestamp: ts.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal journal entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (JournalEntry, error) {
	var entry JournalEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}
