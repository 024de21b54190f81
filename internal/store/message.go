package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Message is a stored session entry.
type Message struct {
	ID         int64
	SessionID  int64
	Role       string
	Content    string
	ToolCalls  string // JSON array, empty unless an assistant requested tools
	ToolCallID string
	ToolName   string
	CreatedTs  int64
}

// FindMessage filters ListMessages and CountMessages.
type FindMessage struct {
	SessionID int64
	Role      *string
}

// CreateMessage appends a message to a session.
func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	message, err := s.driver.CreateMessage(ctx, create)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create message")
	}
	return message, nil
}

// ListMessages returns the messages of a session, oldest first. Messages
// stored within the same second keep their insertion order.
func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	list, err := s.driver.ListMessages(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list messages")
	}
	return list, nil
}

// CountMessages counts the messages of a session, optionally by role.
func (s *Store) CountMessages(ctx context.Context, find *FindMessage) (int, error) {
	n, err := s.driver.CountMessages(ctx, find)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count messages")
	}
	return n, nil
}
