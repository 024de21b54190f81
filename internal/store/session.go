package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// DefaultSessionTitle is stored when a session is created without a title.
const DefaultSessionTitle = "New Chat"

// Session is a stored conversation thread.
type Session struct {
	ID        int64
	UserID    int64
	Title     string
	CreatedTs int64
}

// FindSession filters ListSessions.
type FindSession struct {
	ID     *int64
	UserID *int64
}

// UpdateSession carries fields accepted by UpdateSession.
type UpdateSession struct {
	ID    int64
	Title *string
}

// CreateSession stores a new session. An empty title becomes DefaultSessionTitle.
func (s *Store) CreateSession(ctx context.Context, create *Session) (*Session, error) {
	if create.Title == "" {
		create.Title = DefaultSessionTitle
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	session, err := s.driver.CreateSession(ctx, create)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}
	return session, nil
}

// ListSessions returns matching sessions, newest first.
func (s *Store) ListSessions(ctx context.Context, find *FindSession) ([]*Session, error) {
	list, err := s.driver.ListSessions(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	return list, nil
}

// GetSession returns the session with the given id, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id int64) (*Session, error) {
	list, err := s.ListSessions(ctx, &FindSession{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[0], nil
}

// UpdateSession updates a session's mutable fields.
func (s *Store) UpdateSession(ctx context.Context, update *UpdateSession) (*Session, error) {
	session, err := s.driver.UpdateSession(ctx, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update session")
	}
	return session, nil
}

// DeleteSession removes a session and all of its messages. It reports
// whether a session was removed.
func (s *Store) DeleteSession(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.driver.DeleteSession(ctx, id)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete session")
	}
	return deleted, nil
}
