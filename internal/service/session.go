// Package service holds the application logic between the transports and
// the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/internal/store"
	"github.com/fady17/task/pkg/logger"
)

// ErrSessionNotFound is returned for operations on a missing session.
var ErrSessionNotFound = errors.New("session not found")

// SessionService manages chat sessions and their messages.
type SessionService struct {
	store  *store.Store
	logger *logger.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(s *store.Store, log *logger.Logger) *SessionService {
	return &SessionService{store: s, logger: log}
}

// Create opens a session for userID. An empty title becomes "New Chat".
func (s *SessionService) Create(ctx context.Context, userID int64, title string) (*model.Session, error) {
	session, err := s.store.CreateSession(ctx, &store.Session{UserID: userID, Title: title})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("session created", zap.Int64("session_id", session.ID), zap.Int64("user_id", userID))
	return convertSession(session), nil
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id int64) (*model.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return convertSession(session), nil
}

// List returns the sessions of a user, newest first.
func (s *SessionService) List(ctx context.Context, userID int64) ([]*model.Session, error) {
	list, err := s.store.ListSessions(ctx, &store.FindSession{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	out := make([]*model.Session, len(list))
	for i, session := range list {
		out[i] = convertSession(session)
	}
	return out, nil
}

// UpdateTitle renames a session.
func (s *SessionService) UpdateTitle(ctx context.Context, id int64, title string) (*model.Session, error) {
	session, err := s.store.UpdateSession(ctx, &store.UpdateSession{ID: id, Title: &title})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update session title: %w", err)
	}
	return convertSession(session), nil
}

// Delete removes a session and its messages. It reports whether the session
// existed.
func (s *SessionService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.DeleteSession(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	if deleted {
		s.logger.Info("session deleted", zap.Int64("session_id", id))
	}
	return deleted, nil
}

func convertSession(s *store.Session) *model.Session {
	return &model.Session{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		CreatedAt: time.Unix(s.CreatedTs, 0).UTC(),
	}
}
