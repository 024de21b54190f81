package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/internal/store"
	"github.com/fady17/task/pkg/metrics"
)

// SaveMessage appends a message to a session.
func (s *SessionService) SaveMessage(ctx context.Context, msg *model.Message) (*model.Message, error) {
	created, err := s.store.CreateMessage(ctx, &store.Message{
		SessionID:  msg.SessionID,
		Role:       string(msg.Role),
		Content:    msg.Content,
		ToolCalls:  string(msg.ToolCalls),
		ToolCallID: msg.ToolCallID,
		ToolName:   msg.ToolName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s message: %w", msg.Role, err)
	}

	metrics.MessagesTotal.WithLabelValues(string(msg.Role)).Inc()
	return convertMessage(created), nil
}

// Messages returns every stored message of a session, oldest first,
// including tool traffic.
func (s *SessionService) Messages(ctx context.Context, sessionID int64) ([]*model.Message, error) {
	list, err := s.store.ListMessages(ctx, &store.FindMessage{SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	out := make([]*model.Message, len(list))
	for i, m := range list {
		out[i] = convertMessage(m)
	}
	return out, nil
}

// Transcript returns the user prompts and textual assistant replies of a
// session, oldest first.
func (s *SessionService) Transcript(ctx context.Context, sessionID int64) ([]model.TranscriptMessage, error) {
	all, err := s.Messages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := []model.TranscriptMessage{}
	for _, m := range all {
		if !m.IsTranscript() {
			continue
		}
		out = append(out, model.TranscriptMessage{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	return out, nil
}

// CountUserMessages counts the user prompts stored for a session.
func (s *SessionService) CountUserMessages(ctx context.Context, sessionID int64) (int, error) {
	role := string(model.RoleUser)
	n, err := s.store.CountMessages(ctx, &store.FindMessage{SessionID: sessionID, Role: &role})
	if err != nil {
		return 0, fmt.Errorf("failed to count user messages: %w", err)
	}
	return n, nil
}

func convertMessage(m *store.Message) *model.Message {
	msg := &model.Message{
		ID:         m.ID,
		SessionID:  m.SessionID,
		Role:       model.Role(m.Role),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
		ToolName:   m.ToolName,
		CreatedAt:  time.Unix(m.CreatedTs, 0).UTC(),
	}
	if m.ToolCalls != "" {
		msg.ToolCalls = []byte(m.ToolCalls)
	}
	return msg
}
