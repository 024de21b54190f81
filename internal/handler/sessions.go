package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fady17/task/internal/middleware"
	"github.com/fady17/task/internal/model"
	natsclient "github.com/fady17/task/internal/nats"
	"github.com/fady17/task/internal/service"
	"github.com/fady17/task/pkg/logger"
)

const (
	defaultEventPage = 100
	maxEventPage     = 500
)

// EventLog reads back events recorded for a session.
type EventLog interface {
	Events(ctx context.Context, sessionID int64, afterSequence uint64, limit int) ([]natsclient.JournalEntry, bool, error)
}

// SessionHandler handles session endpoints.
type SessionHandler struct {
	service *service.SessionService
	events  EventLog
	logger  *logger.Logger
}

// SessionOption configures a SessionHandler.
type SessionOption func(*SessionHandler)

// WithEventLog enables GET /sessions/{id}/events.
func WithEventLog(events EventLog) SessionOption {
	return func(h *SessionHandler) { h.events = events }
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc *service.SessionService, log *logger.Logger, opts ...SessionOption) *SessionHandler {
	h := &SessionHandler{service: svc, logger: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes mounts the session endpoints.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Get("/user/{user_id}", h.List)
	r.Post("/user/{user_id}", h.Create)
	r.Get("/{id}/messages", h.Messages)
	r.Get("/{id}/events", h.Events)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /sessions/user/{user_id}
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ParseID("user_id", chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list sessions", zap.Error(err), zap.Int64("user_id", userID))
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*model.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Create handles POST /sessions/user/{user_id}. The body is optional.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ParseID("user_id", chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.CreateSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Title != "" {
		if err := middleware.ValidateTitle(req.Title); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	session, err := h.service.Create(r.Context(), userID, req.Title)
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err), zap.Int64("user_id", userID))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Messages handles GET /sessions/{id}/messages. By default only the
// transcript is returned; ?include=tools adds tool traffic.
func (h *SessionHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID("session id", chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.URL.Query().Get("include") == "tools" {
		messages, err := h.service.Messages(r.Context(), id)
		if err != nil {
			h.logger.Error("failed to list messages", zap.Error(err), zap.Int64("session_id", id))
			writeError(w, http.StatusInternalServerError, "failed to list messages")
			return
		}
		if messages == nil {
			messages = []*model.Message{}
		}
		writeJSON(w, http.StatusOK, messages)
		return
	}

	transcript, err := h.service.Transcript(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err), zap.Int64("session_id", id))
		writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if transcript == nil {
		transcript = []model.TranscriptMessage{}
	}
	writeJSON(w, http.StatusOK, transcript)
}

// Delete handles DELETE /sessions/{id}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := middleware.ParseID("session id", chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.service.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete session", zap.Error(err), zap.Int64("session_id", id))
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Session %d deleted", id),
	})
}

// Events handles GET /sessions/{id}/events?after=<seq>&limit=<n>. It pages
// through the events sent to clients of the session, oldest first.
func (h *SessionHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeError(w, http.StatusNotFound, "event journal is disabled")
		return
	}

	id, err := middleware.ParseID("session id", chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var after uint64
	if v := r.URL.Query().Get("after"); v != "" {
		after, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after must be a non-negative integer")
			return
		}
	}

	limit := defaultEventPage
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(limit, maxEventPage)
	}

	entries, more, err := h.events.Events(r.Context(), id, after, limit)
	if err != nil {
		h.logger.Error("failed to read session events", zap.Error(err), zap.Int64("session_id", id))
		writeError(w, http.StatusInternalServerError, "failed to read session events")
		return
	}
	if entries == nil {
		entries = []natsclient.JournalEntry{}
	}

	next := after
	if len(entries) > 0 {
		next = entries[len(entries)-1].Sequence
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events":   entries,
		"next":     next,
		"has_more": more,
	})
}
