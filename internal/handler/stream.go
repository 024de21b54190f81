package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fady17/task/internal/bridge"
	"github.com/fady17/task/internal/middleware"
	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/pkg/logger"
)

// SSETransport labels server-sent event connections.
const SSETransport = "sse"

// sseChannel writes events to one streaming HTTP response.
type sseChannel struct {
	id      string
	w       http.ResponseWriter
	flusher http.Flusher
	done    <-chan struct{}

	mu     sync.Mutex
	closed bool
}

func newSSEChannel(w http.ResponseWriter, flusher http.Flusher, done <-chan struct{}) *sseChannel {
	return &sseChannel{id: uuid.NewString(), w: w, flusher: flusher, done: done}
}

func (c *sseChannel) ID() string        { return c.id }
func (c *sseChannel) Transport() string { return SSETransport }

func (c *sseChannel) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Send writes one frame named after the event's wire type.
func (c *sseChannel) Send(_ context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("sse channel closed")
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil || head.Type == "" {
		head.Type = "message"
	}

	if _, err := fmt.Fprintf(c.w, "event: %s\ndata: %s\n\n", head.Type, data); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

func (c *sseChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// StreamHandler serves chat turns over server-sent events.
type StreamHandler struct {
	bridge *bridge.Bridge
	logger *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(b *bridge.Bridge, log *logger.Logger) *StreamHandler {
	return &StreamHandler{bridge: b, logger: log}
}

// Chat handles POST /chat. The body is {"prompt": ..., "sessionId": ...};
// the response streams every event of the turn and ends with it.
func (h *StreamHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var msg model.InboundMessage
	if err := decodeJSON(w, r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidatePrompt(msg.Prompt); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg.SessionID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid sessionId")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode request")
		return
	}

	ch := newSSEChannel(w, flusher, r.Context().Done())
	if err := h.bridge.Attach(ch); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	defer h.bridge.Detach(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if err := h.bridge.Handle(ch, raw); err != nil {
		h.logger.Warn("chat turn not handled",
			zap.Error(err),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
		)
	}
}
