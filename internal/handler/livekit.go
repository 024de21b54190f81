package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fady17/task/internal/livekit"
	"github.com/fady17/task/pkg/logger"
)

// TokenRequest asks for a room join token.
type TokenRequest struct {
	RoomName string `json:"room_name"`
	Identity string `json:"identity"`
}

// TokenResponse carries a signed join token.
type TokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url,omitempty"`
	Room  string `json:"room"`
}

// LiveKitHandler issues LiveKit join tokens.
type LiveKitHandler struct {
	issuer *livekit.Issuer
	url    string
	room   string
	logger *logger.Logger
}

// NewLiveKitHandler creates a handler. A nil issuer means LiveKit is not
// configured and every request fails.
func NewLiveKitHandler(issuer *livekit.Issuer, url, room string, log *logger.Logger) *LiveKitHandler {
	return &LiveKitHandler{issuer: issuer, url: url, room: room, logger: log}
}

// Token handles POST /livekit/token
func (h *LiveKitHandler) Token(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		writeError(w, http.StatusInternalServerError, "LiveKit API keys are not configured.")
		return
	}

	var req TokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Identity == "" {
		writeError(w, http.StatusBadRequest, "identity is required")
		return
	}
	room := req.RoomName
	if room == "" {
		room = h.room
	}

	token, err := h.issuer.Token(req.Identity, room)
	if err != nil {
		h.logger.Error("failed to issue livekit token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, URL: h.url, Room: room})
}
