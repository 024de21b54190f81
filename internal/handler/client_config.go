package handler

import (
	"fmt"
	"net"
	"net/http"
)

// TURNServer is an ICE server entry for the browser's peer connection.
type TURNServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// ClientConfig tells the browser where to reach the backend.
type ClientConfig struct {
	APIHost     string     `json:"api_host"`
	APIPort     string     `json:"api_port"`
	TodoAPIPort string     `json:"todo_api_port"`
	LiveKitURL  string     `json:"livekit_url,omitempty"`
	TURNServer  TURNServer `json:"turn_server"`
}

// ClientConfigHandler serves runtime settings to the frontend.
type ClientConfigHandler struct {
	base ClientConfig
	turn int
}

// NewClientConfigHandler creates a handler. APIHost and the TURN urls are
// filled in per request from the host the client connected to.
func NewClientConfigHandler(base ClientConfig, turnPort int) *ClientConfigHandler {
	return &ClientConfigHandler{base: base, turn: turnPort}
}

// Get handles GET /config
func (h *ClientConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if hostname, _, err := net.SplitHostPort(r.Host); err == nil {
		host = hostname
	}

	cfg := h.base
	cfg.APIHost = host
	cfg.TURNServer.URLs = []string{
		fmt.Sprintf("stun:%s", net.JoinHostPort(host, fmt.Sprint(h.turn))),
		fmt.Sprintf("turn:%s", net.JoinHostPort(host, fmt.Sprint(h.turn))),
	}
	writeJSON(w, http.StatusOK, cfg)
}
