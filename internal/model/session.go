// Package model defines data structures for the todo agent.
package model

import (
	"time"
)

// DefaultSessionTitle is assigned to new sessions and used when title
// generation fails.
const DefaultSessionTitle = "New Chat"

// Session is one conversation thread owned by a user.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSessionRequest is the request to open a new session.
type CreateSessionRequest struct {
	Title string `json:"title,omitempty"`
}
