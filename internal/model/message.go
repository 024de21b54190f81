package model

import (
	"encoding/json"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one persisted entry of a session. Assistant messages that
// requested tools carry ToolCalls; tool messages carry ToolCallID.
type Message struct {
	ID         int64           `json:"id"`
	SessionID  int64           `json:"session_id"`
	Role       Role            `json:"role"`
	Content    string          `json:"content"`
	ToolCalls  json.RawMessage `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// IsTranscript reports whether the message belongs to the user-visible
// transcript: user prompts and textual assistant replies.
func (m *Message) IsTranscript() bool {
	switch m.Role {
	case RoleUser:
		return true
	case RoleAssistant:
		return len(m.ToolCalls) == 0 && m.Content != ""
	default:
		return false
	}
}

// TranscriptMessage is the wire shape of a transcript entry.
type TranscriptMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
