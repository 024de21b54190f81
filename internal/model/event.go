package model

import (
	"encoding/json"
	"fmt"
)

// EventKind identifies what happened during a turn.
type EventKind int

const (
	// EventTitleChanged is emitted once, after the first user message of a
	// session produced a title.
	EventTitleChanged EventKind = iota + 1
	// EventStateChanged is emitted after a mutation of a resource.
	EventStateChanged
	// EventChatMessage carries the assistant's reply.
	EventChatMessage
	// EventError carries a user-facing failure message.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventTitleChanged:
		return "title_changed"
	case EventStateChanged:
		return "state_changed"
	case EventChatMessage:
		return "chat_message"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("event_kind(%d)", int(k))
	}
}

// Resource names a client-side collection that should be refreshed.
type Resource string

const (
	ResourceTodos    Resource = "todos"
	ResourceSessions Resource = "sessions"
)

// Wire values of the "type" field.
const (
	WireStateChange = "state_change"
	WireChatMessage = "chat_message"
)

// Event is a single outbound notification of a turn. Build it with the
// constructors below.
type Event struct {
	Kind     EventKind
	Resource Resource
	Content  string
	Title    string
}

// TitleChanged reports a newly generated session title.
func TitleChanged(title string) Event {
	return Event{Kind: EventTitleChanged, Resource: ResourceSessions, Title: title}
}

// StateChanged reports a mutation of res. It panics on an unknown resource.
func StateChanged(res Resource) Event {
	switch res {
	case ResourceTodos, ResourceSessions:
	default:
		panic(fmt.Sprintf("model: unknown resource %q", res))
	}
	return Event{Kind: EventStateChanged, Resource: res}
}

// ChatMessage carries assistant text to the client.
func ChatMessage(content string) Event {
	return Event{Kind: EventChatMessage, Content: content}
}

// ErrorMessage carries a user-facing error to the client.
func ErrorMessage(content string) Event {
	return Event{Kind: EventError, Content: content}
}

// WireType returns the value of the "type" field on the wire.
func (e Event) WireType() string {
	switch e.Kind {
	case EventTitleChanged, EventStateChanged:
		return WireStateChange
	default:
		return WireChatMessage
	}
}

type wireEvent struct {
	Type     string   `json:"type"`
	Resource Resource `json:"resource,omitempty"`
	Content  *string  `json:"content,omitempty"`
}

// MarshalJSON encodes the event in the client wire format:
//
//	{"type":"state_change","resource":"todos"}
//	{"type":"chat_message","content":"..."}
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{Type: e.WireType()}
	switch e.Kind {
	case EventTitleChanged, EventStateChanged:
		w.Resource = e.Resource
	case EventChatMessage, EventError:
		content := e.Content
		w.Content = &content
	default:
		return nil, fmt.Errorf("model: cannot encode %s", e.Kind)
	}
	return json.Marshal(w)
}

// InboundMessage is what a client sends to start a turn.
type InboundMessage struct {
	Prompt    string `json:"prompt"`
	SessionID int64  `json:"sessionId"`
}
