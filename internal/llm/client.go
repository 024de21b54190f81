// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrToolsUnsupported is returned by providers that cannot call tools.
var ErrToolsUnsupported = errors.New("provider does not support tool calling")

// ToolCall is a function invocation requested by the model. Arguments is
// the raw JSON string produced by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSpec advertises a callable function to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// CompletionRequest represents a completion request. When Tools is set the
// model may answer with tool calls instead of content.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Tools       []ToolSpec
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	ToolCalls  []ToolCall
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Message returns the response as an assistant message for the context.
func (r *CompletionResponse) Message() ChatMessage {
	return ChatMessage{Role: "assistant", Content: r.Content, ToolCalls: r.ToolCalls}
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)
