package model

import "encoding/json"

// ToolResult is the outcome of one dispatched tool call, folded back into
// the model context as a tool message.
type ToolResult struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ToolSuccess wraps a backend response.
func ToolSuccess(result json.RawMessage) ToolResult {
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return ToolResult{Success: true, Result: result}
}

// ToolFailure wraps an error description.
func ToolFailure(msg string) ToolResult {
	return ToolResult{Success: false, Error: msg}
}

// JSON encodes the result for the model context.
func (r ToolResult) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"unencodable tool result"}`
	}
	return string(b)
}
