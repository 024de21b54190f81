package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventWireFormat(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"todos changed", StateChanged(ResourceTodos), `{"type":"state_change","resource":"todos"}`},
		{"title changed", TitleChanged("Groceries"), `{"type":"state_change","resource":"sessions"}`},
		{"chat", ChatMessage("Done."), `{"type":"chat_message","content":"Done."}`},
		{"empty chat", ChatMessage(""), `{"type":"chat_message","content":""}`},
		{"error", ErrorMessage("oops"), `{"type":"chat_message","content":"oops"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.event)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestStateChangedRejectsUnknownResource(t *testing.T) {
	assert.Panics(t, func() { StateChanged("users") })
}

func TestEventZeroValueDoesNotEncode(t *testing.T) {
	_, err := json.Marshal(Event{})
	assert.Error(t, err)
}

func TestToolResultJSON(t *testing.T) {
	assert.JSONEq(t, `{"success":true,"result":{"id":1}}`, ToolSuccess(json.RawMessage(`{"id":1}`)).JSON())
	assert.JSONEq(t, `{"success":false,"error":"HTTP 404: Not Found"}`, ToolFailure("HTTP 404: Not Found").JSON())
}

func TestMessageIsTranscript(t *testing.T) {
	assert.True(t, (&Message{Role: RoleUser, Content: "hi"}).IsTranscript())
	assert.True(t, (&Message{Role: RoleAssistant, Content: "Done."}).IsTranscript())
	assert.False(t, (&Message{Role: RoleAssistant, ToolCalls: json.RawMessage(`[]`)}).IsTranscript())
	assert.False(t, (&Message{Role: RoleTool, Content: `{"success":true}`}).IsTranscript())
}
