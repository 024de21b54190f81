package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "http://localhost:8000", cfg.TodoAPIURL)
	assert.Equal(t, 30*time.Second, cfg.TodoAPITimeout)
	assert.Equal(t, "http://localhost:1234/v1", cfg.LLMBaseURL)
	assert.Equal(t, 90*time.Second, cfg.LLMTimeout)
	assert.InDelta(t, 0.1, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 8192, cfg.LLMMaxTokens)
	assert.Equal(t, 20, cfg.AgentMaxTurns)
	assert.Equal(t, ContextSnapshot, cfg.AgentContextStrategy)
	assert.Equal(t, PolicyDirect, cfg.AgentPromptPolicy)
	assert.Equal(t, "ai-chat-room", cfg.LiveKitRoom)
	assert.False(t, cfg.NATSEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "postgres://localhost/chat")
	t.Setenv("TODO_API_URL", "http://todo:8000/")
	t.Setenv("AGENT_MAX_TURNS", "5")
	t.Setenv("AGENT_CONTEXT_STRATEGY", "history")
	t.Setenv("AGENT_PROMPT_POLICY", "verify")
	t.Setenv("LLM_TIMEOUT", "45s")
	t.Setenv("NATS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "http://todo:8000", cfg.TodoAPIURL)
	assert.Equal(t, 5, cfg.AgentMaxTurns)
	assert.Equal(t, ContextHistory, cfg.AgentContextStrategy)
	assert.Equal(t, PolicyVerify, cfg.AgentPromptPolicy)
	assert.Equal(t, 45*time.Second, cfg.LLMTimeout)
	assert.True(t, cfg.NATSEnabled)
}

func TestValidateRejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"strategy", map[string]string{"AGENT_CONTEXT_STRATEGY": "everything"}},
		{"policy", map[string]string{"AGENT_PROMPT_POLICY": "blend"}},
		{"title provider", map[string]string{"TITLE_PROVIDER": "cohere"}},
		{"anthropic without key", map[string]string{"TITLE_PROVIDER": "anthropic", "ANTHROPIC_API_KEY": ""}},
		{"turn budget", map[string]string{"AGENT_MAX_TURNS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
