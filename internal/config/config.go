// Package config provides environment configuration for the agent and todo servers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Context strategies for building the model prompt.
const (
	ContextSnapshot = "snapshot"
	ContextHistory  = "history"
)

// Prompt policies for the agent's system prompt.
const (
	PolicyDirect = "direct"
	PolicyVerify = "verify"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ShutdownTimeout    time.Duration

	// Database settings
	DBDriver string
	DBDSN    string

	// Todo API settings
	TodoAPIURL     string
	TodoAPITimeout time.Duration
	TodoAPIPort    string

	// LLM settings
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTimeout     time.Duration
	LLMTemperature float64
	LLMMaxTokens   int

	// Title settings
	TitleProvider   string
	TitleModel      string
	AnthropicAPIKey string

	// Agent settings
	AgentMaxTurns        int
	AgentContextStrategy string
	AgentPromptPolicy    string

	// NATS settings
	NATSEnabled        bool
	NATSURL            string
	NATSCAFile         string
	NATSCertFile       string
	NATSKeyFile        string
	NATSToken          string
	NATSSubject        string
	NATSQueue          string
	NATSJournalEnabled bool

	// LiveKit settings
	LiveKitAPIKey    string
	LiveKitAPISecret string
	LiveKitURL       string
	LiveKitRoom      string
	LiveKitTokenTTL  time.Duration

	// TURN relay advertised to browsers
	TURNPort       int
	TURNUsername   string
	TURNCredential string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"SERVER_READ_TIMEOUT":  30 * time.Second,
	"SERVER_WRITE_TIMEOUT": time.Duration(0),
	"SHUTDOWN_TIMEOUT":     30 * time.Second,

	"DB_DRIVER": "sqlite",
	"DB_DSN":    "chat.db",

	"TODO_API_URL":     "http://localhost:8000",
	"TODO_API_TIMEOUT": 30 * time.Second,
	"TODO_API_PORT":    "8000",

	"LLM_BASE_URL":    "http://localhost:1234/v1",
	"LLM_API_KEY":     "lm-studio",
	"LLM_MODEL":       "qwen2.5-7b-instruct",
	"LLM_TIMEOUT":     90 * time.Second,
	"LLM_TEMPERATURE": 0.1,
	"LLM_MAX_TOKENS":  8192,

	"TITLE_PROVIDER":    "openai",
	"TITLE_MODEL":       "",
	"ANTHROPIC_API_KEY": "",

	"AGENT_MAX_TURNS":        20,
	"AGENT_CONTEXT_STRATEGY": ContextSnapshot,
	"AGENT_PROMPT_POLICY":    PolicyDirect,

	"NATS_ENABLED":         false,
	"NATS_URL":             "nats://localhost:4222",
	"NATS_CA_FILE":         "",
	"NATS_CERT_FILE":       "",
	"NATS_KEY_FILE":        "",
	"NATS_TOKEN":           "",
	"NATS_SUBJECT":         "agent.chat",
	"NATS_QUEUE":           "agent-workers",
	"NATS_JOURNAL_ENABLED": false,

	"LIVEKIT_API_KEY":    "",
	"LIVEKIT_API_SECRET": "",
	"LIVEKIT_URL":        "ws://localhost:7880",
	"LIVEKIT_ROOM":       "ai-chat-room",
	"LIVEKIT_TOKEN_TTL":  6 * time.Hour,

	"TURN_PORT":       3478,
	"TURN_USERNAME":   "",
	"TURN_CREDENTIAL": "",

	"RATE_LIMIT_REQUESTS": 60,
	"RATE_LIMIT_WINDOW":   time.Minute,

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",

	"TRACING_ENDPOINT": "localhost:4318",
	"TRACING_ENABLED":  false,
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	cfg := &Config{
		ServerPort:         v.GetString("PORT"),
		ServerReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
		ServerWriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),

		DBDriver: strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:    v.GetString("DB_DSN"),

		TodoAPIURL:     strings.TrimRight(v.GetString("TODO_API_URL"), "/"),
		TodoAPITimeout: v.GetDuration("TODO_API_TIMEOUT"),
		TodoAPIPort:    v.GetString("TODO_API_PORT"),

		LLMBaseURL:     v.GetString("LLM_BASE_URL"),
		LLMAPIKey:      v.GetString("LLM_API_KEY"),
		LLMModel:       v.GetString("LLM_MODEL"),
		LLMTimeout:     v.GetDuration("LLM_TIMEOUT"),
		LLMTemperature: v.GetFloat64("LLM_TEMPERATURE"),
		LLMMaxTokens:   v.GetInt("LLM_MAX_TOKENS"),

		TitleProvider:   strings.ToLower(v.GetString("TITLE_PROVIDER")),
		TitleModel:      v.GetString("TITLE_MODEL"),
		AnthropicAPIKey: v.GetString("ANTHROPIC_API_KEY"),

		AgentMaxTurns:        v.GetInt("AGENT_MAX_TURNS"),
		AgentContextStrategy: strings.ToLower(v.GetString("AGENT_CONTEXT_STRATEGY")),
		AgentPromptPolicy:    strings.ToLower(v.GetString("AGENT_PROMPT_POLICY")),

		NATSEnabled:        v.GetBool("NATS_ENABLED"),
		NATSURL:            v.GetString("NATS_URL"),
		NATSCAFile:         v.GetString("NATS_CA_FILE"),
		NATSCertFile:       v.GetString("NATS_CERT_FILE"),
		NATSKeyFile:        v.GetString("NATS_KEY_FILE"),
		NATSToken:          v.GetString("NATS_TOKEN"),
		NATSSubject:        v.GetString("NATS_SUBJECT"),
		NATSQueue:          v.GetString("NATS_QUEUE"),
		NATSJournalEnabled: v.GetBool("NATS_JOURNAL_ENABLED"),

		LiveKitAPIKey:    v.GetString("LIVEKIT_API_KEY"),
		LiveKitAPISecret: v.GetString("LIVEKIT_API_SECRET"),
		LiveKitURL:       v.GetString("LIVEKIT_URL"),
		LiveKitRoom:      v.GetString("LIVEKIT_ROOM"),
		LiveKitTokenTTL:  v.GetDuration("LIVEKIT_TOKEN_TTL"),

		TURNPort:       v.GetInt("TURN_PORT"),
		TURNUsername:   v.GetString("TURN_USERNAME"),
		TURNCredential: v.GetString("TURN_CREDENTIAL"),

		RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
		RateLimitWindow:   v.GetDuration("RATE_LIMIT_WINDOW"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		TracingEndpoint: v.GetString("TRACING_ENDPOINT"),
		TracingEnabled:  v.GetBool("TRACING_ENABLED"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	switch c.AgentContextStrategy {
	case ContextSnapshot, ContextHistory:
	default:
		return fmt.Errorf("unsupported AGENT_CONTEXT_STRATEGY %q", c.AgentContextStrategy)
	}

	switch c.AgentPromptPolicy {
	case PolicyDirect, PolicyVerify:
	default:
		return fmt.Errorf("unsupported AGENT_PROMPT_POLICY %q", c.AgentPromptPolicy)
	}

	switch c.TitleProvider {
	case "openai":
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when TITLE_PROVIDER=anthropic")
		}
	default:
		return fmt.Errorf("unsupported TITLE_PROVIDER %q", c.TitleProvider)
	}

	if c.AgentMaxTurns < 1 {
		return fmt.Errorf("AGENT_MAX_TURNS must be positive, got %d", c.AgentMaxTurns)
	}
	if c.TodoAPIURL == "" {
		return fmt.Errorf("TODO_API_URL is required")
	}
	return nil
}
