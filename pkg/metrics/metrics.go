// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// TurnsTotal counts agent turns by how they ended.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_turns_total",
			Help: "Agent turns by outcome",
		},
		[]string{"outcome"},
	)

	// TurnIterations observes how many model round trips a turn took.
	TurnIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_turn_iterations",
			Help:    "Model round trips per agent turn",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 16, 20},
		},
	)

	// ToolCallsTotal counts dispatched tool calls.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_calls_total",
			Help: "Tool calls dispatched by the agent",
		},
		[]string{"tool", "status"},
	)

	// LLMRequestDuration tracks model call latency.
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "LLM request duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
		[]string{"model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// ConnectionsActive tracks open client channels per transport.
	ConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_connections_active",
			Help: "Number of active client connections",
		},
		[]string{"transport"},
	)

	// EventsSent counts events forwarded to clients.
	EventsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_events_sent_total",
			Help: "Events forwarded to clients",
		},
		[]string{"type", "status"},
	)

	// MessagesTotal tracks persisted chat messages.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"role"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLLMRequest records metrics for one model call.
func RecordLLMRequest(model, status string, duration float64, tokensIn, tokensOut int) {
	LLMRequestDuration.WithLabelValues(model, status).Observe(duration)
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordToolCall records a single tool dispatch.
func RecordToolCall(tool string, success bool) {
	status := "ok"
	if !success {
		status = "failed"
	}
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

// RecordTurn records a finished turn.
func RecordTurn(outcome string, iterations int) {
	TurnsTotal.WithLabelValues(outcome).Inc()
	TurnIterations.Observe(float64(iterations))
}
