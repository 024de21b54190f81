// Package agent runs one conversational turn: it drives a tool-calling
// model, executes the requested CRUD operations and streams the resulting
// events while recording the conversation.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fady17/task/internal/config"
	"github.com/fady17/task/internal/llm"
	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/internal/tools"
	"github.com/fady17/task/pkg/logger"
	"github.com/fady17/task/pkg/metrics"
)

// User-facing messages for turns that end without a model answer.
const (
	BudgetExhaustedMessage = "This is taking too many steps. Please try a simpler request."
	FailureMessage         = "Sorry, I ran into a problem while handling that request. Please try again."
)

// Defaults applied by New for zero Config fields.
const (
	DefaultMaxTurns    = 20
	DefaultCallTimeout = 90 * time.Second
	DefaultMaxTokens   = 8192

	closingSaveTimeout = 5 * time.Second
)

var tracer = otel.Tracer("github.com/fady17/task/internal/agent")

// Sessions is the persistence the loop needs.
type Sessions interface {
	SaveMessage(ctx context.Context, msg *model.Message) (*model.Message, error)
	CountUserMessages(ctx context.Context, sessionID int64) (int, error)
	UpdateTitle(ctx context.Context, sessionID int64, title string) (*model.Session, error)
	Transcript(ctx context.Context, sessionID int64) ([]model.TranscriptMessage, error)
}

// Titler names a session from its first prompt. It must not fail.
type Titler interface {
	Generate(ctx context.Context, prompt string) string
}

// Dispatcher executes one tool call.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, rawArgs string) model.ToolResult
}

// Config tunes the loop.
type Config struct {
	MaxTurns        int
	ContextStrategy string
	SystemPrompt    string
	Model           string
	Temperature     float64
	MaxTokens       int
	CallTimeout     time.Duration
}

// Request starts a turn.
type Request struct {
	Prompt    string
	SessionID int64
}

// Loop runs turns. It holds no per-turn state and is safe for concurrent use.
type Loop struct {
	model      llm.Client
	dispatcher Dispatcher
	sessions   Sessions
	titler     Titler
	cfg        Config
	tools      []llm.ToolSpec
	logger     *logger.Logger
}

// New creates a loop.
func New(client llm.Client, dispatcher Dispatcher, sessions Sessions, titler Titler, cfg Config, log *logger.Logger) *Loop {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.ContextStrategy == "" {
		cfg.ContextStrategy = config.ContextSnapshot
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = tools.DirectPrompt
	}

	defs := tools.Catalog()
	specs := make([]llm.ToolSpec, len(defs))
	for i, def := range defs {
		specs[i] = llm.ToolSpec{Name: string(def.Name), Description: def.Description, Parameters: def.Parameters}
	}

	return &Loop{
		model:      client,
		dispatcher: dispatcher,
		sessions:   sessions,
		titler:     titler,
		cfg:        cfg,
		tools:      specs,
		logger:     log,
	}
}

// Run starts a turn and returns its events. The channel is closed when the
// turn is over and every turn ends with exactly one chat message, even when
// ctx is cancelled. Callers must drain the channel until it is closed.
func (l *Loop) Run(ctx context.Context, req Request) <-chan model.Event {
	events := make(chan model.Event, 8)
	go func() {
		defer close(events)
		st := &turnState{
			req:  req,
			log:  l.logger.WithSession(req.SessionID),
			emit: func(e model.Event) bool {
				select {
				case events <- e:
					return true
				case <-ctx.Done():
					return false
				}
			},
			last: func(e model.Event) { events <- e },
		}
		l.turn(ctx, st)
	}()
	return events
}

type turnState struct {
	req  Request
	log  *logger.Logger
	emit func(model.Event) bool
	// last delivers the closing chat message regardless of cancellation.
	last       func(model.Event)
	iterations int
}

func (l *Loop) turn(ctx context.Context, st *turnState) {
	ctx, span := tracer.Start(ctx, "agent.turn", trace.WithAttributes(attribute.Int64("session.id", st.req.SessionID)))
	defer span.End()

	outcome := "error"
	defer func() {
		if r := recover(); r != nil {
			st.log.Error("agent turn panicked", zap.Any("panic", r), zap.Stack("stack"))
			span.SetStatus(codes.Error, "panic")
			l.finish(ctx, st, FailureMessage)
			outcome = "panic"
		}
		span.SetAttributes(attribute.String("turn.outcome", outcome), attribute.Int("turn.iterations", st.iterations))
		metrics.RecordTurn(outcome, st.iterations)
	}()

	var err error
	outcome, err = l.execute(ctx, st)
	if err != nil {
		st.log.Error("agent turn failed", zap.Error(err), zap.Int("iterations", st.iterations))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.finish(ctx, st, FailureMessage)
		outcome = "error"
	}
}

func (l *Loop) execute(ctx context.Context, st *turnState) (string, error) {
	if _, err := l.save(ctx, &model.Message{SessionID: st.req.SessionID, Role: model.RoleUser, Content: st.req.Prompt}); err != nil {
		return "", err
	}

	n, err := l.sessions.CountUserMessages(ctx, st.req.SessionID)
	if err != nil {
		return "", err
	}
	if n == 1 {
		l.nameSession(ctx, st)
	}

	messages, err := l.buildContext(ctx, st)
	if err != nil {
		return "", err
	}

	for st.iterations < l.cfg.MaxTurns {
		st.iterations++

		resp, err := l.complete(ctx, messages)
		if err != nil {
			return "", fmt.Errorf("model call %d: %w", st.iterations, err)
		}
		assignCallIDs(resp.ToolCalls)
		messages = append(messages, resp.Message())

		if len(resp.ToolCalls) > 0 {
			calls, err := json.Marshal(resp.ToolCalls)
			if err != nil {
				return "", fmt.Errorf("encode tool calls: %w", err)
			}
			if _, err := l.save(ctx, &model.Message{
				SessionID: st.req.SessionID,
				Role:      model.RoleAssistant,
				Content:   resp.Content,
				ToolCalls: calls,
			}); err != nil {
				return "", err
			}

			for _, call := range resp.ToolCalls {
				msg, err := l.runTool(ctx, st, call)
				if err != nil {
					return "", err
				}
				messages = append(messages, msg)
			}
			continue
		}

		content := strings.TrimSpace(resp.Content)
		if content == "" {
			return "", errors.New("model returned neither content nor tool calls")
		}
		if _, err := l.save(ctx, &model.Message{SessionID: st.req.SessionID, Role: model.RoleAssistant, Content: content}); err != nil {
			return "", err
		}
		st.last(model.ChatMessage(content))
		return "completed", nil
	}

	st.log.Warn("agent turn budget exhausted", zap.Int("max_turns", l.cfg.MaxTurns))
	l.finish(ctx, st, BudgetExhaustedMessage)
	return "budget_exhausted", nil
}

// nameSession titles the session after its first prompt. Failures are
// logged; the turn goes on.
func (l *Loop) nameSession(ctx context.Context, st *turnState) {
	title := l.titler.Generate(ctx, st.req.Prompt)
	if _, err := l.sessions.UpdateTitle(ctx, st.req.SessionID, title); err != nil {
		st.log.Warn("failed to store session title", zap.Error(err))
		return
	}
	st.log.Info("session titled", zap.String("title", title))
	st.emit(model.TitleChanged(title))
}

func (l *Loop) buildContext(ctx context.Context, st *turnState) ([]llm.ChatMessage, error) {
	messages := []llm.ChatMessage{{Role: "system", Content: l.cfg.SystemPrompt}}

	if l.cfg.ContextStrategy == config.ContextHistory {
		transcript, err := l.sessions.Transcript(ctx, st.req.SessionID)
		if err != nil {
			return nil, err
		}
		for _, m := range transcript {
			messages = append(messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
		}
		return messages, nil
	}

	messages = append(messages,
		llm.ChatMessage{Role: "system", Content: l.snapshot(ctx, st)},
		llm.ChatMessage{Role: "user", Content: st.req.Prompt},
	)
	return messages, nil
}

// snapshot renders the current lists for the model. Earlier turns are left
// out; the state is the history.
func (l *Loop) snapshot(ctx context.Context, st *turnState) string {
	result := l.dispatcher.Dispatch(ctx, string(tools.OpGetAllLists), "{}")
	if !result.Success {
		st.log.Warn("failed to load todo snapshot", zap.String("error", result.Error))
		return "## Current Database State (as of right now):\nUnavailable: " + result.Error
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result.Result, "", "  "); err != nil {
		pretty.Reset()
		pretty.Write(result.Result)
	}
	return "## Current Database State (as of right now):\n```json\n" + pretty.String() + "\n```"
}

func (l *Loop) complete(ctx context.Context, messages []llm.ChatMessage) (*llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "agent.model_call")
	defer span.End()

	resp, err := l.model.Complete(ctx, &llm.CompletionRequest{
		Model:       l.cfg.Model,
		Messages:    messages,
		Tools:       l.tools,
		Temperature: l.cfg.Temperature,
		MaxTokens:   l.cfg.MaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("llm.tool_calls", len(resp.ToolCalls)), attribute.Int("llm.tokens_out", resp.TokensOut))
	return resp, nil
}

// runTool dispatches one call, records its result and announces successful
// mutations.
func (l *Loop) runTool(ctx context.Context, st *turnState, call llm.ToolCall) (llm.ChatMessage, error) {
	ctx, span := tracer.Start(ctx, "agent.tool_call", trace.WithAttributes(attribute.String("tool.name", call.Name)))
	result := l.dispatcher.Dispatch(ctx, call.Name, call.Arguments)
	span.SetAttributes(attribute.Bool("tool.success", result.Success))
	span.End()

	metrics.RecordToolCall(call.Name, result.Success)
	st.log.Debug("tool call", zap.String("tool", call.Name), zap.String("call_id", call.ID), zap.Bool("success", result.Success))

	content := result.JSON()
	if _, err := l.save(ctx, &model.Message{
		SessionID:  st.req.SessionID,
		Role:       model.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}); err != nil {
		return llm.ChatMessage{}, err
	}

	if result.Success {
		if op, ok := tools.Lookup(call.Name); ok && !op.ReadOnly() {
			st.emit(model.StateChanged(model.ResourceTodos))
		}
	}
	return llm.ChatMessage{Role: "tool", Content: content, ToolCallID: call.ID, Name: call.Name}, nil
}

// finish records and emits a fixed closing message. Persistence is best
// effort here since the turn is already ending, and it outlives a cancelled
// turn context.
func (l *Loop) finish(ctx context.Context, st *turnState, text string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closingSaveTimeout)
	defer cancel()
	if _, err := l.save(ctx, &model.Message{SessionID: st.req.SessionID, Role: model.RoleAssistant, Content: text}); err != nil {
		st.log.Error("failed to save closing message", zap.Error(err))
	}
	st.last(model.ChatMessage(text))
}

func (l *Loop) save(ctx context.Context, msg *model.Message) (*model.Message, error) {
	saved, err := l.sessions.SaveMessage(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("persist %s message: %w", msg.Role, err)
	}
	return saved, nil
}

// assignCallIDs fills in ids some local servers leave out, so results can
// still be correlated.
func assignCallIDs(calls []llm.ToolCall) {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = "call_" + uuid.NewString()
		}
	}
}
