package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fady17/task/internal/llm"
	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/internal/todo"
	"github.com/fady17/task/internal/tools"
	"github.com/fady17/task/pkg/logger"
)

// listBackend is an in-memory list store speaking the CRUD API. It records
// every request as "METHOD /path".
type listBackend struct {
	mu       sync.Mutex
	lists    map[int64]string
	nextID   int64
	requests []string
}

func newListBackend(t *testing.T, titles ...string) (*listBackend, *todo.Client) {
	t.Helper()
	b := &listBackend{lists: map[int64]string{}, nextID: 1}
	for _, title := range titles {
		b.lists[b.nextID] = title
		b.nextID++
	}

	mux := chi.NewRouter()
	mux.Get("/lists/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		out := make([]map[string]any, 0, len(b.lists))
		for id := int64(1); id < b.nextID; id++ {
			if title, ok := b.lists[id]; ok {
				out = append(out, map[string]any{"id": id, "title": title, "items": []any{}})
			}
		}
		json.NewEncoder(w).Encode(out)
	})
	mux.Post("/lists/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Title string `json:"title"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		id := b.nextID
		b.nextID++
		b.lists[id] = body.Title
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": id, "title": body.Title, "items": []any{}})
	})
	mux.Delete("/lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		b.mu.Lock()
		_, ok := b.lists[id]
		delete(b.lists, id)
		b.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client := todo.NewClient(srv.URL, 0, logger.NewNop())
	t.Cleanup(client.Close)
	return b, client
}

func (b *listBackend) calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// reactiveModel answers through a function of the running transcript.
type reactiveModel struct {
	mu       sync.Mutex
	step     func(n int, messages []llm.ChatMessage) *llm.CompletionResponse
	requests int
}

func (m *reactiveModel) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests++
	return m.step(m.requests, req.Messages), nil
}

func (m *reactiveModel) Name() string { return "reactive" }

func lastToolResult(t *testing.T, messages []llm.ChatMessage) model.ToolResult {
	t.Helper()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "tool" {
			var res model.ToolResult
			require.NoError(t, json.Unmarshal([]byte(messages[i].Content), &res))
			return res
		}
	}
	t.Fatal("no tool result in context")
	return model.ToolResult{}
}

func runTurn(l *Loop, prompt string, sessionID int64) []model.Event {
	var events []model.Event
	for e := range l.Run(context.Background(), Request{Prompt: prompt, SessionID: sessionID}) {
		events = append(events, e)
	}
	return events
}

func TestCreateListOnNewSession(t *testing.T) {
	backend, client := newListBackend(t)
	m := &reactiveModel{step: func(n int, messages []llm.ChatMessage) *llm.CompletionResponse {
		if n == 1 {
			return calls(tc("c1", "create_todo_list", `{"title":"groceries"}`))
		}
		if res := lastToolResult(t, messages); !res.Success {
			return text("Could not create it: " + res.Error)
		}
		return text("Created the groceries list.")
	}}
	sessions := newMemorySessions()
	l := New(m, tools.NewDispatcher(client, logger.NewNop()), sessions, &fixedTitler{}, Config{}, logger.NewNop())

	events := runTurn(l, "create a list called groceries", 1)

	assert.Equal(t, []model.Event{
		model.TitleChanged("Grocery Shopping"),
		model.StateChanged(model.ResourceTodos),
		model.ChatMessage("Created the groceries list."),
	}, events)
	assert.Equal(t, model.ResourceSessions, events[0].Resource)
	// The snapshot read comes first, then the requested create.
	assert.Equal(t, []string{"GET /lists/", "POST /lists/"}, backend.calls())
	assert.Equal(t, "groceries", backend.lists[1])
	assert.Equal(t, []model.Role{
		model.RoleUser,
		model.RoleAssistant,
		model.RoleTool,
		model.RoleAssistant,
	}, sessions.roles())
}

func TestDeleteResolvesListNameFirst(t *testing.T) {
	backend, client := newListBackend(t, "work", "groceries")
	var toolOrder []string
	m := &reactiveModel{step: func(n int, messages []llm.ChatMessage) *llm.CompletionResponse {
		switch n {
		case 1:
			toolOrder = append(toolOrder, "get_all_todo_lists")
			return calls(tc("c1", "get_all_todo_lists", `{}`))
		case 2:
			var lists []struct {
				ID    int64  `json:"id"`
				Title string `json:"title"`
			}
			require.NoError(t, json.Unmarshal(lastToolResult(t, messages).Result, &lists))
			for _, list := range lists {
				if strings.EqualFold(list.Title, "groceries") {
					toolOrder = append(toolOrder, "delete_todo_list")
					return calls(tc("c2", "delete_todo_list", fmt.Sprintf(`{"list_id":%d}`, list.ID)))
				}
			}
			return text("No list named groceries.")
		default:
			return text("Deleted the groceries list.")
		}
	}}
	l := New(m, tools.NewDispatcher(client, logger.NewNop()), newMemorySessions(), &fixedTitler{}, Config{}, logger.NewNop())

	events := runTurn(l, "delete the groceries list", 1)

	assert.Equal(t, []string{"get_all_todo_lists", "delete_todo_list"}, toolOrder)
	assert.Equal(t, []string{"GET /lists/", "GET /lists/", "DELETE /lists/2"}, backend.calls())
	assert.Equal(t, map[int64]string{1: "work"}, backend.lists)
	// Only the delete is a mutation.
	assert.Equal(t, 1, countKind(events, model.EventStateChanged))
	assert.Equal(t, []string{"Deleted the groceries list."}, chatMessages(events))
}

func TestUnreachableBackendLetsModelReact(t *testing.T) {
	client := todo.NewClient("http://127.0.0.1:1", 0, logger.NewNop())
	t.Cleanup(client.Close)

	var seen model.ToolResult
	m := &reactiveModel{step: func(n int, messages []llm.ChatMessage) *llm.CompletionResponse {
		if n == 1 {
			return calls(tc("c1", "create_todo_list", `{"title":"groceries"}`))
		}
		seen = lastToolResult(t, messages)
		return text("Sorry, the todo service is unavailable right now.")
	}}
	l := New(m, tools.NewDispatcher(client, logger.NewNop()), newMemorySessions(), &fixedTitler{}, Config{}, logger.NewNop())

	events := runTurn(l, "create a list called groceries", 2)

	assert.False(t, seen.Success)
	assert.Contains(t, seen.Error, "request failed")
	assert.Equal(t, 0, countKind(events, model.EventStateChanged))
	assert.Equal(t, []string{"Sorry, the todo service is unavailable right now."}, chatMessages(events))
}
