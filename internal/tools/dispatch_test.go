package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fady17/task/internal/todo"
	"github.com/fady17/task/pkg/logger"
)

type call struct {
	method string
	args   []any
}

type fakeAPI struct {
	calls []call
	err   error
}

func (f *fakeAPI) record(method string, args ...any) (json.RawMessage, error) {
	f.calls = append(f.calls, call{method: method, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"ok":true}`), nil
}

func (f *fakeAPI) CreateList(_ context.Context, title string) (json.RawMessage, error) {
	return f.record("CreateList", title)
}

func (f *fakeAPI) GetAllLists(context.Context) (json.RawMessage, error) {
	return f.record("GetAllLists")
}

func (f *fakeAPI) GetList(_ context.Context, listID int64) (json.RawMessage, error) {
	return f.record("GetList", listID)
}

func (f *fakeAPI) UpdateList(_ context.Context, listID int64, title string) (json.RawMessage, error) {
	return f.record("UpdateList", listID, title)
}

func (f *fakeAPI) DeleteList(_ context.Context, listID int64) (json.RawMessage, error) {
	return f.record("DeleteList", listID)
}

func (f *fakeAPI) CreateItem(_ context.Context, listID int64, title string, completed *bool) (json.RawMessage, error) {
	return f.record("CreateItem", listID, title, completed)
}

func (f *fakeAPI) UpdateItem(_ context.Context, listID, itemID int64, update todo.ItemUpdate) (json.RawMessage, error) {
	return f.record("UpdateItem", listID, itemID, update)
}

func (f *fakeAPI) DeleteItem(_ context.Context, listID, itemID int64) (json.RawMessage, error) {
	return f.record("DeleteItem", listID, itemID)
}

func TestDispatchRoutesEveryOperation(t *testing.T) {
	yes := true
	title := "oat milk"

	tests := []struct {
		tool string
		args string
		want call
	}{
		{"get_all_todo_lists", `{}`, call{"GetAllLists", nil}},
		{"get_todo_list", `{"list_id":4}`, call{"GetList", []any{int64(4)}}},
		{"create_todo_list", `{"title":"Groceries"}`, call{"CreateList", []any{"Groceries"}}},
		{"update_todo_list", `{"list_id":4,"title":"Weekly"}`, call{"UpdateList", []any{int64(4), "Weekly"}}},
		{"delete_todo_list", `{"list_id":4}`, call{"DeleteList", []any{int64(4)}}},
		{"create_todo_item", `{"list_id":4,"title":"milk"}`, call{"CreateItem", []any{int64(4), "milk", (*bool)(nil)}}},
		{"create_todo_item", `{"list_id":4,"title":"milk","completed":true}`, call{"CreateItem", []any{int64(4), "milk", &yes}}},
		{"update_todo_item", `{"list_id":4,"item_id":7,"title":"oat milk"}`,
			call{"UpdateItem", []any{int64(4), int64(7), todo.ItemUpdate{Title: &title}}}},
		{"delete_todo_item", `{"list_id":4,"item_id":7}`, call{"DeleteItem", []any{int64(4), int64(7)}}},
	}

	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.args, func(t *testing.T) {
			api := &fakeAPI{}
			d := NewDispatcher(api, logger.NewNop())

			result := d.Dispatch(context.Background(), tt.tool, tt.args)
			require.True(t, result.Success, result.Error)
			require.Len(t, api.calls, 1)
			assert.Equal(t, tt.want.method, api.calls[0].method)
			assert.Equal(t, tt.want.args, api.calls[0].args)
		})
	}
}

func TestDispatchUnknownFunction(t *testing.T) {
	api := &fakeAPI{}
	d := NewDispatcher(api, logger.NewNop())

	result := d.Dispatch(context.Background(), "drop_database", `{}`)
	assert.False(t, result.Success)
	assert.Equal(t, "unknown function: drop_database", result.Error)
	assert.Empty(t, api.calls)
}

func TestDispatchMalformedArguments(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args string
	}{
		{"not json", "create_todo_list", `{title:`},
		{"array", "create_todo_list", `["Groceries"]`},
		{"missing title", "create_todo_list", `{}`},
		{"missing list id", "delete_todo_list", `{}`},
		{"missing item id", "delete_todo_item", `{"list_id":1}`},
		{"fractional id", "delete_todo_list", `{"list_id":1.5}`},
		{"wrong type", "create_todo_list", `{"title":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			d := NewDispatcher(api, logger.NewNop())

			result := d.Dispatch(context.Background(), tt.tool, tt.args)
			assert.False(t, result.Success)
			assert.Contains(t, result.Error, "invalid arguments for "+tt.tool)
			assert.Empty(t, api.calls)
		})
	}
}

func TestDispatchBackendError(t *testing.T) {
	api := &fakeAPI{err: &todo.Error{StatusCode: 404, Message: "HTTP 404: Not Found"}}
	d := NewDispatcher(api, logger.NewNop())

	result := d.Dispatch(context.Background(), "delete_todo_list", `{"list_id":99}`)
	assert.False(t, result.Success)
	assert.Equal(t, "HTTP 404: Not Found", result.Error)
}

func TestDispatchUpdateItemWithoutFieldsReachesClient(t *testing.T) {
	// The client rejects the empty update; the dispatcher passes it through.
	api := &fakeAPI{err: fmt.Errorf("at least one field (title or completed) must be provided")}
	d := NewDispatcher(api, logger.NewNop())

	result := d.Dispatch(context.Background(), "update_todo_item", `{"list_id":1,"item_id":2}`)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "at least one field")
}

func TestNormalizeArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"empty", ``, `{}`, false},
		{"null", `null`, `{}`, false},
		{"object", `{"list_id":1}`, `{"list_id":1}`, false},
		{"quoted object", `"{\"list_id\":1}"`, `{"list_id":1}`, false},
		{"quoted empty", `""`, `{}`, false},
		{"number", `42`, ``, true},
		{"garbage", `nope`, ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeArguments(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestQuotedIDsAreAccepted(t *testing.T) {
	api := &fakeAPI{}
	d := NewDispatcher(api, logger.NewNop())

	result := d.Dispatch(context.Background(), "delete_todo_item", `{"list_id":"3","item_id":8.0}`)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, []any{int64(3), int64(8)}, api.calls[0].args)
}

func TestCatalog(t *testing.T) {
	defs := Catalog()
	require.Len(t, defs, 8)

	seen := map[Operation]bool{}
	for _, def := range defs {
		_, ok := Lookup(string(def.Name))
		assert.True(t, ok, def.Name)
		assert.True(t, json.Valid(def.Parameters), def.Name)
		seen[def.Name] = true
	}
	assert.Len(t, seen, 8)

	assert.True(t, OpGetAllLists.ReadOnly())
	assert.True(t, OpGetList.ReadOnly())
	assert.False(t, OpDeleteItem.ReadOnly())
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, DirectPrompt, SystemPrompt("direct"))
	assert.Equal(t, VerifyPrompt, SystemPrompt("verify"))
	assert.Equal(t, DirectPrompt, SystemPrompt(""))
	assert.Panics(t, func() { SystemPrompt("sometimes") })
	assert.NotEqual(t, DirectPrompt, VerifyPrompt)
}
