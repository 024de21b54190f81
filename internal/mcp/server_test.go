package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/pkg/logger"
)

type recordingDispatcher struct {
	name string
	args string
}

func (d *recordingDispatcher) Dispatch(_ context.Context, name, args string) model.ToolResult {
	d.name, d.args = name, args
	if name == "delete_todo_list" {
		return model.ToolFailure("HTTP 404: Not Found")
	}
	return model.ToolSuccess(json.RawMessage(`{"id":1,"title":"Groceries"}`))
}

func toolByName(t *testing.T, d *recordingDispatcher, name string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.Helper()
	for _, st := range Tools(d, logger.NewNop()) {
		if st.Tool.Name == name {
			return st.Handler
		}
	}
	t.Fatalf("tool %s not registered", name)
	return nil
}

func TestToolsCoverCatalog(t *testing.T) {
	var names []string
	for _, st := range Tools(&recordingDispatcher{}, logger.NewNop()) {
		names = append(names, st.Tool.Name)
		assert.NotEmpty(t, st.Tool.Description)
		assert.NotEmpty(t, st.Tool.RawInputSchema)
	}
	assert.ElementsMatch(t, []string{
		"get_all_todo_lists", "get_todo_list", "create_todo_list", "update_todo_list",
		"delete_todo_list", "create_todo_item", "update_todo_item", "delete_todo_item",
	}, names)
}

func TestHandlerPassesArgumentsAndResult(t *testing.T) {
	d := &recordingDispatcher{}
	call := toolByName(t, d, "create_todo_list")

	var req mcp.CallToolRequest
	req.Params.Name = "create_todo_list"
	req.Params.Arguments = map[string]any{"title": "Groceries"}

	res, err := call(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "create_todo_list", d.name)
	assert.JSONEq(t, `{"title":"Groceries"}`, d.args)

	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1,"title":"Groceries"}`, text.Text)
}

func TestHandlerReportsFailureAsToolError(t *testing.T) {
	d := &recordingDispatcher{}
	call := toolByName(t, d, "delete_todo_list")

	var req mcp.CallToolRequest
	req.Params.Name = "delete_todo_list"

	res, err := call(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "{}", d.args)
}
