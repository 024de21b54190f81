package todo

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fady17/task/pkg/logger"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*Client, *recorded, *atomic.Int32) {
	t.Helper()
	rec := &recorded{}
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.body = nil
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, &rec.body))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if response != "" {
			w.Write([]byte(response))
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", 0, logger.NewNop())
	t.Cleanup(c.Close)
	return c, rec, &calls
}

func TestClientRoutes(t *testing.T) {
	ctx := context.Background()
	title := "oat milk"
	done := true

	tests := []struct {
		name     string
		call     func(c *Client) (json.RawMessage, error)
		method   string
		path     string
		wantBody map[string]any
	}{
		{"create list", func(c *Client) (json.RawMessage, error) { return c.CreateList(ctx, "Groceries") },
			http.MethodPost, "/lists/", map[string]any{"title": "Groceries"}},
		{"get all lists", func(c *Client) (json.RawMessage, error) { return c.GetAllLists(ctx) },
			http.MethodGet, "/lists/", nil},
		{"get list", func(c *Client) (json.RawMessage, error) { return c.GetList(ctx, 3) },
			http.MethodGet, "/lists/3", nil},
		{"update list", func(c *Client) (json.RawMessage, error) { return c.UpdateList(ctx, 3, "Weekly") },
			http.MethodPut, "/lists/3", map[string]any{"title": "Weekly"}},
		{"delete list", func(c *Client) (json.RawMessage, error) { return c.DeleteList(ctx, 3) },
			http.MethodDelete, "/lists/3", nil},
		{"create item defaults completed", func(c *Client) (json.RawMessage, error) { return c.CreateItem(ctx, 3, "milk", nil) },
			http.MethodPost, "/3/items/", map[string]any{"title": "milk", "completed": false}},
		{"update item title only", func(c *Client) (json.RawMessage, error) {
			return c.UpdateItem(ctx, 3, 9, ItemUpdate{Title: &title})
		}, http.MethodPut, "/3/items/9", map[string]any{"title": "oat milk"}},
		{"update item completed only", func(c *Client) (json.RawMessage, error) {
			return c.UpdateItem(ctx, 3, 9, ItemUpdate{Completed: &done})
		}, http.MethodPut, "/3/items/9", map[string]any{"completed": true}},
		{"delete item", func(c *Client) (json.RawMessage, error) { return c.DeleteItem(ctx, 3, 9) },
			http.MethodDelete, "/3/items/9", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec, _ := newTestServer(t, http.StatusOK, `{"id":1}`)

			result, err := tt.call(c)
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":1}`, string(result))
			assert.Equal(t, tt.method, rec.method)
			assert.Equal(t, tt.path, rec.path)
			assert.Equal(t, tt.wantBody, rec.body)
		})
	}
}

func TestClientNoContent(t *testing.T) {
	c, _, _ := newTestServer(t, http.StatusNoContent, "")

	result, err := c.DeleteList(context.Background(), 1)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(result, &body))
	assert.Equal(t, true, body["success"])
}

func TestClientHTTPError(t *testing.T) {
	c, _, _ := newTestServer(t, http.StatusNotFound, `{"detail":"List not found"}`)

	_, err := c.GetList(context.Background(), 42)
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "HTTP 404: Not Found", apiErr.Error())
}

func TestUpdateItemRequiresAField(t *testing.T) {
	c, _, calls := newTestServer(t, http.StatusOK, `{}`)

	_, err := c.UpdateItem(context.Background(), 1, 2, ItemUpdate{})
	require.Error(t, err)

	var apiErr *Error
	assert.True(t, errors.As(err, &apiErr))
	assert.Zero(t, calls.Load())
}

func TestClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, 0, logger.NewNop())
	_, err := c.GetAllLists(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Zero(t, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "request failed")
}
