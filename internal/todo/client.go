// Package todo is the HTTP client for the list/item CRUD API.
package todo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fady17/task/pkg/logger"
)

// DefaultTimeout bounds every CRUD request.
const DefaultTimeout = 30 * time.Second

// noContentResult stands in for an empty 204 body.
var noContentResult = json.RawMessage(`{"success":true,"message":"Operation completed"}`)

// Error is the single failure type of the client. StatusCode is zero when
// the request never got a response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// ItemUpdate holds the optional fields of an item update.
type ItemUpdate struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Client talks to the CRUD API. It holds one pooled http.Client and is
// safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a client for baseURL. A zero timeout means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport.(*http.Transport).Clone()),
		},
		log: log,
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) CreateList(ctx context.Context, title string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/lists/", map[string]any{"title": title})
}

func (c *Client) GetAllLists(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/lists/", nil)
}

func (c *Client) GetList(ctx context.Context, listID int64) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/lists/%d", listID), nil)
}

func (c *Client) UpdateList(ctx context.Context, listID int64, title string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/lists/%d", listID), map[string]any{"title": title})
}

func (c *Client) DeleteList(ctx context.Context, listID int64) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/lists/%d", listID), nil)
}

// CreateItem adds an item to a list. A nil completed is sent as false.
func (c *Client) CreateItem(ctx context.Context, listID int64, title string, completed *bool) (json.RawMessage, error) {
	done := false
	if completed != nil {
		done = *completed
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/%d/items/", listID), map[string]any{"title": title, "completed": done})
}

// UpdateItem changes the given fields of an item. At least one field must
// be set; otherwise no request is made.
func (c *Client) UpdateItem(ctx context.Context, listID, itemID int64, update ItemUpdate) (json.RawMessage, error) {
	if update.Title == nil && update.Completed == nil {
		return nil, &Error{Message: "at least one field (title or completed) must be provided"}
	}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/%d/items/%d", listID, itemID), update)
}

func (c *Client) DeleteItem(ctx context.Context, listID, itemID int64) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/%d/items/%d", listID, itemID), nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Message: fmt.Sprintf("request failed: encode body: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("request failed: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("todo api request failed", zap.String("method", method), zap.String("url", url), zap.Error(err))
		return nil, &Error{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		io.Copy(io.Discard, resp.Body)
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
		c.log.Error("todo api error", zap.String("method", method), zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, apiErr
	}

	if resp.StatusCode == http.StatusNoContent {
		return noContentResult, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Message: fmt.Sprintf("request failed: read body: %v", err)}
	}
	if !json.Valid(data) {
		return nil, &Error{StatusCode: resp.StatusCode, Message: "request failed: response is not JSON"}
	}
	return json.RawMessage(data), nil
}
