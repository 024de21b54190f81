package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/internal/todo"
	"github.com/fady17/task/pkg/logger"
)

// API is the subset of the CRUD client the dispatcher drives.
type API interface {
	CreateList(ctx context.Context, title string) (json.RawMessage, error)
	GetAllLists(ctx context.Context) (json.RawMessage, error)
	GetList(ctx context.Context, listID int64) (json.RawMessage, error)
	UpdateList(ctx context.Context, listID int64, title string) (json.RawMessage, error)
	DeleteList(ctx context.Context, listID int64) (json.RawMessage, error)
	CreateItem(ctx context.Context, listID int64, title string, completed *bool) (json.RawMessage, error)
	UpdateItem(ctx context.Context, listID, itemID int64, update todo.ItemUpdate) (json.RawMessage, error)
	DeleteItem(ctx context.Context, listID, itemID int64) (json.RawMessage, error)
}

// ArgumentError reports tool arguments that could not be decoded.
type ArgumentError struct {
	Tool   Operation
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

// Dispatcher executes tool calls. Failures never escape as errors; they come
// back as unsuccessful results so the model can react to them.
type Dispatcher struct {
	api API
	log *logger.Logger
}

func NewDispatcher(api API, log *logger.Logger) *Dispatcher {
	return &Dispatcher{api: api, log: log}
}

// Dispatch runs the named tool with the raw JSON arguments from the model.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, rawArgs string) model.ToolResult {
	op, ok := Lookup(name)
	if !ok {
		d.log.Warn("unknown tool requested", zap.String("tool", name))
		return model.ToolFailure("unknown function: " + name)
	}

	result, err := d.run(ctx, op, json.RawMessage(rawArgs))
	if err != nil {
		if _, isArg := err.(*ArgumentError); isArg {
			d.log.Warn("malformed tool arguments", zap.String("tool", name), zap.String("args", rawArgs), zap.Error(err))
		} else {
			d.log.Info("tool call failed", zap.String("tool", name), zap.Error(err))
		}
		return model.ToolFailure(err.Error())
	}
	return model.ToolSuccess(result)
}

func (d *Dispatcher) run(ctx context.Context, op Operation, raw json.RawMessage) (json.RawMessage, error) {
	args, err := NormalizeArguments(raw)
	if err != nil {
		return nil, &ArgumentError{Tool: op, Reason: err.Error()}
	}

	switch op {
	case OpGetAllLists:
		return d.api.GetAllLists(ctx)

	case OpGetList:
		var a listRef
		if err := decode(op, args, &a); err != nil {
			return nil, err
		}
		if err := a.validate(op); err != nil {
			return nil, err
		}
		return d.api.GetList(ctx, int64(*a.ListID))

	case OpCreateList:
		var a struct {
			Title *string `json:"title"`
		}
		if err := decode(op, args, &a); err != nil {
			return nil, err
		}
		if a.Title == nil {
			return nil, missing(op, "title")
		}
		return d.api.CreateList(ctx, *a.Title)

	case OpUpdateList:
		var a struct {
			listRef
			Title *string `json:"title"`
		}
		if err := decode(op, args, &a); err != nil {
			return nil, err
		}
		if err := a.validate(op); err != nil {
			return nil, err
		}
		if a.Title == nil {
			return nil, missing(op, "title")
		}
		return d.api.UpdateList(ctx, int64(*a.ListID), *a.Title)

	case OpDeleteList:
		var a listRef
		if err := decode(op, args, &a); err != nil {
			return nil, err
		}
		if err := a.validate(op); err != nil {
			return nil, err
		}
		return d.api.DeleteList(ctx, int64(*a.ListID))

	case OpCreateItem:
		var a struct {
			listRef
			Title     *string `json:"title"`
			Completed *bool   `json:"completed"`
		}
		if err := decode(op, args, &a); err != nil {
			return nil, err
		}
		if err := a.validate(op); err != nil {
			return nil, err
		}
		if a.Title == nil {
			return nil, missing(op, "title")
		}
		return d.api.CreateItem(ctx, int64(*a.ListID), *a.Title, a.Completed)

	case OpUpdateItem:
		var a struct {
			itemRef
			Title     *string `json:"title"`
			Completed *bool   `json:"completed"`
		}
		if err := decode(op, args, &a); err != nil {
			return nil, err
		}
		if err := a.validate(op); err != nil {
			return nil, err
		}
		return d.api.UpdateItem(ctx, int64(*a.ListID), int64(*a.ItemID), todo.ItemUpdate{Title: a.Title, Completed: a.Completed})

	case OpDeleteItem:
		var a itemRef
		if err := decode(op, args, &a); err != nil {
			return nil, err
		}
		if err := a.validate(op); err != nil {
			return nil, err
		}
		return d.api.DeleteItem(ctx, int64(*a.ListID), int64(*a.ItemID))
	}

	return nil, fmt.Errorf("unknown function: %s", op)
}

type listRef struct {
	ListID *flexInt `json:"list_id"`
}

func (r listRef) validate(op Operation) error {
	if r.ListID == nil {
		return missing(op, "list_id")
	}
	return nil
}

type itemRef struct {
	listRef
	ItemID *flexInt `json:"item_id"`
}

func (r itemRef) validate(op Operation) error {
	if err := r.listRef.validate(op); err != nil {
		return err
	}
	if r.ItemID == nil {
		return missing(op, "item_id")
	}
	return nil
}

func missing(op Operation, field string) error {
	return &ArgumentError{Tool: op, Reason: "missing required field " + strconv.Quote(field)}
}

func decode(op Operation, args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return &ArgumentError{Tool: op, Reason: err.Error()}
	}
	return nil
}

// flexInt accepts an integer, an integral float or a numeric string.
// Small local models often quote IDs.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		fl, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil || fl != float64(int64(fl)) {
			return fmt.Errorf("%q is not an integer", data)
		}
		n = int64(fl)
	}
	*f = flexInt(n)
	return nil
}

var emptyArgs = json.RawMessage(`{}`)

// NormalizeArguments turns the model's argument payload into a JSON object.
// Empty and null payloads become {}; a JSON string holding an object is
// unquoted once. Anything else that is not an object is an error.
func NormalizeArguments(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return emptyArgs, nil
	}

	if trimmed[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(trimmed, &unquoted); err != nil {
			return nil, fmt.Errorf("arguments are not valid JSON: %w", err)
		}
		trimmed = bytes.TrimSpace([]byte(unquoted))
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return emptyArgs, nil
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, fmt.Errorf("arguments must be a JSON object: %w", err)
	}
	if obj == nil {
		return emptyArgs, nil
	}
	return trimmed, nil
}
