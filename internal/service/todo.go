package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/internal/store"
)

// ErrTodoNotFound is returned when a list or item does not exist.
var ErrTodoNotFound = errors.New("not found")

// TodoService implements the list/item CRUD API.
type TodoService struct {
	store *store.Store
}

// NewTodoService creates a todo service.
func NewTodoService(s *store.Store) *TodoService {
	return &TodoService{store: s}
}

// ListLists returns every list with its items and stats.
func (s *TodoService) ListLists(ctx context.Context) ([]model.TodoList, error) {
	lists, err := s.store.ListTodoLists(ctx, &store.FindTodoList{})
	if err != nil {
		return nil, fmt.Errorf("failed to list todo lists: %w", err)
	}
	items, err := s.store.ListTodoItems(ctx, &store.FindTodoItem{})
	if err != nil {
		return nil, fmt.Errorf("failed to list todo items: %w", err)
	}

	byList := map[int64][]model.TodoItem{}
	for _, item := range items {
		byList[item.ListID] = append(byList[item.ListID], convertItem(item))
	}

	out := make([]model.TodoList, len(lists))
	for i, l := range lists {
		out[i] = model.TodoList{ID: l.ID, Title: l.Title, Items: byList[l.ID]}
		out[i].ComputeStats()
	}
	return out, nil
}

// GetList returns one list with its items.
func (s *TodoService) GetList(ctx context.Context, id int64) (*model.TodoList, error) {
	l, err := s.store.GetTodoList(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo list: %w", err)
	}
	return s.withItems(ctx, l)
}

func (s *TodoService) CreateList(ctx context.Context, in model.ListInput) (*model.TodoList, error) {
	l, err := s.store.CreateTodoList(ctx, &store.TodoList{Title: in.Title})
	if err != nil {
		return nil, fmt.Errorf("failed to create todo list: %w", err)
	}
	list := &model.TodoList{ID: l.ID, Title: l.Title}
	list.ComputeStats()
	return list, nil
}

func (s *TodoService) UpdateList(ctx context.Context, id int64, in model.ListInput) (*model.TodoList, error) {
	l, err := s.store.UpdateTodoList(ctx, &store.UpdateTodoList{ID: id, Title: in.Title})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update todo list: %w", err)
	}
	return s.withItems(ctx, l)
}

// DeleteList removes a list and its items.
func (s *TodoService) DeleteList(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteTodoList(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo list: %w", err)
	}
	if !deleted {
		return ErrTodoNotFound
	}
	return nil
}

// CreateItem adds an item to an existing list.
func (s *TodoService) CreateItem(ctx context.Context, listID int64, in model.ItemInput) (*model.TodoItem, error) {
	if _, err := s.store.GetTodoList(ctx, listID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo list: %w", err)
	}

	item, err := s.store.CreateTodoItem(ctx, &store.TodoItem{ListID: listID, Title: in.Title, Completed: in.Completed})
	if err != nil {
		return nil, fmt.Errorf("failed to create todo item: %w", err)
	}
	out := convertItem(item)
	return &out, nil
}

func (s *TodoService) UpdateItem(ctx context.Context, listID, itemID int64, patch model.ItemPatch) (*model.TodoItem, error) {
	item, err := s.store.UpdateTodoItem(ctx, &store.UpdateTodoItem{
		ID:        itemID,
		ListID:    listID,
		Title:     patch.Title,
		Completed: patch.Completed,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update todo item: %w", err)
	}
	out := convertItem(item)
	return &out, nil
}

func (s *TodoService) DeleteItem(ctx context.Context, listID, itemID int64) error {
	deleted, err := s.store.DeleteTodoItem(ctx, listID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete todo item: %w", err)
	}
	if !deleted {
		return ErrTodoNotFound
	}
	return nil
}

func (s *TodoService) withItems(ctx context.Context, l *store.TodoList) (*model.TodoList, error) {
	items, err := s.store.ListTodoItems(ctx, &store.FindTodoItem{ListID: &l.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list todo items: %w", err)
	}
	list := &model.TodoList{ID: l.ID, Title: l.Title, Items: make([]model.TodoItem, len(items))}
	for i, item := range items {
		list.Items[i] = convertItem(item)
	}
	list.ComputeStats()
	return list, nil
}

func convertItem(i *store.TodoItem) model.TodoItem {
	return model.TodoItem{ID: i.ID, Title: i.Title, Completed: i.Completed, ListID: i.ListID}
}
