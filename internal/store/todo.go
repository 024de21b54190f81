package store

import (
	"context"

	"github.com/pkg/errors"
)

// TodoList is a stored list.
type TodoList struct {
	ID    int64
	Title string
}

// TodoItem is a stored list entry.
type TodoItem struct {
	ID        int64
	ListID    int64
	Title     string
	Completed bool
}

// FindTodoList filters ListTodoLists.
type FindTodoList struct {
	ID *int64
}

// UpdateTodoList carries fields accepted by UpdateTodoList.
type UpdateTodoList struct {
	ID    int64
	Title string
}

// FindTodoItem filters ListTodoItems.
type FindTodoItem struct {
	ID     *int64
	ListID *int64
}

// UpdateTodoItem carries fields accepted by UpdateTodoItem. Nil fields are
// left untouched.
type UpdateTodoItem struct {
	ID        int64
	ListID    int64
	Title     *string
	Completed *bool
}

func (s *Store) CreateTodoList(ctx context.Context, create *TodoList) (*TodoList, error) {
	list, err := s.driver.CreateTodoList(ctx, create)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create todo list")
	}
	return list, nil
}

// ListTodoLists returns lists ordered by id.
func (s *Store) ListTodoLists(ctx context.Context, find *FindTodoList) ([]*TodoList, error) {
	lists, err := s.driver.ListTodoLists(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list todo lists")
	}
	return lists, nil
}

// GetTodoList returns one list or ErrNotFound.
func (s *Store) GetTodoList(ctx context.Context, id int64) (*TodoList, error) {
	lists, err := s.ListTodoLists(ctx, &FindTodoList{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, ErrNotFound
	}
	return lists[0], nil
}

func (s *Store) UpdateTodoList(ctx context.Context, update *UpdateTodoList) (*TodoList, error) {
	list, err := s.driver.UpdateTodoList(ctx, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update todo list")
	}
	return list, nil
}

// DeleteTodoList removes a list and its items.
func (s *Store) DeleteTodoList(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.driver.DeleteTodoList(ctx, id)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete todo list")
	}
	return deleted, nil
}

func (s *Store) CreateTodoItem(ctx context.Context, create *TodoItem) (*TodoItem, error) {
	item, err := s.driver.CreateTodoItem(ctx, create)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create todo item")
	}
	return item, nil
}

// ListTodoItems returns items ordered by id.
func (s *Store) ListTodoItems(ctx context.Context, find *FindTodoItem) ([]*TodoItem, error) {
	items, err := s.driver.ListTodoItems(ctx, find)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list todo items")
	}
	return items, nil
}

// UpdateTodoItem updates an item addressed by list and item id.
func (s *Store) UpdateTodoItem(ctx context.Context, update *UpdateTodoItem) (*TodoItem, error) {
	item, err := s.driver.UpdateTodoItem(ctx, update)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to update todo item")
	}
	return item, nil
}

func (s *Store) DeleteTodoItem(ctx context.Context, listID, id int64) (bool, error) {
	deleted, err := s.driver.DeleteTodoItem(ctx, listID, id)
	if err != nil {
		return false, errors.Wrap(err, "failed to delete todo item")
	}
	return deleted, nil
}
