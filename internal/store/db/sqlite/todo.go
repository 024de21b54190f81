package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/fady17/task/internal/store"
)

func (d *DB) CreateTodoList(ctx context.Context, create *store.TodoList) (*store.TodoList, error) {
	if err := d.db.QueryRowContext(ctx, `INSERT INTO todo_list (title) VALUES (?) RETURNING id`, create.Title).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListTodoLists(ctx context.Context, find *store.FindTodoList) ([]*store.TodoList, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	rows, err := d.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, title FROM todo_list WHERE %s ORDER BY id ASC`, strings.Join(where, " AND ")),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lists := []*store.TodoList{}
	for rows.Next() {
		l := &store.TodoList{}
		if err := rows.Scan(&l.ID, &l.Title); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func (d *DB) UpdateTodoList(ctx context.Context, update *store.UpdateTodoList) (*store.TodoList, error) {
	result, err := d.db.ExecContext(ctx, `UPDATE todo_list SET title = ? WHERE id = ?`, update.Title, update.ID)
	if err != nil {
		return nil, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return &store.TodoList{ID: update.ID, Title: update.Title}, nil
}

func (d *DB) DeleteTodoList(ctx context.Context, id int64) (bool, error) {
	return deleteTx(ctx, d.db,
		[]string{`DELETE FROM todo_item WHERE list_id = ?`, `DELETE FROM todo_list WHERE id = ?`},
		id,
	)
}

func (d *DB) CreateTodoItem(ctx context.Context, create *store.TodoItem) (*store.TodoItem, error) {
	stmt := `INSERT INTO todo_item (list_id, title, completed) VALUES (?, ?, ?) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.ListID, create.Title, create.Completed).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListTodoItems(ctx context.Context, find *store.FindTodoItem) ([]*store.TodoItem, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.ListID; v != nil {
		where, args = append(where, "list_id = ?"), append(args, *v)
	}
	rows, err := d.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, list_id, title, completed FROM todo_item WHERE %s ORDER BY id ASC`, strings.Join(where, " AND ")),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*store.TodoItem{}
	for rows.Next() {
		i := &store.TodoItem{}
		if err := rows.Scan(&i.ID, &i.ListID, &i.Title, &i.Completed); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (d *DB) UpdateTodoItem(ctx context.Context, update *store.UpdateTodoItem) (*store.TodoItem, error) {
	set, args := []string{}, []any{}
	if v := update.Title; v != nil {
		set, args = append(set, "title = ?"), append(args, *v)
	}
	if v := update.Completed; v != nil {
		set, args = append(set, "completed = ?"), append(args, *v)
	}
	if len(set) > 0 {
		args = append(args, update.ID, update.ListID)
		stmt := fmt.Sprintf(`UPDATE todo_item SET %s WHERE id = ? AND list_id = ?`, strings.Join(set, ", "))
		result, err := d.db.ExecContext(ctx, stmt, args...)
		if err != nil {
			return nil, err
		}
		if n, err := result.RowsAffected(); err != nil {
			return nil, err
		} else if n == 0 {
			return nil, store.ErrNotFound
		}
	}
	items, err := d.ListTodoItems(ctx, &store.FindTodoItem{ID: &update.ID, ListID: &update.ListID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, store.ErrNotFound
	}
	return items[0], nil
}

func (d *DB) DeleteTodoItem(ctx context.Context, listID, id int64) (bool, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM todo_item WHERE id = ? AND list_id = ?`, id, listID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
