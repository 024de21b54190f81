package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/fady17/task/internal/store"
)

func (d *DB) CreateTodoList(ctx context.Context, create *store.TodoList) (*store.TodoList, error) {
	if err := d.db.QueryRowContext(ctx, `INSERT INTO todo_list (title) VALUES ($1) RETURNING id`, create.Title).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListTodoLists(ctx context.Context, find *store.FindTodoList) ([]*store.TodoList, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
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
	l := &store.TodoList{}
	err := d.db.QueryRowContext(ctx,
		`UPDATE todo_list SET title = $1 WHERE id = $2 RETURNING id, title`, update.Title, update.ID,
	).Scan(&l.ID, &l.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (d *DB) DeleteTodoList(ctx context.Context, id int64) (bool, error) {
	return deleteTx(ctx, d.db,
		[]string{`DELETE FROM todo_item WHERE list_id = $1`, `DELETE FROM todo_list WHERE id = $1`},
		id,
	)
}

func (d *DB) CreateTodoItem(ctx context.Context, create *store.TodoItem) (*store.TodoItem, error) {
	stmt := `INSERT INTO todo_item (list_id, title, completed) VALUES ($1, $2, $3) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.ListID, create.Title, create.Completed).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListTodoItems(ctx context.Context, find *store.FindTodoItem) ([]*store.TodoItem, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ListID; v != nil {
		where, args = append(where, "list_id = "+placeholder(len(args)+1)), append(args, *v)
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
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Completed; v != nil {
		set, args = append(set, "completed = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		items, err := d.ListTodoItems(ctx, &store.FindTodoItem{ID: &update.ID, ListID: &update.ListID})
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, store.ErrNotFound
		}
		return items[0], nil
	}

	args = append(args, update.ID, update.ListID)
	stmt := fmt.Sprintf(
		`UPDATE todo_item SET %s WHERE id = %s AND list_id = %s RETURNING id, list_id, title, completed`,
		strings.Join(set, ", "), placeholder(len(args)-1), placeholder(len(args)),
	)
	i := &store.TodoItem{}
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&i.ID, &i.ListID, &i.Title, &i.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

func (d *DB) DeleteTodoItem(ctx context.Context, listID, id int64) (bool, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM todo_item WHERE id = $1 AND list_id = $2`, id, listID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
