package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/fady17/task/internal/store"
)

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	stmt := "INSERT INTO `chat_message` (`session_id`, `role`, `content`, `tool_calls`, `tool_call_id`, `tool_name`, `created_ts`) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?)"
	result, err := d.db.ExecContext(ctx, stmt,
		create.SessionID, create.Role, create.Content, create.ToolCalls, create.ToolCallID, create.ToolName, create.CreatedTs,
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	create.ID = id
	return create, nil
}

func messageFilter(find *store.FindMessage) (string, []any) {
	where, args := []string{"`session_id` = ?"}, []any{find.SessionID}
	if v := find.Role; v != nil {
		where, args = append(where, "`role` = ?"), append(args, *v)
	}
	return strings.Join(where, " AND "), args
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := messageFilter(find)
	query := fmt.Sprintf(
		"SELECT `id`, `session_id`, `role`, `content`, `tool_calls`, `tool_call_id`, `tool_name`, `created_ts` "+
			"FROM `chat_message` WHERE %s ORDER BY `created_ts` ASC, `id` ASC", where)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*store.Message{}
	for rows.Next() {
		m := &store.Message{}
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.ToolCalls, &m.ToolCallID, &m.ToolName, &m.CreatedTs); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func (d *DB) CountMessages(ctx context.Context, find *store.FindMessage) (int, error) {
	where, args := messageFilter(find)
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM `chat_message` WHERE "+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
