package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/fady17/task/internal/store"
)

func (d *DB) CreateSession(ctx context.Context, create *store.Session) (*store.Session, error) {
	stmt := `INSERT INTO chat_session (user_id, title, created_ts) VALUES ($1, $2, $3) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.UserID, create.Title, create.CreatedTs).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, user_id, title, created_ts FROM chat_session WHERE %s ORDER BY created_ts DESC, id DESC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []*store.Session{}
	for rows.Next() {
		s := &store.Session{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedTs); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (d *DB) UpdateSession(ctx context.Context, update *store.UpdateSession) (*store.Session, error) {
	if update.Title == nil {
		list, err := d.ListSessions(ctx, &store.FindSession{ID: &update.ID})
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, store.ErrNotFound
		}
		return list[0], nil
	}

	s := &store.Session{}
	err := d.db.QueryRowContext(ctx,
		`UPDATE chat_session SET title = $1 WHERE id = $2 RETURNING id, user_id, title, created_ts`,
		*update.Title, update.ID,
	).Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedTs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *DB) DeleteSession(ctx context.Context, id int64) (bool, error) {
	return deleteTx(ctx, d.db,
		[]string{`DELETE FROM chat_message WHERE session_id = $1`, `DELETE FROM chat_session WHERE id = $1`},
		id,
	)
}
