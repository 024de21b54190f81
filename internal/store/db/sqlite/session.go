package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fady17/task/internal/store"
)

func (d *DB) CreateSession(ctx context.Context, create *store.Session) (*store.Session, error) {
	stmt := `INSERT INTO chat_session (user_id, title, created_ts) VALUES (?, ?, ?) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.UserID, create.Title, create.CreatedTs).Scan(&create.ID); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListSessions(ctx context.Context, find *store.FindSession) ([]*store.Session, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = ?"), append(args, *v)
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
	if update.Title != nil {
		result, err := d.db.ExecContext(ctx, `UPDATE chat_session SET title = ? WHERE id = ?`, *update.Title, update.ID)
		if err != nil {
			return nil, err
		}
		if n, err := result.RowsAffected(); err != nil {
			return nil, err
		} else if n == 0 {
			return nil, store.ErrNotFound
		}
	}
	list, err := d.ListSessions(ctx, &store.FindSession{ID: &update.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, store.ErrNotFound
	}
	return list[0], nil
}

func (d *DB) DeleteSession(ctx context.Context, id int64) (bool, error) {
	return deleteTx(ctx, d.db,
		[]string{`DELETE FROM chat_message WHERE session_id = ?`, `DELETE FROM chat_session WHERE id = ?`},
		id,
	)
}

// deleteTx runs child then parent deletes in one transaction and reports
// whether the parent row existed.
func deleteTx(ctx context.Context, db *sql.DB, stmts []string, args ...any) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var result sql.Result
	for _, stmt := range stmts {
		if result, err = tx.ExecContext(ctx, stmt, args...); err != nil {
			return false, err
		}
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}
