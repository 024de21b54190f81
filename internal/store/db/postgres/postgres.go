// Package postgres implements the store driver on lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/fady17/task/internal/store"
)

// DB is the postgres driver.
type DB struct {
	db *sql.DB
}

func NewDB(dsn string) (store.Driver, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres")
	}
	return &DB{db: db}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_session (
			id         BIGSERIAL PRIMARY KEY,
			user_id    BIGINT NOT NULL,
			title      TEXT   NOT NULL DEFAULT 'New Chat',
			created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_session_user ON chat_session(user_id)`,
		`CREATE TABLE IF NOT EXISTS chat_message (
			id           BIGSERIAL PRIMARY KEY,
			session_id   BIGINT NOT NULL REFERENCES chat_session(id) ON DELETE CASCADE,
			role         TEXT   NOT NULL,
			content      TEXT   NOT NULL DEFAULT '',
			tool_calls   TEXT   NOT NULL DEFAULT '',
			tool_call_id TEXT   NOT NULL DEFAULT '',
			tool_name    TEXT   NOT NULL DEFAULT '',
			created_ts   BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_message_session ON chat_message(session_id, created_ts)`,
		`CREATE TABLE IF NOT EXISTS todo_list (
			id    BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS todo_item (
			id        BIGSERIAL PRIMARY KEY,
			list_id   BIGINT  NOT NULL REFERENCES todo_list(id) ON DELETE CASCADE,
			title     TEXT    NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_todo_item_list ON todo_item(list_id)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
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
