// Package sqlite implements the store driver on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	// Pure Go sqlite, no cgo.
	_ "modernc.org/sqlite"

	"github.com/fady17/task/internal/store"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// DB is the sqlite driver.
type DB struct {
	db *sql.DB
}

// NewDB opens the database file at dsn, creating it if missing. Foreign keys
// and a busy timeout are enabled unless the dsn sets its own pragmas.
func NewDB(dsn string) (store.Driver, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}
	if !strings.Contains(dsn, "_pragma=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + pragmas
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)

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
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			title      TEXT    NOT NULL DEFAULT 'New Chat',
			created_ts BIGINT  NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_session_user ON chat_session(user_id)`,
		`CREATE TABLE IF NOT EXISTS chat_message (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   INTEGER NOT NULL REFERENCES chat_session(id) ON DELETE CASCADE,
			role         TEXT    NOT NULL,
			content      TEXT    NOT NULL DEFAULT '',
			tool_calls   TEXT    NOT NULL DEFAULT '',
			tool_call_id TEXT    NOT NULL DEFAULT '',
			tool_name    TEXT    NOT NULL DEFAULT '',
			created_ts   BIGINT  NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_message_session ON chat_message(session_id, created_ts)`,
		`CREATE TABLE IF NOT EXISTS todo_list (
			id    INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT    NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS todo_item (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			list_id   INTEGER NOT NULL REFERENCES todo_list(id) ON DELETE CASCADE,
			title     TEXT    NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0
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
