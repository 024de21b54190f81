// Package mysql implements the store driver on go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/fady17/task/internal/store"
)

// DB is the mysql driver.
type DB struct {
	db *sql.DB
}

// NewDB opens a pool for dsn. Affected-row counts report matched rows, so an
// update that leaves a row unchanged is not mistaken for a missing row.
func NewDB(dsn string) (store.Driver, error) {
	if dsn == "" {
		return nil, errors.New("dsn required")
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse dsn: %s", dsn)
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connector")
	}
	return &DB{db: sql.OpenDB(connector)}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS `chat_session` (" +
			"`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
			"`user_id` BIGINT NOT NULL," +
			"`title` VARCHAR(256) NOT NULL DEFAULT 'New Chat'," +
			"`created_ts` BIGINT NOT NULL," +
			"INDEX `idx_chat_session_user` (`user_id`))",
		"CREATE TABLE IF NOT EXISTS `chat_message` (" +
			"`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
			"`session_id` BIGINT NOT NULL," +
			"`role` VARCHAR(32) NOT NULL," +
			"`content` MEDIUMTEXT NOT NULL," +
			"`tool_calls` MEDIUMTEXT NOT NULL," +
			"`tool_call_id` VARCHAR(256) NOT NULL DEFAULT ''," +
			"`tool_name` VARCHAR(256) NOT NULL DEFAULT ''," +
			"`created_ts` BIGINT NOT NULL," +
			"INDEX `idx_chat_message_session` (`session_id`, `created_ts`)," +
			"CONSTRAINT `fk_chat_message_session` FOREIGN KEY (`session_id`) REFERENCES `chat_session`(`id`) ON DELETE CASCADE)",
		"CREATE TABLE IF NOT EXISTS `todo_list` (" +
			"`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
			"`title` VARCHAR(512) NOT NULL)",
		"CREATE TABLE IF NOT EXISTS `todo_item` (" +
			"`id` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
			"`list_id` BIGINT NOT NULL," +
			"`title` VARCHAR(512) NOT NULL," +
			"`completed` BOOLEAN NOT NULL DEFAULT FALSE," +
			"INDEX `idx_todo_item_list` (`list_id`)," +
			"CONSTRAINT `fk_todo_item_list` FOREIGN KEY (`list_id`) REFERENCES `todo_list`(`id`) ON DELETE CASCADE)",
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
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
