// Package store persists chat sessions, their messages and the todo lists
// the agent operates on. SQL lives in the dialect drivers under store/db.
package store

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when an update or lookup targets a missing row.
var ErrNotFound = errors.New("not found")

// Driver is implemented by each SQL dialect.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the application tables if they do not exist.
	Migrate(ctx context.Context) error

	CreateSession(ctx context.Context, create *Session) (*Session, error)
	ListSessions(ctx context.Context, find *FindSession) ([]*Session, error)
	UpdateSession(ctx context.Context, update *UpdateSession) (*Session, error)
	DeleteSession(ctx context.Context, id int64) (bool, error)

	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
	CountMessages(ctx context.Context, find *FindMessage) (int, error)

	CreateTodoList(ctx context.Context, create *TodoList) (*TodoList, error)
	ListTodoLists(ctx context.Context, find *FindTodoList) ([]*TodoList, error)
	UpdateTodoList(ctx context.Context, update *UpdateTodoList) (*TodoList, error)
	DeleteTodoList(ctx context.Context, id int64) (bool, error)

	CreateTodoItem(ctx context.Context, create *TodoItem) (*TodoItem, error)
	ListTodoItems(ctx context.Context, find *FindTodoItem) ([]*TodoItem, error)
	UpdateTodoItem(ctx context.Context, update *UpdateTodoItem) (*TodoItem, error)
	DeleteTodoItem(ctx context.Context, listID, id int64) (bool, error)
}

// Store is the entry point for persistence. It is safe for concurrent use;
// the underlying *sql.DB pools connections.
type Store struct {
	driver Driver
}

// New wraps a dialect driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return errors.Wrap(s.driver.Migrate(ctx), "failed to migrate schema")
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.GetDB().PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.driver.Close()
}
