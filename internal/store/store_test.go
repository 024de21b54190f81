package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fady17/task/internal/store"
	"github.com/fady17/task/internal/store/db"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	driver, err := db.NewDBDriver("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	s := store.New(driver)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func role(r string) *string { return &r }

func TestCreateSessionDefaultsTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session, err := s.CreateSession(ctx, &store.Session{UserID: 1})
	require.NoError(t, err)
	assert.NotZero(t, session.ID)
	assert.Equal(t, store.DefaultSessionTitle, session.Title)
	assert.NotZero(t, session.CreatedTs)
}

func TestListSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	older, err := s.CreateSession(ctx, &store.Session{UserID: 1, Title: "older", CreatedTs: 100})
	require.NoError(t, err)
	newer, err := s.CreateSession(ctx, &store.Session{UserID: 1, Title: "newer", CreatedTs: 200})
	require.NoError(t, err)
	_, err = s.CreateSession(ctx, &store.Session{UserID: 2, Title: "other user"})
	require.NoError(t, err)

	userID := int64(1)
	list, err := s.ListSessions(ctx, &store.FindSession{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
}

func TestListMessagesOldestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session, err := s.CreateSession(ctx, &store.Session{UserID: 1})
	require.NoError(t, err)

	// Same second: insertion order wins.
	for _, content := range []string{"first", "second", "third"} {
		_, err := s.CreateMessage(ctx, &store.Message{SessionID: session.ID, Role: "user", Content: content, CreatedTs: 500})
		require.NoError(t, err)
	}
	_, err = s.CreateMessage(ctx, &store.Message{SessionID: session.ID, Role: "assistant", Content: "zeroth", CreatedTs: 400})
	require.NoError(t, err)

	list, err := s.ListMessages(ctx, &store.FindMessage{SessionID: session.ID})
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, []string{"zeroth", "first", "second", "third"}, []string{list[0].Content, list[1].Content, list[2].Content, list[3].Content})
}

func TestCountMessagesByRole(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session, err := s.CreateSession(ctx, &store.Session{UserID: 1})
	require.NoError(t, err)

	n, err := s.CountMessages(ctx, &store.FindMessage{SessionID: session.ID, Role: role("user")})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for _, r := range []string{"user", "assistant", "tool", "user"} {
		_, err := s.CreateMessage(ctx, &store.Message{SessionID: session.ID, Role: r, Content: "x"})
		require.NoError(t, err)
	}

	n, err = s.CountMessages(ctx, &store.FindMessage{SessionID: session.ID, Role: role("user")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountMessages(ctx, &store.FindMessage{SessionID: session.ID})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestUpdateSessionTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session, err := s.CreateSession(ctx, &store.Session{UserID: 1})
	require.NoError(t, err)

	title := "Grocery Shopping"
	updated, err := s.UpdateSession(ctx, &store.UpdateSession{ID: session.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	_, err = s.UpdateSession(ctx, &store.UpdateSession{ID: 9999, Title: &title})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteSessionCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session, err := s.CreateSession(ctx, &store.Session{UserID: 1})
	require.NoError(t, err)
	for _, r := range []string{"user", "assistant"} {
		_, err := s.CreateMessage(ctx, &store.Message{SessionID: session.ID, Role: r, Content: "x"})
		require.NoError(t, err)
	}

	deleted, err := s.DeleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	list, err := s.ListMessages(ctx, &store.FindMessage{SessionID: session.ID})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err = s.DeleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTodoListAndItems(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	list, err := s.CreateTodoList(ctx, &store.TodoList{Title: "Groceries"})
	require.NoError(t, err)

	milk, err := s.CreateTodoItem(ctx, &store.TodoItem{ListID: list.ID, Title: "milk"})
	require.NoError(t, err)
	_, err = s.CreateTodoItem(ctx, &store.TodoItem{ListID: list.ID, Title: "eggs"})
	require.NoError(t, err)

	done := true
	updated, err := s.UpdateTodoItem(ctx, &store.UpdateTodoItem{ID: milk.ID, ListID: list.ID, Completed: &done})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "milk", updated.Title)

	// Same value again still counts as found.
	_, err = s.UpdateTodoItem(ctx, &store.UpdateTodoItem{ID: milk.ID, ListID: list.ID, Completed: &done})
	require.NoError(t, err)

	// Items are addressed by list and item id together.
	_, err = s.UpdateTodoItem(ctx, &store.UpdateTodoItem{ID: milk.ID, ListID: list.ID + 1, Completed: &done})
	assert.ErrorIs(t, err, store.ErrNotFound)

	renamed, err := s.UpdateTodoList(ctx, &store.UpdateTodoList{ID: list.ID, Title: "Weekly Groceries"})
	require.NoError(t, err)
	assert.Equal(t, "Weekly Groceries", renamed.Title)

	deleted, err := s.DeleteTodoList(ctx, list.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	items, err := s.ListTodoItems(ctx, &store.FindTodoItem{ListID: &list.ID})
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = s.GetTodoList(ctx, list.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
