package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fady17/task/internal/store"
	"github.com/fady17/task/internal/store/db"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	driver, err := db.NewDBDriver("sqlite", filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)

	s := store.New(driver)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}
