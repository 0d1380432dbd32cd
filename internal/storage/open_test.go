package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conti/internal/core"
	"conti/internal/storage/memory"
)

func TestOpenSQLiteIsReadyForQueries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "conti.db")

	store, err := Open(ctx, Options{Backend: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Ping(ctx))
	got, err := store.List(ctx, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), Options{Backend: "memory"})
	require.NoError(t, err)
	_, ok := store.(*memory.Store)
	assert.True(t, ok, "got %T", store)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "sheets"})
	assert.ErrorContains(t, err, "unsupported storage backend: sheets")
}
