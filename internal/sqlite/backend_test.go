package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func attach(t *testing.T, dir string, sc types.SQLiteConfig) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend:      types.BackendSQLite,
		DataDir:      dir,
		SQLiteConfig: sc,
	}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func openTable(t *testing.T, b *Backend, name string) types.Table {
	t.Helper()
	tbl, err := b.GetTable(name)
	require.NoError(t, err)
	return tbl
}

func TestBackendAttach(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir, types.SQLiteConfig{})

	_, err := os.Stat(filepath.Join(dir, dbFile))
	require.NoError(t, err, "database file should exist")
	assert.Equal(t, types.SyncImmediate, b.syncStrategy)

	err = b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackendAttachRejectsConfig(t *testing.T) {
	tests := []struct {
		name   string
		config types.Config
		want   error
	}{
		{"empty backend", types.Config{}, types.ErrBackendEmpty},
		{"mongo config", types.Config{Backend: types.BackendMongo, URI: "mongodb://localhost"}, types.ErrBackendUnknown},
		{"bad policy", types.Config{Backend: types.BackendSQLite, Policy: "loose"}, types.ErrInvalidPolicy},
		{"bad strategy", types.Config{
			Backend:      types.BackendSQLite,
			SQLiteConfig: types.SQLiteConfig{SyncStrategy: "sometimes"},
		}, types.ErrSyncStrategyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.DataDir = t.TempDir()
			b := NewBackend()
			assert.ErrorIs(t, b.Attach(tt.config), tt.want)
		})
	}
}

func TestBackendDetach(t *testing.T) {
	b := attach(t, t.TempDir(), types.SQLiteConfig{})
	tbl := openTable(t, b, "notes")

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "Detach should be idempotent")

	_, err := b.GetTable("notes")
	assert.ErrorIs(t, err, types.ErrDatabaseDetached)

	_, err = tbl.FindOne(t.Context(), types.String("x"))
	assert.ErrorIs(t, err, types.ErrDatabaseDetached)
}

func TestBackendGetTable(t *testing.T) {
	b := attach(t, t.TempDir(), types.SQLiteConfig{})

	first := openTable(t, b, "notes")
	second := openTable(t, b, "notes")
	assert.Same(t, first, second)

	for _, name := range []string{"", "../etc", "a/b", ".hidden", "with space"} {
		_, err := b.GetTable(name)
		assert.ErrorIs(t, err, types.ErrInvalidTableName, "name %q", name)
	}
}

func TestGetTableBeforeAttach(t *testing.T) {
	_, err := NewBackend().GetTable("notes")
	assert.ErrorIs(t, err, types.ErrDatabaseDetached)
}

func TestSyncImmediateWritesOnEveryChange(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir, types.SQLiteConfig{})
	tbl := openTable(t, b, "notes")

	id, err := tbl.Store(t.Context(), types.NewDocument(types.F("n", types.Int64(1))))
	require.NoError(t, err)

	lines, err := readJSONL(collectionPath(dir, "notes"))
	require.NoError(t, err)
	assert.Len(t, lines, 1)
	assert.Zero(t, b.pendingCount())

	require.NoError(t, tbl.Delete(t.Context(), id))
	_, err = os.Stat(collectionPath(dir, "notes"))
	assert.True(t, os.IsNotExist(err), "empty collection should remove its file")
}

func TestSyncOnCloseDefersWrites(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir, types.SQLiteConfig{SyncStrategy: types.SyncOnClose})
	tbl := openTable(t, b, "notes")

	for i := range 3 {
		_, err := tbl.Store(t.Context(), types.NewDocument(types.F("n", types.Int(i))))
		require.NoError(t, err)
	}

	path := collectionPath(dir, "notes")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file should not be written before Detach")
	assert.Equal(t, 3, b.pendingCount())

	require.NoError(t, b.Detach())

	lines, err := readJSONL(path)
	require.NoError(t, err)
	assert.Len(t, lines, 3)
}

func TestSyncBatchFlushesAtThreshold(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir, types.SQLiteConfig{
		SyncStrategy:  types.SyncBatch,
		BatchSize:     3,
		BatchInterval: 60,
	})
	tbl := openTable(t, b, "notes")
	path := collectionPath(dir, "notes")

	for i := range 2 {
		_, err := tbl.Store(t.Context(), types.NewDocument(types.F("n", types.Int(i))))
		require.NoError(t, err)
	}
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "below threshold nothing is written")

	_, err = tbl.Store(t.Context(), types.NewDocument(types.F("n", types.Int(2))))
	require.NoError(t, err)

	lines, err := readJSONL(path)
	require.NoError(t, err)
	assert.Len(t, lines, 3)
	assert.Zero(t, b.pendingCount())
}

func TestSyncBatchFlushesOnDetach(t *testing.T) {
	dir := t.TempDir()
	b := attach(t, dir, types.SQLiteConfig{
		SyncStrategy:  types.SyncBatch,
		BatchSize:     100,
		BatchInterval: 60,
	})
	tbl := openTable(t, b, "notes")

	_, err := tbl.Store(t.Context(), types.NewDocument(types.F("n", types.Int(1))))
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	lines, err := readJSONL(collectionPath(dir, "notes"))
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}
