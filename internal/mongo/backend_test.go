package mongo

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func TestAttachRejectsConfig(t *testing.T) {
	tests := []struct {
		name   string
		config types.Config
		want   error
	}{
		{"missing uri", types.Config{Backend: types.BackendMongo}, types.ErrURIEmpty},
		{"sqlite config", types.Config{Backend: types.BackendSQLite}, types.ErrBackendUnknown},
		{"bad policy", types.Config{Backend: types.BackendMongo, URI: "mongodb://localhost", Policy: "x"}, types.ErrInvalidPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, NewBackend().Attach(tt.config), tt.want)
		})
	}
}

func TestGetTableDetached(t *testing.T) {
	b := NewBackend()
	_, err := b.GetTable("notes")
	assert.ErrorIs(t, err, types.ErrDatabaseDetached)
	_, err = b.GetTable("")
	assert.ErrorIs(t, err, types.ErrInvalidTableName)
	assert.NoError(t, b.Detach())
}

// liveTable attaches to the deployment named by LARDER_MONGO_URI and returns
// a fresh collection, dropped when the test ends.
func liveTable(t *testing.T) types.Table {
	t.Helper()
	uri := os.Getenv("LARDER_MONGO_URI")
	if uri == "" {
		t.Skip("LARDER_MONGO_URI not set")
	}
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{
		Backend:  types.BackendMongo,
		URI:      uri,
		Database: "larder_test",
	}))
	name := "t_" + uuid.NewString()
	tbl, err := b.GetTable(name)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tbl.(*Table).coll.Drop(t.Context())
		_ = b.Detach()
	})
	return tbl
}

func TestLiveTableCRUD(t *testing.T) {
	tbl := liveTable(t)
	ctx := t.Context()

	id, err := tbl.Store(ctx, types.NewDocument(
		types.F("name", types.String("oats")),
		types.F("n", types.Uint8(3)),
	))
	require.NoError(t, err)
	assert.Len(t, mustString(t, id), 24)

	got, err := tbl.FindOne(ctx, id)
	require.NoError(t, err)
	n, _ := got.Field("n")
	assert.True(t, types.Int64(3).Equal(n))

	_, err = tbl.Store(ctx, types.NewDocument(types.F("_id", id)))
	assert.ErrorIs(t, err, types.ErrDuplicateID)

	_, err = tbl.Store(ctx, types.NewDocument(
		types.F("_id", types.String("rye")),
		types.F("name", types.String("rye")),
		types.F("n", types.Int(1)),
	))
	require.NoError(t, err)

	docs, err := tbl.Find(ctx, nil, types.Sort{{Field: "n"}})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	first, _ := docs[0].Identifier()
	assert.True(t, types.String("rye").Equal(first))

	count, err := tbl.Update(ctx, types.Query{"name": types.String("rye")}, types.NewDocument(types.F("name", types.String("spelt"))))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	found, err := tbl.FindOneMatching(ctx, types.Query{"name": types.String("spelt")})
	require.NoError(t, err)
	fid, _ := found.Identifier()
	assert.True(t, types.String("rye").Equal(fid))

	require.NoError(t, tbl.UpdateByID(ctx, id, types.NewDocument(types.F("name", types.String("barley")))))
	assert.ErrorIs(t, tbl.UpdateByID(ctx, types.String("none"), types.NewDocument()), types.ErrNotFound)

	require.NoError(t, tbl.Delete(ctx, id))
	assert.ErrorIs(t, tbl.Delete(ctx, id), types.ErrNotFound)
	_, err = tbl.FindOne(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLiveTableRejectsInvalidData(t *testing.T) {
	tbl := liveTable(t)
	doc := types.NewDocument(types.F("ok", types.Bool(true)))
	doc.Set(types.IntKey(1), types.String("int keyed"))
	_, err := tbl.Store(t.Context(), doc)
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func mustString(t *testing.T, v types.Value) string {
	t.Helper()
	s, ok := v.AsString()
	require.True(t, ok)
	return s
}
