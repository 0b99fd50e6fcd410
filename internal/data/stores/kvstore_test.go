package stores

import (
	"context"
	"testing"
	"time"

	"github.com/colonyops/margin/internal/core/kv"
	"github.com/colonyops/margin/internal/data/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func newTestKVStore(t *testing.T) *KVStore {
	t.Helper()
	return NewKVStore(openTestDB(t))
}

func TestKVStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	type author struct {
		Avatar string `json:"avatar"`
		Color  string `json:"color"`
	}

	err := store.Set(ctx, "authors:ann", author{Avatar: "a.png", Color: "#ff0000"})
	require.NoError(t, err)

	var got author
	require.NoError(t, store.Get(ctx, "authors:ann", &got))
	assert.Equal(t, "a.png", got.Avatar)
	assert.Equal(t, "#ff0000", got.Color)
}

func TestKVStore_GetNotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	var v string
	err := store.Get(ctx, "nonexistent", &v)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestKVStore_SetOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "key", "first"))
	require.NoError(t, store.Set(ctx, "key", "second"))

	var got string
	require.NoError(t, store.Get(ctx, "key", &got))
	assert.Equal(t, "second", got)
}

func TestKVStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "key", "v"))
	require.NoError(t, store.Delete(ctx, "key"))

	var got string
	assert.ErrorIs(t, store.Get(ctx, "key", &got), kv.ErrNotFound)
}

func TestKVStore_KeysByPrefix(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.Set(ctx, "authors:bob", 1))
	require.NoError(t, store.Set(ctx, "authors:ann", 2))
	require.NoError(t, store.Set(ctx, "prefs:doc", 3))
	require.NoError(t, store.Set(ctx, "authors_x", 4))

	keys, err := store.Keys(ctx, "authors:")
	require.NoError(t, err)
	assert.Equal(t, []string{"authors:ann", "authors:bob"}, keys)

	all, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestKVStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.SetTTL(ctx, "temp", "gone", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	assert.ErrorIs(t, store.Get(ctx, "temp", &got), kv.ErrNotFound)

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKVStore_SweepExpired(t *testing.T) {
	ctx := context.Background()
	store := newTestKVStore(t)

	require.NoError(t, store.SetTTL(ctx, "expired", "x", time.Millisecond))
	require.NoError(t, store.Set(ctx, "kept", "y"))
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, store.SweepExpired(ctx))

	var count int
	err := store.db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
