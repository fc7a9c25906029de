package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vkrss/db"
)

func testStore(t *testing.T) *db.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "captures.db")
	require.NoError(t, db.Migrate(path))

	store, err := db.NewStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestAccountKey(t *testing.T) {
	key := db.AccountKey("secret-token")

	assert.Len(t, key, 64)
	assert.NotContains(t, key, "secret")
	assert.Equal(t, key, db.AccountKey("secret-token"))
	assert.NotEqual(t, key, db.AccountKey("other-token"))
}

func TestStoreRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	account := db.AccountKey("token")

	_, err := store.Load(ctx, account)
	assert.ErrorIs(t, err, db.ErrNoCapture)

	require.NoError(t, store.Save(ctx, account, []byte(`{"items": []}`)))

	loaded, err := store.Load(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, `{"items": []}`, string(loaded))
}

func TestStoreLoadsNewestCapture(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	account := db.AccountKey("token")

	require.NoError(t, store.Save(ctx, account, []byte(`{"version": 1}`)))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.Save(ctx, account, []byte(`{"version": 2}`)))

	loaded, err := store.Load(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, `{"version": 2}`, string(loaded))
}

func TestStoreKeepsAccountsApart(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, db.AccountKey("one"), []byte(`{"account": 1}`)))

	_, err := store.Load(ctx, db.AccountKey("two"))
	assert.ErrorIs(t, err, db.ErrNoCapture)
}
