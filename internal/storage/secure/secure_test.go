package secure

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/kotconnect/internal/storage/sqlite"
)

// testParams keeps key derivation fast in tests.
var testParams = Params{Time: 1, Memory: 1024, Threads: 1}

func openBacking(t *testing.T) (*sqlite.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secure.db")
	backing, err := sqlite.New(path)
	require.NoError(t, err)
	return backing, path
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backing, _ := openBacking(t)
	store, err := OpenWithParams(ctx, backing, "hunter2", testParams)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "authToken", "abc"))

	value, ok, err := store.Get(ctx, "authToken")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	raw, ok, err := backing.Get(ctx, "authToken")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "abc", "backing store must not see plaintext")
}

func TestStore_MissingKey(t *testing.T) {
	ctx := context.Background()
	backing, _ := openBacking(t)
	store, err := OpenWithParams(ctx, backing, "hunter2", testParams)
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Get(ctx, "authEmail")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Delete(ctx, "authEmail"))
}

func TestStore_SaltSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	backing, path := openBacking(t)
	store, err := OpenWithParams(ctx, backing, "hunter2", testParams)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "authUsername", "nathan"))
	require.NoError(t, store.Close())

	reopenedBacking, err := sqlite.New(path)
	require.NoError(t, err)
	reopened, err := OpenWithParams(ctx, reopenedBacking, "hunter2", testParams)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get(ctx, "authUsername")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "nathan", value)
}

func TestStore_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	backing, path := openBacking(t)
	store, err := OpenWithParams(ctx, backing, "right", testParams)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "authToken", "abc"))
	require.NoError(t, store.Close())

	reopenedBacking, err := sqlite.New(path)
	require.NoError(t, err)
	wrong, err := OpenWithParams(ctx, reopenedBacking, "wrong", testParams)
	require.NoError(t, err)
	defer wrong.Close()

	_, _, err = wrong.Get(ctx, "authToken")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestStore_ValueBoundToKey(t *testing.T) {
	ctx := context.Background()
	backing, _ := openBacking(t)
	store, err := OpenWithParams(ctx, backing, "hunter2", testParams)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "authToken", "abc"))
	raw, _, err := backing.Get(ctx, "authToken")
	require.NoError(t, err)
	require.NoError(t, backing.Set(ctx, "authEmail", raw))

	_, _, err = store.Get(ctx, "authEmail")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestStore_Guards(t *testing.T) {
	ctx := context.Background()
	backing, _ := openBacking(t)
	defer backing.Close()

	_, err := OpenWithParams(ctx, backing, "", testParams)
	assert.ErrorIs(t, err, ErrEmptyPassphrase)

	store, err := OpenWithParams(ctx, backing, "hunter2", testParams)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Set(ctx, SaltKey, "x"), ErrReservedKey)
	assert.ErrorIs(t, store.Delete(ctx, SaltKey), ErrReservedKey)
	_, _, err = store.Get(ctx, SaltKey)
	assert.ErrorIs(t, err, ErrReservedKey)
}

func TestLoadOrCreateKeyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "store.key")

	first, err := LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	assert.Len(t, first, 64)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second, err := LoadOrCreateKeyFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0600))
	_, err = LoadOrCreateKeyFile(path)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "empty"))
}
