package kvstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-zklogin/kvstore"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("values survive reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "store.json")
		s, err := kvstore.NewFileStore(path)
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "session", `{"address":"0x1"}`, 0))

		reopened, err := kvstore.NewFileStore(path)
		require.NoError(t, err)
		v, err := reopened.Get(ctx, "session")
		require.NoError(t, err)
		require.Equal(t, `{"address":"0x1"}`, v)

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("delete persists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.json")
		s, err := kvstore.NewFileStore(path)
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "k", "v", 0))
		require.NoError(t, s.Delete(ctx, "k"))

		reopened, err := kvstore.NewFileStore(path)
		require.NoError(t, err)
		_, err = reopened.Get(ctx, "k")
		require.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("expired values are not returned", func(t *testing.T) {
		s, err := kvstore.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
		require.NoError(t, err)
		require.NoError(t, s.Set(ctx, "k", "v", time.Nanosecond))
		time.Sleep(time.Millisecond)
		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, kvstore.ErrNotFound)
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
		_, err := kvstore.NewFileStore(path)
		require.Error(t, err)
	})
}
