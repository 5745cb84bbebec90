package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoredName(t *testing.T) {
	t.Run("keeps extension", func(t *testing.T) {
		name := NewStoredName("report.final.pdf")
		assert.True(t, strings.HasSuffix(name, ".pdf"))
		assert.Len(t, name, 36+len(".pdf"))
	})

	t.Run("no extension", func(t *testing.T) {
		assert.Len(t, NewStoredName("README"), 36)
	})

	t.Run("unsafe extension dropped", func(t *testing.T) {
		name := NewStoredName("evil.p h/p")
		assert.Len(t, name, 36)
	})

	t.Run("path components ignored", func(t *testing.T) {
		name := NewStoredName("../../etc/passwd.txt")
		assert.True(t, strings.HasSuffix(name, ".txt"))
		assert.NotContains(t, name, "/")
	})

	t.Run("unique", func(t *testing.T) {
		assert.NotEqual(t, NewStoredName("a.txt"), NewStoredName("a.txt"))
	})
}

func TestDisk(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "uploads")
	d, err := NewDisk(root)
	require.NoError(t, err)

	t.Run("put then open", func(t *testing.T) {
		obj, err := d.Put(ctx, "a.txt", strings.NewReader("hello"), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, "a.txt", obj.Name)
		assert.Equal(t, int64(5), obj.Size)
		assert.Equal(t, filepath.Join(d.Root(), "a.txt"), obj.Path)

		rc, err := d.Open(ctx, "a.txt")
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))

		size, err := d.Size(ctx, "a.txt")
		require.NoError(t, err)
		assert.Equal(t, int64(5), size)
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := d.Open(ctx, "nope.txt")
		assert.ErrorIs(t, err, ErrObjectNotFound)

		_, err = d.Size(ctx, "nope.txt")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		_, err := d.Put(ctx, "b.txt", strings.NewReader("x"), "")
		require.NoError(t, err)

		require.NoError(t, d.Remove(ctx, "b.txt"))
		require.NoError(t, d.Remove(ctx, "b.txt"))

		_, err = os.Stat(filepath.Join(d.Root(), "b.txt"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := d.Put(ctx, "../escape.txt", strings.NewReader("x"), "")
		assert.ErrorIs(t, err, ErrInvalidName)

		assert.ErrorIs(t, d.Remove(ctx, ""), ErrInvalidName)
	})

	t.Run("cancelled put leaves nothing behind", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := d.Put(cctx, "c.txt", strings.NewReader("data"), "")
		require.ErrorIs(t, err, context.Canceled)

		_, err = d.Size(ctx, "c.txt")
		assert.ErrorIs(t, err, ErrObjectNotFound)

		entries, err := os.ReadDir(d.Root())
		require.NoError(t, err)
		for _, e := range entries {
			assert.False(t, strings.HasPrefix(e.Name(), ".upload-"), "temp file left: %s", e.Name())
		}
	})
}
