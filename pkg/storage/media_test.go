package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaStoreSaveStream(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), "/media")
	require.NoError(t, err)

	ref, err := store.SaveStream("avatars", "photo.PNG", strings.NewReader("image-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/media/avatars/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	rel := strings.TrimPrefix(ref, "/media/")
	content, err := os.ReadFile(filepath.Join(store.Dir(), filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(content))
}

func TestMediaStoreDelete(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), "/media")
	require.NoError(t, err)

	ref, err := store.SaveStream("outlines", "cover.jpg", strings.NewReader("cover"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(ref))

	rel := strings.TrimPrefix(ref, "/media/")
	_, err = os.Stat(filepath.Join(store.Dir(), filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))
}

func TestMediaStoreDeleteForeignRef(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), "/media")
	require.NoError(t, err)

	// References outside the store are left alone.
	assert.NoError(t, store.Delete("https://elsewhere.example/file.png"))
	assert.NoError(t, store.Delete("/media/missing/file.png"))
}
