package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixshare/imageserve/internal/config"
)

func newTestLocalStore(t *testing.T) (string, *config.StorageConfig) {
	t.Helper()
	dir := t.TempDir()
	return dir, &config.StorageConfig{
		Type:         "local",
		LocalPath:    dir,
		OriginalsDir: "originals",
	}
}

func TestLocalStoreGet(t *testing.T) {
	dir, cfg := newTestLocalStore(t)

	store, err := NewLocalStore(cfg)
	require.NoError(t, err)

	path := filepath.Join(dir, "originals", "img-1")
	require.NoError(t, os.WriteFile(path, []byte("image bytes"), 0644))

	data, err := store.Get(context.Background(), "img-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), data)
}

func TestLocalStoreMissing(t *testing.T) {
	_, cfg := newTestLocalStore(t)

	store, err := NewLocalStore(cfg)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	_, cfg := newTestLocalStore(t)

	store, err := NewLocalStore(cfg)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "../secrets")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStoreRequiresPath(t *testing.T) {
	_, err := NewLocalStore(&config.StorageConfig{Type: "local"})
	assert.Error(t, err)
}

func TestFactorySelectsBackend(t *testing.T) {
	_, cfg := newTestLocalStore(t)

	store, err := New(cfg)
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = New(&config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
