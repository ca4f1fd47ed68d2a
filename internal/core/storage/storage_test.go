package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	dir := t.TempDir()

	files, err := Open(Options{Backend: BackendFile, Dir: filepath.Join(dir, "saves")})
	require.NoError(t, err)
	db, err := Open(Options{Backend: BackendSQLite, Path: filepath.Join(dir, "worlds.db")})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = files.Close()
		_ = db.Close()
	})
	return map[string]Storage{"file": files, "sqlite": db}
}

func TestStorageContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Read(ctx, "world_P1A-111")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Write(ctx, "world_P1A-111", []byte("first")))
			require.NoError(t, s.Write(ctx, "world_P1A-111", []byte("second")))
			require.NoError(t, s.Write(ctx, "world_P8X-873", []byte{0, 1, 2}))
			require.NoError(t, s.Write(ctx, "other", []byte("x")))

			got, err := s.Read(ctx, "world_P1A-111")
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), got)

			keys, err := s.Keys(ctx, "world_")
			require.NoError(t, err)
			assert.Equal(t, []string{"world_P1A-111", "world_P8X-873"}, keys)

			require.NoError(t, s.Delete(ctx, "world_P1A-111"))
			assert.ErrorIs(t, s.Delete(ctx, "world_P1A-111"), ErrNotFound)

			keys, err = s.Keys(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"other", "world_P8X-873"}, keys)
		})
	}
}

func TestStorageRejectsUnsafeKeys(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "..", "../escape", "a/b", "sp ace"} {
				assert.ErrorIs(t, s.Write(ctx, key, []byte("x")), ErrInvalidKey, key)
			}
		})
	}
}

func TestFileStorageLeavesNoTemporaries(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "world_P1A-111", []byte("data")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "world_P1A-111.dat", entries[0].Name())
}

func TestSQLiteStoragePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worlds.db")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(ctx, "world_P8X-873", []byte("abydos")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Read(ctx, "world_P8X-873")
	require.NoError(t, err)
	assert.Equal(t, []byte("abydos"), got)
}

func TestOpenValidatesOptions(t *testing.T) {
	_, err := Open(Options{Backend: "s3"})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = Open(Options{Backend: BackendFile})
	assert.Error(t, err)

	_, err = Open(Options{Backend: BackendSQLite})
	assert.Error(t, err)
}

func TestContextCancellation(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Write(ctx, "world_P1A-111", nil), context.Canceled)
}
