package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestStorageFS(t *testing.T) {
	ctx := context.Background()
	log := logs.NewTestingLog(t)
	root := filepath.Join(t.TempDir(), "published")
	s, err := Open(ctx, log, "dir:"+root)
	require.NoError(t, err)

	require.NoError(t, WriteFile(ctx, s, "a/b.txt", strings.NewReader("hello")))
	raw, err := ReadFile(ctx, s, "a/b.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(raw))
	require.Equal(t, filepath.Join(root, "a", "b.txt"), s.Location("a/b.txt"))

	_, err = s.WriteFile(ctx, "../escape.txt")
	require.Error(t, err)
	_, err = s.ReadFile(ctx, "")
	require.Error(t, err)

	require.NoError(t, s.DeleteFile(ctx, "a/b.txt"))
	_, err = s.ReadFile(ctx, "a/b.txt")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	log := logs.NewTestingLog(t)
	src := t.TempDir()
	f1 := filepath.Join(src, "20240305_140709.txt")
	f2 := filepath.Join(src, "score.txt")
	require.NoError(t, os.WriteFile(f1, []byte("report"), 0644))
	require.NoError(t, os.WriteFile(f2, []byte("0.5\n"), 0644))

	s, err := NewStorageFS(log, filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	names, err := Publish(ctx, log, s, "20240305_140709", []string{f1, f2})
	require.NoError(t, err)
	require.Equal(t, []string{"20240305_140709/20240305_140709.txt", "20240305_140709/score.txt"}, names)
	raw, err := ReadFile(ctx, s, names[1])
	require.NoError(t, err)
	require.Equal(t, "0.5\n", string(raw))

	_, err = Publish(ctx, log, s, "x", []string{filepath.Join(src, "missing")})
	require.Error(t, err)
}

func TestOpenInvalid(t *testing.T) {
	ctx := context.Background()
	log := logs.NewTestingLog(t)
	_, err := Open(ctx, log, "gs://")
	require.Error(t, err)
	_, err = Open(ctx, log, "dir:")
	require.Error(t, err)
}
