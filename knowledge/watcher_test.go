package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsDocumentWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(nil, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	path := filepath.Join(dir, "new.md")
	require.NoError(t, os.WriteFile(path, []byte("# New\n\ncontent"), 0o644))

	select {
	case got := <-changes:
		assert.Equal(t, path, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcher_IgnoresOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher([]string{".md"}, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.md"), []byte("y"), 0o644))

	select {
	case got := <-changes:
		assert.Equal(t, filepath.Join(dir, "real.md"), got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}
