package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepare_CopiesLocalDirectory(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "lib"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(src, ".git", "objects"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "index.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "lib", "util.js"), []byte("y"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".git", "HEAD"), []byte("ref"), 0o644))
	require.NoError(t, os.Symlink("index.js", filepath.Join(src, "main.js")))

	ws, err := Prepare(context.Background(), src, Options{BaseDir: t.TempDir()})
	require.NoError(t, err)

	assert.False(t, ws.Remote)
	assert.Equal(t, src, ws.Target)
	assert.NotEqual(t, src, ws.Dir)

	content, err := os.ReadFile(filepath.Join(ws.Dir, "lib", "util.js"))
	require.NoError(t, err)
	assert.Equal(t, "y", string(content))

	info, err := os.Stat(filepath.Join(ws.Dir, "lib", "util.js"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	link, err := os.Readlink(filepath.Join(ws.Dir, "main.js"))
	require.NoError(t, err)
	assert.Equal(t, "index.js", link)

	assert.NoDirExists(t, filepath.Join(ws.Dir, ".git"))
}

func TestPrepare_MissingTarget(t *testing.T) {
	base := t.TempDir()
	_, err := Prepare(context.Background(), filepath.Join(base, "nope"), Options{BaseDir: base})
	require.Error(t, err)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries, "no workspace should be left behind")
}

func TestPrepare_FileTarget(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.js")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := Prepare(context.Background(), file, Options{})
	assert.ErrorContains(t, err, "not a directory")
}

func TestPrepare_CancelledRemovesWorkspace(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.js"), []byte("x"), 0o644))
	base := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Prepare(ctx, src, Options{BaseDir: base})
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
