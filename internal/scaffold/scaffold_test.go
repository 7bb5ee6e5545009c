package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumiralabs/berry/internal/filetree"
)

func TestLoadSkipsVendoredDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "app"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "next"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app", "page.tsx"), []byte("home"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref"), 0o644))

	tree, err := Load(dir)
	require.NoError(t, err)

	files := tree.Files()
	assert.Equal(t, "{}", files["package.json"])
	assert.Equal(t, "home", files["app/page.tsx"])
	_, hasGit := tree.Lookup(".git")
	assert.False(t, hasGit)
	_, hasModules := tree.Lookup("node_modules")
	assert.False(t, hasModules)
}

func TestWriteThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	tree := filetree.NewDir()
	require.NoError(t, tree.Insert("package.json", filetree.NewFile("{}")))
	require.NoError(t, tree.Insert("lib/types.ts", filetree.NewFile("export type A = {}")))

	dir := t.TempDir()
	require.NoError(t, Write(tree, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, tree.Files(), loaded.Files())
}

func TestWritePreservesUnrelatedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.txt"), []byte("keep me"), 0o644))

	tree := filetree.NewDir()
	require.NoError(t, tree.Insert("new.txt", filetree.NewFile("added")))
	require.NoError(t, Write(tree, dir))

	data, err := os.ReadFile(filepath.Join(dir, "existing.txt"))
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}
