package filetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndLookup(t *testing.T) {
	t.Parallel()

	root := NewDir()
	require.NoError(t, root.Insert("lib/types.ts", NewFile("export type A = {}")))
	require.NoError(t, root.Insert("components/Button.tsx", NewFile("button")))

	node, ok := root.Lookup("lib/types.ts")
	require.True(t, ok)
	assert.Equal(t, KindFile, node.Kind)
	assert.Equal(t, "export type A = {}", node.Content)

	dir, ok := root.Lookup("components")
	require.True(t, ok)
	assert.True(t, dir.IsDir())

	_, ok = root.Lookup("components/Missing.tsx")
	assert.False(t, ok)
}

func TestInsertCollision(t *testing.T) {
	t.Parallel()

	root := NewDir()
	require.NoError(t, root.Insert("a/b.ts", NewFile("one")))

	err := root.Insert("a/b.ts", NewFile("two"))
	require.Error(t, err)

	// A file cannot become an intermediate directory.
	err = root.Insert("a/b.ts/c.ts", NewFile("three"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestWriteFileReplacesWholeContent(t *testing.T) {
	t.Parallel()

	root := NewDir()
	require.NoError(t, root.WriteFile("app/page.tsx", "v1"))
	require.NoError(t, root.WriteFile("app/page.tsx", "v2"))

	node, ok := root.Lookup("app/page.tsx")
	require.True(t, ok)
	assert.Equal(t, "v2", node.Content)

	require.Error(t, root.WriteFile("app", "not a file"))
}

func TestWalkOrderIsLexical(t *testing.T) {
	t.Parallel()

	root := NewDir()
	require.NoError(t, root.Insert("b.ts", NewFile("")))
	require.NoError(t, root.Insert("a/z.ts", NewFile("")))
	require.NoError(t, root.Insert("a/a.ts", NewFile("")))

	var visited []string
	require.NoError(t, root.Walk(func(path string, _ *Node) error {
		visited = append(visited, path)
		return nil
	}))

	assert.Equal(t, []string{"a", "a/a.ts", "a/z.ts", "b.ts"}, visited)
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	root := NewDir()
	require.NoError(t, root.Insert("a/b.ts", NewFile("original")))

	copied := root.Clone()
	require.NoError(t, copied.WriteFile("a/b.ts", "changed"))

	node, ok := root.Lookup("a/b.ts")
	require.True(t, ok)
	assert.Equal(t, "original", node.Content)
}
