package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func names(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestWalker_IncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "a")
	writeFile(t, root, "docs/guide.md", "b")
	writeFile(t, root, "docs/image.png", "c")
	writeFile(t, root, ".git/HEAD.txt", "d")
	writeFile(t, root, "node_modules/pkg/readme.md", "e")

	w := NewWalker(
		[]string{"**/*.txt", "**/*.md"},
		[]string{"**/.git/**", "**/node_modules/**"},
	)

	files, err := w.Walk(root)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"notes.txt", "docs/guide.md"}, names(files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.Path))
	}
}

func TestWalker_DefaultIncludesEverything(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.bin", "x")
	writeFile(t, root, "sub/b.txt", "y")

	files, err := NewWalker(nil, nil).Walk(root)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a.bin", "sub/b.txt"}, names(files))
}

func TestWalker_Collect(t *testing.T) {
	root := t.TempDir()
	explicit := writeFile(t, root, "single/data.csv", "id,name")
	writeFile(t, root, "corpus/b.txt", "b")
	writeFile(t, root, "corpus/a.txt", "a")
	writeFile(t, root, "corpus/skip.csv", "c")

	w := NewWalker([]string{"**/*.txt"}, nil)

	files, err := w.Collect([]string{explicit, filepath.Join(root, "corpus"), explicit})
	require.NoError(t, err)

	assert.Equal(t, []string{"data.csv", "a.txt", "b.txt"}, names(files))
}

func TestWalker_CollectMissingPath(t *testing.T) {
	w := NewWalker(nil, nil)

	_, err := w.Collect([]string{filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "x.txt", "hello")

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}
