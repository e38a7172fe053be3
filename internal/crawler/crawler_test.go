package crawler

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/StarCycle/GraphExtract/internal/extractor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sampleTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "util.c"), "int add(int a, int b) { return a + b; }\n")
	writeFile(t, filepath.Join(root, "src", "shape.cpp"), "namespace geo { int area(int w) { return w; } }\n")
	writeFile(t, filepath.Join(root, "include", "util.h"), "int add(int a, int b);\n")
	writeFile(t, filepath.Join(root, "README.md"), "# not code\n")
	writeFile(t, filepath.Join(root, ".git", "hooks", "skip.c"), "int hidden;\n")
	writeFile(t, filepath.Join(root, "build", "gen.c"), "int generated;\n")
	return root
}

func TestCrawler_ScanProject(t *testing.T) {
	root := sampleTree(t)
	c := NewCrawler(quietLogger(), nil)

	var files []string
	byFile := map[string][]*extractor.Token{}
	err := c.ScanProject(context.Background(), root, func(path string, tokens []*extractor.Token) {
		rel, _ := filepath.Rel(root, path)
		files = append(files, filepath.ToSlash(rel))
		byFile[filepath.ToSlash(rel)] = tokens
	})
	require.NoError(t, err)

	sort.Strings(files)
	assert.Equal(t, []string{"include/util.h", "src/shape.cpp", "src/util.c"}, files)
	assert.NotEmpty(t, byFile["src/util.c"])
	assert.Equal(t, "cpp", byFile["src/shape.cpp"][0].Language)
}

func TestCrawler_Extensions(t *testing.T) {
	root := sampleTree(t)
	c := NewCrawler(quietLogger(), []string{"cpp"})

	var files []string
	require.NoError(t, c.ScanProject(context.Background(), root, func(path string, _ []*extractor.Token) {
		files = append(files, filepath.Base(path))
	}))
	assert.Equal(t, []string{"shape.cpp"}, files)
}

func TestCrawler_Vocabulary(t *testing.T) {
	root := sampleTree(t)
	words, err := NewCrawler(quietLogger(), nil).Vocabulary(context.Background(), root)
	require.NoError(t, err)

	for _, w := range []string{"add", "a", "b", "geo", "area", "w", "util", "shape"} {
		assert.Contains(t, words, w)
	}
	assert.NotContains(t, words, "hidden")
	assert.NotContains(t, words, "generated")
	assert.True(t, sort.StringsAreSorted(words))
}

func TestCrawler_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCrawler(quietLogger(), nil).Vocabulary(ctx, sampleTree(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCrawler_MissingRoot(t *testing.T) {
	_, err := NewCrawler(quietLogger(), nil).Vocabulary(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
