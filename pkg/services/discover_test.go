package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChapter(t *testing.T, root, series, name string) string {
	t.Helper()
	dir := filepath.Join(root, "lib", "manga", series, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001.jpg"), []byte("page"), 0o644))
	return dir
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	b := makeChapter(t, root, "Tom &amp; Jerry", "Tom &amp; Jerry v02")
	a := makeChapter(t, root, "Berserk", "Berserk v01")
	// too shallow to be a chapter
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib", "loose"), 0o755))

	files, err := Discover(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, a, files[0].SourcePath)
	assert.Equal(t, "Berserk", files[0].SeriesFolder)
	assert.Equal(t, "Berserk v01", files[0].ChapterFileName)

	assert.Equal(t, b, files[1].SourcePath)
	assert.Equal(t, "Tom & Jerry", files[1].SeriesFolder)
	assert.Equal(t, "Tom & Jerry v02", files[1].ChapterFileName)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
