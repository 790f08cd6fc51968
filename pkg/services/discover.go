package services

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
)

// ChapterFile is one candidate chapter found under the source root, laid
// out as <root>/<a>/<b>/<series folder>/<chapter entry>.
type ChapterFile struct {
	SourcePath      string
	SeriesFolder    string
	ChapterFileName string
}

// Discover lists chapter entries four levels below root in a stable order.
// Entries can be folders of pages or single files. Folder names are HTML
// unescaped since some downloaders store "&amp;" literally.
func Discover(root string) ([]ChapterFile, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("source directory unavailable: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(root, "*", "*", "*", "*"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(matches)

	files := make([]ChapterFile, 0, len(matches))
	for _, path := range matches {
		files = append(files, ChapterFile{
			SourcePath:      path,
			SeriesFolder:    html.UnescapeString(filepath.Base(filepath.Dir(path))),
			ChapterFileName: html.UnescapeString(filepath.Base(path)),
		})
	}
	return files, nil
}
