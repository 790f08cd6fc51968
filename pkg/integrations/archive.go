package integrations

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	FormatCBZ  = "cbz"
	FormatEPUB = "epub"

	LayoutMirror  = "mirror"
	LayoutTracker = "tracker"
)

// Archiver packs one chapter source, a folder of pages or a single file,
// into a reader archive at archivePath. info may be nil.
type Archiver interface {
	Extension() string
	Archive(sourcePath, archivePath string, info *ComicInfo) error
}

// NewArchiver returns the archiver for an archive.format value.
func NewArchiver(format string) (Archiver, error) {
	switch format {
	case "", FormatCBZ:
		return NewCBZArchiver(), nil
	case FormatEPUB:
		return NewEPubArchiver(), nil
	default:
		return nil, fmt.Errorf("unknown archive format %q", format)
	}
}

// MirrorPath maps sourcePath under sourceRoot to the same relative location
// under archiveRoot with ext appended.
func MirrorPath(sourceRoot, archiveRoot, sourcePath, ext string) (string, error) {
	rel, err := filepath.Rel(sourceRoot, sourcePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is not under %s", sourcePath, sourceRoot)
	}
	return filepath.Join(archiveRoot, rel) + ext, nil
}

// TrackerPath groups archives by tracker id.
func TrackerPath(archiveRoot string, trackerID int, chapterName, ext string) string {
	return filepath.Join(archiveRoot, strconv.Itoa(trackerID), sanitizeFilename(chapterName)+ext)
}

type sourceFile struct {
	path string
	name string
}

// collectFiles lists the files to pack in name order. A directory is walked
// recursively and entry names stay relative to it; a stale ComicInfo.xml is
// dropped so the fresh one wins.
func collectFiles(sourcePath string) ([]sourceFile, error) {
	st, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source: %w", err)
	}
	if !st.IsDir() {
		return []sourceFile{{path: sourcePath, name: filepath.Base(sourcePath)}}, nil
	}

	var files []sourceFile
	err = filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(sourcePath, path)
		if err != nil {
			return err
		}
		if strings.EqualFold(rel, ComicInfoName) {
			return nil
		}
		files = append(files, sourceFile{path: path, name: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read chapter directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// isImageFile checks if a file has an image extension
func isImageFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	return result
}

// writeAtomically creates dst through a temp file in the same directory so a
// failed archive never leaves a partial file behind.
func writeAtomically(dst string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".mangashelf-*")
	if err != nil {
		return fmt.Errorf("failed to create temp archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	return nil
}
