package integrations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Filesystem moves chapter sources around once the ledger is done with them.
type Filesystem struct {
	sourceRoot     string
	quarantineRoot string
}

func NewFilesystem(sourceRoot, quarantineRoot string) *Filesystem {
	return &Filesystem{sourceRoot: sourceRoot, quarantineRoot: quarantineRoot}
}

// Quarantine renames path into the quarantine root keeping its location
// relative to the source root, and returns the new path.
func (f *Filesystem) Quarantine(path string) (string, error) {
	rel, err := filepath.Rel(f.sourceRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	dest := filepath.Join(f.quarantineRoot, rel)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create quarantine directory: %w", err)
	}
	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("quarantine target already exists: %s", dest)
	}
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("failed to quarantine %s: %w", path, err)
	}
	return dest, nil
}

// Remove deletes an imported chapter source.
func (f *Filesystem) Remove(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
