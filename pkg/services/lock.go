package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock keeps two ingest passes from working the same ledger at once.
type RunLock struct {
	lock *flock.Flock
}

// AcquireRunLock takes an exclusive lock on path without waiting. It fails
// with ErrRunInProgress when another process holds it.
func AcquireRunLock(path string) (*RunLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}
	return &RunLock{lock: lock}, nil
}

// Release drops the lock.
func (l *RunLock) Release() error {
	return l.lock.Unlock()
}
