package directory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// fileLock is a cross-process exclusive lock guarding one main location
// while it is copied to or from a working copy.
type fileLock struct {
	path  string
	flock *flock.Flock
}

// lockFor returns the lock guarding main. The lock file sits next to the
// index directory so every process sharing the main root agrees on it.
func lockFor(main string) *fileLock {
	path := filepath.Join(filepath.Dir(main), "."+filepath.Base(main)+".lock")
	return &fileLock{path: path, flock: flock.New(path)}
}

// Lock acquires the lock, blocking until it is available.
func (l *fileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	return nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *fileLock) Unlock() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}
