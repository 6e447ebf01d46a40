package directory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

// SyncedTemp keeps the live index in a working copy under TempRoot and the
// durable copy under MainRoot. Resolve seeds the working copy from the main
// copy when the working copy is missing; Sync copies it back.
type SyncedTemp struct {
	MainRoot string
	TempRoot string
}

// NewSyncedTemp creates a synced temp factory. An empty tempRoot defaults to
// <os temp>/amansearch.
func NewSyncedTemp(mainRoot, tempRoot string) *SyncedTemp {
	if tempRoot == "" {
		tempRoot = filepath.Join(os.TempDir(), "amansearch")
	}
	return &SyncedTemp{MainRoot: mainRoot, TempRoot: tempRoot}
}

// Resolve implements Factory.
func (s *SyncedTemp) Resolve(indexName string) (Location, error) {
	if err := ValidateName(indexName); err != nil {
		return Location{}, err
	}
	if s.MainRoot == "" {
		return Location{}, amerrors.ConfigError("synced temp directory factory has no main root", nil)
	}

	main := filepath.Join(s.MainRoot, indexName)
	temp := filepath.Join(s.TempRoot, indexName)

	lock := lockFor(main)
	if err := lock.Lock(); err != nil {
		return Location{}, amerrors.New(amerrors.ErrCodeDirectorySync, "cannot lock main index location", err).
			WithDetail("index", indexName)
	}
	defer func() { _ = lock.Unlock() }()

	if !dirExists(temp) && dirExists(main) {
		if err := copyDir(main, temp); err != nil {
			_ = os.RemoveAll(temp)
			return Location{}, amerrors.New(amerrors.ErrCodeDirectorySync, "cannot seed working copy", err).
				WithDetail("index", indexName).
				WithDetail("main", main)
		}
	}

	return Location{
		Index:    indexName,
		Kind:     KindFileSystem,
		Path:     temp,
		SyncPath: main,
	}, nil
}

// Sync copies a working copy back to its main location. The copy is staged
// next to the main directory and swapped in, so readers of the main root
// never see a partial index. No-op for locations without a SyncPath.
// The engine must have released the working copy before Sync is called.
func Sync(loc Location) error {
	if loc.SyncPath == "" || !dirExists(loc.Path) {
		return nil
	}

	lock := lockFor(loc.SyncPath)
	if err := lock.Lock(); err != nil {
		return amerrors.New(amerrors.ErrCodeDirectorySync, "cannot lock main index location", err).
			WithDetail("index", loc.Index)
	}
	defer func() { _ = lock.Unlock() }()

	staged := loc.SyncPath + ".sync"
	_ = os.RemoveAll(staged)
	if err := copyDir(loc.Path, staged); err != nil {
		_ = os.RemoveAll(staged)
		return amerrors.New(amerrors.ErrCodeDirectorySync, "cannot stage index copy", err).
			WithDetail("index", loc.Index)
	}
	if err := os.RemoveAll(loc.SyncPath); err != nil {
		return amerrors.New(amerrors.ErrCodeDirectorySync, "cannot replace main index copy", err).
			WithDetail("index", loc.Index)
	}
	if err := os.Rename(staged, loc.SyncPath); err != nil {
		return amerrors.New(amerrors.ErrCodeDirectorySync, "cannot move staged index copy", err).
			WithDetail("index", loc.Index)
	}
	return nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// copyFile copies a single file from src to dst.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file: %w", err)
	}
	defer func() { _ = srcFile.Close() }()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source file: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return fmt.Errorf("create destination file: %w", err)
	}

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("copy file contents: %w", err)
	}
	return dstFile.Close()
}

// copyDir recursively copies a directory from src to dst.
func copyDir(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source directory: %w", err)
	}
	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read source directory: %w", err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}
