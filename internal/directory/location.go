package directory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

// Kind identifies the storage backing a Location.
type Kind string

const (
	// KindFileSystem is an on-disk index directory.
	KindFileSystem Kind = "filesystem"
	// KindMemory is an in-memory index held by the engine.
	KindMemory Kind = "memory"
)

// metaFile is written by the engine when an index is created; its presence
// marks a directory as a built index.
const metaFile = "index_meta.json"

// Location describes where one index's segments live.
type Location struct {
	// Index is the logical index name.
	Index string
	// Kind is the storage kind.
	Kind Kind
	// Path is the index directory for filesystem locations, or a namespaced
	// key for memory locations.
	Path string
	// SyncPath is the main location a working copy is synced back to.
	// Empty unless the location came from a SyncedTemp factory.
	SyncPath string
}

// Key uniquely identifies the location inside one engine.
func (l Location) Key() string {
	if l.Kind == KindMemory {
		return "mem://" + l.Path
	}
	return "file://" + filepath.Clean(l.Path)
}

// String implements fmt.Stringer.
func (l Location) String() string {
	return l.Key()
}

// Exists reports whether an index has been built at a filesystem location.
// Memory locations always report false; the engine tracks those itself.
func (l Location) Exists() bool {
	if l.Kind != KindFileSystem {
		return false
	}
	info, err := os.Stat(filepath.Join(l.Path, metaFile))
	return err == nil && !info.IsDir()
}

// Factory resolves a logical index name to a storage location.
type Factory interface {
	Resolve(indexName string) (Location, error)
}

// ValidateName rejects index names that cannot be used as a single path
// segment.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return amerrors.ConfigError("index name is required", nil)
	case name == "." || name == "..":
		return amerrors.ConfigError(fmt.Sprintf("invalid index name %q", name), nil)
	case strings.ContainsAny(name, `/\`):
		return amerrors.ConfigError(fmt.Sprintf("index name %q must not contain path separators", name), nil)
	}
	return nil
}
