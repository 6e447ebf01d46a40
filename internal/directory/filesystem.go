package directory

import (
	"path/filepath"

	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

// FileSystem places each index in its own directory under Root.
type FileSystem struct {
	Root string
}

// NewFileSystem creates a filesystem factory rooted at root.
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{Root: root}
}

// DefaultRoot returns the index root for an application root.
func DefaultRoot(appRoot string) string {
	return filepath.Join(appRoot, ".amansearch", "indexes")
}

// Resolve implements Factory. The directory is not created here; the engine
// creates it on first write.
func (f *FileSystem) Resolve(indexName string) (Location, error) {
	if err := ValidateName(indexName); err != nil {
		return Location{}, err
	}
	if f.Root == "" {
		return Location{}, amerrors.ConfigError("filesystem directory factory has no root", nil)
	}
	return Location{
		Index: indexName,
		Kind:  KindFileSystem,
		Path:  filepath.Join(f.Root, indexName),
	}, nil
}

// Memory resolves every index to an in-memory location. Namespace keeps
// indexes of different factories apart inside one engine.
type Memory struct {
	Namespace string
}

// NewMemory creates a memory factory.
func NewMemory(namespace string) *Memory {
	return &Memory{Namespace: namespace}
}

// Resolve implements Factory.
func (m *Memory) Resolve(indexName string) (Location, error) {
	if err := ValidateName(indexName); err != nil {
		return Location{}, err
	}
	path := indexName
	if m.Namespace != "" {
		path = m.Namespace + "/" + indexName
	}
	return Location{Index: indexName, Kind: KindMemory, Path: path}, nil
}
