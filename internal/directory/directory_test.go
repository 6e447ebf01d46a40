package directory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

func TestFileSystem_Resolve_JoinsRootAndName(t *testing.T) {
	root := t.TempDir()
	f := NewFileSystem(root)

	loc, err := f.Resolve("content")

	require.NoError(t, err)
	assert.Equal(t, KindFileSystem, loc.Kind)
	assert.Equal(t, filepath.Join(root, "content"), loc.Path)
	assert.Equal(t, "content", loc.Index)
	assert.Empty(t, loc.SyncPath)
	assert.False(t, loc.Exists(), "nothing built yet")
}

func TestFileSystem_Resolve_RejectsBadNames(t *testing.T) {
	f := NewFileSystem(t.TempDir())

	for _, name := range []string{"", "  ", "..", "a/b", `a\b`} {
		t.Run(name, func(t *testing.T) {
			_, err := f.Resolve(name)
			require.Error(t, err)
			assert.True(t, errors.Is(err, amerrors.ErrConfiguration))
		})
	}
}

func TestFileSystem_Resolve_RequiresRoot(t *testing.T) {
	_, err := (&FileSystem{}).Resolve("content")
	assert.True(t, errors.Is(err, amerrors.ErrConfiguration))
}

func TestLocation_Exists_RequiresMetaFile(t *testing.T) {
	root := t.TempDir()
	loc, err := NewFileSystem(root).Resolve("content")
	require.NoError(t, err)

	// Given: an empty directory is not an index
	require.NoError(t, os.MkdirAll(loc.Path, 0o755))
	assert.False(t, loc.Exists())

	// When: the meta file appears
	require.NoError(t, os.WriteFile(filepath.Join(loc.Path, metaFile), []byte("{}"), 0o644))

	// Then: the location exists
	assert.True(t, loc.Exists())
}

func TestMemory_Resolve_NamespacesKeys(t *testing.T) {
	a, err := NewMemory("a").Resolve("content")
	require.NoError(t, err)
	b, err := NewMemory("b").Resolve("content")
	require.NoError(t, err)

	assert.Equal(t, KindMemory, a.Kind)
	assert.NotEqual(t, a.Key(), b.Key())
	assert.False(t, a.Exists())
}

func TestLocation_Key_CleansPaths(t *testing.T) {
	a := Location{Kind: KindFileSystem, Path: "/data/x/../content"}
	b := Location{Kind: KindFileSystem, Path: "/data/content"}

	assert.Equal(t, a.Key(), b.Key())
}

func TestSyncedTemp_Resolve_SeedsWorkingCopy(t *testing.T) {
	// Given: a built main copy
	mainRoot := t.TempDir()
	tempRoot := t.TempDir()
	main := filepath.Join(mainRoot, "content")
	require.NoError(t, os.MkdirAll(filepath.Join(main, "store"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(main, metaFile), []byte(`{"storage":"scorch"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(main, "store", "root.bolt"), []byte("bolt"), 0o644))

	// When: resolving through the synced temp factory
	loc, err := NewSyncedTemp(mainRoot, tempRoot).Resolve("content")

	// Then: the working copy mirrors main
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempRoot, "content"), loc.Path)
	assert.Equal(t, main, loc.SyncPath)
	assert.True(t, loc.Exists())
	data, err := os.ReadFile(filepath.Join(loc.Path, "store", "root.bolt"))
	require.NoError(t, err)
	assert.Equal(t, "bolt", string(data))
}

func TestSyncedTemp_Resolve_KeepsExistingWorkingCopy(t *testing.T) {
	mainRoot := t.TempDir()
	tempRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(mainRoot, "content"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(mainRoot, "content", "f"), []byte("main"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(tempRoot, "content"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tempRoot, "content", "f"), []byte("temp"), 0o644))

	loc, err := NewSyncedTemp(mainRoot, tempRoot).Resolve("content")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(loc.Path, "f"))
	require.NoError(t, err)
	assert.Equal(t, "temp", string(data))
}

func TestSync_CopiesWorkingCopyBack(t *testing.T) {
	// Given: a working copy with new content and a stale main copy
	mainRoot := t.TempDir()
	tempRoot := t.TempDir()
	loc, err := NewSyncedTemp(mainRoot, tempRoot).Resolve("content")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(loc.Path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(loc.Path, metaFile), []byte("{}"), 0o644))
	require.NoError(t, os.MkdirAll(loc.SyncPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(loc.SyncPath, "stale"), []byte("old"), 0o644))

	// When: syncing
	require.NoError(t, Sync(loc))

	// Then: main is replaced by the working copy
	assert.FileExists(t, filepath.Join(loc.SyncPath, metaFile))
	assert.NoFileExists(t, filepath.Join(loc.SyncPath, "stale"))
	assert.NoDirExists(t, loc.SyncPath+".sync")
}

func TestSync_NoopWithoutSyncPath(t *testing.T) {
	loc, err := NewFileSystem(t.TempDir()).Resolve("content")
	require.NoError(t, err)

	assert.NoError(t, Sync(loc))
}
