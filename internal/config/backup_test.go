package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfig_NoConfig(t *testing.T) {
	isolate(t)

	path, err := BackupUserConfig()

	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupUserConfig_CopiesAndPrunes(t *testing.T) {
	// Given: a user config
	isolate(t)
	writeFile(t, GetUserConfigPath(), "version: 1\n")

	// When: backing up more often than MaxBackups
	var last string
	for i := 0; i < MaxBackups+2; i++ {
		p, err := BackupUserConfig()
		require.NoError(t, err)
		last = p
	}

	// Then: backups hold the content and only the newest are kept
	data, err := os.ReadFile(last)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
	assert.Equal(t, last, backups[0])
}

func TestRestoreUserConfig(t *testing.T) {
	// Given: a backup and a changed config
	isolate(t)
	writeFile(t, GetUserConfigPath(), "directory: memory\n")
	backup, err := BackupUserConfig()
	require.NoError(t, err)
	writeFile(t, GetUserConfigPath(), "directory: filesystem\n")

	// When: restoring
	require.NoError(t, RestoreUserConfig(backup))

	// Then: the old content is back
	data, err := os.ReadFile(GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "directory: memory\n", string(data))

	assert.Error(t, RestoreUserConfig(filepath.Join(t.TempDir(), "nope")))
}
