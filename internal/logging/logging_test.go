package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath_UnderAmansearchDir(t *testing.T) {
	path := DefaultLogPath()

	assert.Equal(t, "amansearch.log", filepath.Base(path))
	assert.Contains(t, path, ".amansearch")
	assert.Equal(t, DefaultLogDir(), filepath.Dir(path))
}

func TestDefaultConfig_StderrOnly(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "warn", cfg.Level)
	assert.Empty(t, cfg.FilePath)
	assert.True(t, cfg.WriteToStderr)
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, 5, cfg.MaxFiles)
}

func TestDebugConfig_EnablesFileLogging(t *testing.T) {
	cfg := DebugConfig()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, DefaultLogPath(), cfg.FilePath)
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: file-only logging at debug level
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, cleanup, err := Setup(Config{
		Level:     "debug",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  3,
	})
	require.NoError(t, err)

	// When: logging an event
	logger.Debug("index_resolved", slog.String("index", "content"))
	cleanup()

	// Then: the file contains one JSON record
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "index_resolved", record["msg"])
	assert.Equal(t, "content", record["index"])
}

func TestSetup_RespectsLevel(t *testing.T) {
	// Given: stderr logging at warn level
	var buf bytes.Buffer
	logger, cleanup, err := Setup(Config{Level: "warn", WriteToStderr: true, Stderr: &buf})
	require.NoError(t, err)
	defer cleanup()

	// When: logging below and at the threshold
	logger.Info("dropped")
	logger.Warn("kept")

	// Then: only the warning is written
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestSetup_NoOutputsDiscards(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "debug"})
	require.NoError(t, err)
	defer cleanup()

	assert.NotPanics(t, func() { logger.Error("nowhere") })
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromString(tt.in))
		})
	}
}

func TestOrDefault(t *testing.T) {
	assert.Same(t, slog.Default(), OrDefault(nil))

	l := Discard()
	assert.Same(t, l, OrDefault(l))
}

func TestRotatingWriter_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rotate.log")

	// 0 MB triggers rotation on every write
	w, err := NewRotatingWriter(logPath, 0, 3)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	data := []byte(strings.Repeat("x", 2048))
	_, err = w.Write(data)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)

	assert.FileExists(t, logPath)
	assert.FileExists(t, logPath+".1")
}

func TestRotatingWriter_MaxFilesLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "maxfiles.log")

	w, err := NewRotatingWriter(logPath, 0, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	data := []byte(strings.Repeat("y", 1024))
	for i := 0; i < 5; i++ {
		_, _ = w.Write(data)
	}

	assert.FileExists(t, logPath+".2")
	assert.NoFileExists(t, logPath+".3")
}

func TestRotatingWriter_SyncPersists(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "sync.log")

	w, err := NewRotatingWriter(logPath, 1, 3)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Write([]byte("test data to sync\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test data to sync")
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")

	w, err := NewRotatingWriter(logPath, 10, 3)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = fmt.Fprintf(w, `{"id":%d,"iter":%d}`+"\n", id, j)
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, 1000, strings.Count(string(content), "\n"))
}
