package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_WritesRequestedProfiles(t *testing.T) {
	// Given: all three profiles requested
	dir := t.TempDir()
	opts := Options{
		CPU:   filepath.Join(dir, "cpu.prof"),
		Heap:  filepath.Join(dir, "heap.prof"),
		Trace: filepath.Join(dir, "trace.out"),
	}
	require.True(t, opts.Enabled())

	// When: starting and stopping a session
	s, err := Start(opts)
	require.NoError(t, err)
	require.NoError(t, s.Stop())

	// Then: every file exists, the heap profile is non-empty
	for _, p := range []string{opts.CPU, opts.Trace} {
		assert.FileExists(t, p)
	}
	info, err := os.Stat(opts.Heap)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// And: a second Stop does nothing
	assert.NoError(t, s.Stop())
}

func TestSession_NothingRequested(t *testing.T) {
	assert.False(t, Options{}.Enabled())

	s, err := Start(Options{})

	require.NoError(t, err)
	assert.NoError(t, s.Stop())
}

func TestStart_BadPath(t *testing.T) {
	_, err := Start(Options{CPU: filepath.Join(t.TempDir(), "missing", "cpu.prof")})

	assert.ErrorContains(t, err, "CPU profile")
}
