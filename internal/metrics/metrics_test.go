package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSearch_CountsByStatus(t *testing.T) {
	// Given: counters for a fresh searcher label
	ok := SearchesTotal.WithLabelValues("observe-test", StatusOK)
	failed := SearchesTotal.WithLabelValues("observe-test", StatusError)
	okBefore := testutil.ToFloat64(ok)
	failedBefore := testutil.ToFloat64(failed)

	// When: one successful and one failed search are observed
	ObserveSearch("observe-test", time.Now(), 3, nil)
	ObserveSearch("observe-test", time.Now(), 0, errors.New("boom"))

	// Then: each status is counted once
	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestAddDocuments_IgnoresNonPositive(t *testing.T) {
	c := DocumentsWritten.WithLabelValues("add-test", "indexed")
	before := testutil.ToFloat64(c)

	AddDocuments("add-test", "indexed", 0)
	AddDocuments("add-test", "indexed", 4)

	assert.Equal(t, before+4, testutil.ToFloat64(c))
}

func TestIndexResolved_LabelsConstruction(t *testing.T) {
	built := IndexResolutions.WithLabelValues("resolve-test", "true")
	cached := IndexResolutions.WithLabelValues("resolve-test", "false")

	IndexResolved("resolve-test", true)
	IndexResolved("resolve-test", false)
	IndexResolved("resolve-test", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(built))
	assert.Equal(t, 2.0, testutil.ToFloat64(cached))
}

func TestRegister_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestWriteTextfile_WritesExposition(t *testing.T) {
	// Given: registered metrics with a sample
	Register()
	IndexResolved("textfile-test", true)
	path := filepath.Join(t.TempDir(), "amansearch.prom")

	// When: writing the textfile
	require.NoError(t, WriteTextfile(path))

	// Then: the file contains the namespaced metric
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "amansearch_index_resolutions_total")
}
