// Package metrics holds the Prometheus instruments for searches, index writes
// and registry resolutions.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "amansearch"

// Search status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of searches executed",
		},
		[]string{"searcher", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, including result materialization",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"searcher"},
	)

	SearchResults = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search after deduplication",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"searcher"},
	)

	DocumentsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_written_total",
			Help:      "Documents written to indexes, by outcome",
		},
		[]string{"index", "result"}, // "indexed" / "skipped" / "deleted"
	)

	IndexResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_resolutions_total",
			Help:      "Index resolutions, labelled by whether the instance was constructed",
		},
		[]string{"index", "constructed"},
	)
)

var registerOnce sync.Once

// Register registers all instruments with the default registerer. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			SearchesTotal,
			SearchDuration,
			SearchResults,
			DocumentsWritten,
			IndexResolutions,
		)
	})
}

// ObserveSearch records one finished search.
func ObserveSearch(searcher string, start time.Time, results int, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	SearchesTotal.WithLabelValues(searcher, status).Inc()
	SearchDuration.WithLabelValues(searcher).Observe(time.Since(start).Seconds())
	if err == nil {
		SearchResults.WithLabelValues(searcher).Observe(float64(results))
	}
}

// AddDocuments counts written documents for an index.
func AddDocuments(index, result string, n int) {
	if n <= 0 {
		return
	}
	DocumentsWritten.WithLabelValues(index, result).Add(float64(n))
}

// IndexResolved records an index resolution.
func IndexResolved(index string, constructed bool) {
	IndexResolutions.WithLabelValues(index, strconv.FormatBool(constructed)).Inc()
}

// WriteTextfile writes the default gatherer's metrics to path in the text
// exposition format, for pickup by a textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
