// Package search executes compiled criteria against one index or a union of
// indexes and turns engine hits into ranked, deduplicated results.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/amansearch/internal/directory"
	"github.com/Aman-CERP/amansearch/internal/engine"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
	"github.com/Aman-CERP/amansearch/internal/logging"
	"github.com/Aman-CERP/amansearch/internal/metrics"
)

// Target is one index a searcher reads.
type Target struct {
	Name     string
	Location directory.Location
}

// Searcher runs searches against a fixed set of indexes. It holds no engine
// handles between calls; every call opens and releases its own.
type Searcher struct {
	name    string
	engine  engine.Engine
	targets []Target
	builder *CriteriaBuilder
	logger  *slog.Logger

	analyzer         string
	maxResults       int
	defaultIndexType string
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the searcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		s.logger = logger
	}
}

// WithAnalyzer sets the engine analyzer used for query text. Without it each
// field's own analyzer applies.
func WithAnalyzer(engineAnalyzer string) Option {
	return func(s *Searcher) {
		s.analyzer = engineAnalyzer
	}
}

// WithMaxResults sets the default hit cap for criteria built by this searcher.
func WithMaxResults(n int) Option {
	return func(s *Searcher) {
		s.maxResults = n
	}
}

// WithDefaultIndexType sets the classification of the convenience Search path.
func WithDefaultIndexType(indexType string) Option {
	return func(s *Searcher) {
		s.defaultIndexType = indexType
	}
}

// NewIndexSearcher creates a searcher over one index.
func NewIndexSearcher(name string, eng engine.Engine, target Target, opts ...Option) *Searcher {
	return newSearcher(name, eng, []Target{target}, opts)
}

// NewMultiIndexSearcher creates a searcher over the union of targets. Field
// lists and results cover every target; a target whose index is missing
// fails the whole call.
func NewMultiIndexSearcher(name string, eng engine.Engine, targets []Target, opts ...Option) *Searcher {
	return newSearcher(name, eng, targets, opts)
}

func newSearcher(name string, eng engine.Engine, targets []Target, opts []Option) *Searcher {
	s := &Searcher{
		name:             name,
		engine:           eng,
		targets:          append([]Target(nil), targets...),
		defaultIndexType: DefaultIndexType,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDefault(s.logger)
	s.builder = newCriteriaBuilder(s.analyzer, s.maxResults)
	return s
}

// Name returns the searcher name.
func (s *Searcher) Name() string { return s.name }

// Targets returns the indexes this searcher reads.
func (s *Searcher) Targets() []Target {
	return append([]Target(nil), s.targets...)
}

// CriteriaBuilder returns the builder whose criteria this searcher accepts.
func (s *Searcher) CriteriaBuilder() *CriteriaBuilder { return s.builder }

// DefaultIndexType returns the classification Search is scoped to.
func (s *Searcher) DefaultIndexType() string { return s.defaultIndexType }

// Search matches text against every non-reserved field of the default
// classification. With useWildcards each term of text becomes a prefix
// pattern. maxResults <= 0 selects the default cap.
func (s *Searcher) Search(ctx context.Context, text string, maxResults int, useWildcards bool) ([]SearchResult, error) {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return nil, amerrors.ValidationError("search text is required", nil)
	}

	fields, err := s.FieldNames(ctx)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return []SearchResult{}, nil
	}

	c := s.builder.NewCriteria(s.defaultIndexType).MaxResults(maxResults)
	if useWildcards {
		for _, term := range terms {
			c.Wildcard(fields, term+"*")
		}
	} else {
		c.Fields(fields, text)
	}

	compiled, err := c.Compile()
	if err != nil {
		return nil, err
	}
	return s.SearchCriteria(ctx, compiled)
}

// SearchCriteria executes criteria built by this searcher's builder.
func (s *Searcher) SearchCriteria(ctx context.Context, criteria *SearchCriteria) (results []SearchResult, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveSearch(s.name, start, len(results), err)
	}()

	if criteria == nil || criteria.origin != s.builder {
		return nil, amerrors.InvalidCriteriaError(s.name)
	}
	if len(s.targets) == 0 {
		return []SearchResult{}, nil
	}

	h, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(h)

	hits, err := h.Search(ctx, criteria.query, criteria.maxResults)
	if err != nil {
		return nil, err
	}

	results, err = materialize(ctx, h, hits)
	if err != nil {
		attrs := append([]slog.Attr{slog.String("searcher", s.name)}, amerrors.LogAttrs(err)...)
		s.logger.LogAttrs(ctx, slog.LevelError, "search_failed", attrs...)
		return nil, err
	}

	s.logger.Debug("search_complete",
		slog.String("searcher", s.name),
		slog.Int("hits", len(hits)),
		slog.Int("results", len(results)),
		slog.Duration("duration", time.Since(start)))
	return results, nil
}

// FieldNames returns every non-reserved field stored in the searcher's
// indexes, sorted.
func (s *Searcher) FieldNames(ctx context.Context) ([]string, error) {
	if len(s.targets) == 0 {
		return []string{}, nil
	}

	h, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(h)

	names, err := h.FieldNames(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if IsReservedField(n) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// IsReservedField reports fields that are never free-text search targets.
func IsReservedField(name string) bool {
	return name == engine.FieldID || name == engine.FieldIndexType
}

func (s *Searcher) open(ctx context.Context) (engine.ReadHandle, error) {
	if len(s.targets) == 1 {
		return s.engine.OpenReadHandle(ctx, s.targets[0].Location)
	}
	locs := make([]directory.Location, len(s.targets))
	for i, t := range s.targets {
		locs[i] = t.Location
	}
	return s.engine.OpenUnion(ctx, locs)
}

func (s *Searcher) release(h engine.ReadHandle) {
	if err := h.Close(); err != nil {
		s.logger.Warn("read_handle_close_failed",
			slog.String("searcher", s.name),
			slog.String("error", err.Error()))
	}
}
