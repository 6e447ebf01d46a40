// Package registry holds the named indexes and searchers of one application.
//
// Indexes are registered with a deferred configurer and constructed on first
// resolution, at most once per name. Searchers are registered as factories
// and constructed on every resolution. A Registry is plain owned state: the
// composition root creates it, hands it to consumers, and closes it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Aman-CERP/amansearch/internal/directory"
	"github.com/Aman-CERP/amansearch/internal/engine"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
	"github.com/Aman-CERP/amansearch/internal/index"
	"github.com/Aman-CERP/amansearch/internal/logging"
	"github.com/Aman-CERP/amansearch/internal/metrics"
	"github.com/Aman-CERP/amansearch/internal/search"
)

// IndexConfigurer returns the option overrides for one index. It runs once,
// inside the scope of the index's first resolution.
type IndexConfigurer func(scope *Scope) ([]index.Option, error)

// SearcherFactory constructs a searcher. name is the registered name.
type SearcherFactory func(name string, r *Registry) (*search.Searcher, error)

// DirectoryProvider creates the default directory factory for one resolution
// scope.
type DirectoryProvider func() (directory.Factory, error)

// Registry maps names to indexes and searcher factories.
type Registry struct {
	engine    engine.Engine
	catalog   *engine.AnalyzerCatalog
	directory DirectoryProvider
	logger    *slog.Logger

	mu        sync.Mutex
	indexes   map[string]*indexEntry
	searchers map[string]SearcherFactory
	closed    bool
}

type indexEntry struct {
	configure IndexConfigurer

	mu  sync.Mutex
	idx *index.Index
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger, which indexes and searchers inherit.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithAnalyzerCatalog replaces the built-in analyzer catalog.
func WithAnalyzerCatalog(c *engine.AnalyzerCatalog) Option {
	return func(r *Registry) {
		r.catalog = c
	}
}

// WithDirectoryProvider sets how each resolution scope gets its default
// directory factory.
func WithDirectoryProvider(p DirectoryProvider) Option {
	return func(r *Registry) {
		r.directory = p
	}
}

// New creates an empty registry over eng. Without a directory provider every
// index must set its own directory.
func New(eng engine.Engine, opts ...Option) *Registry {
	r := &Registry{
		engine:    eng,
		indexes:   make(map[string]*indexEntry),
		searchers: make(map[string]SearcherFactory),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.catalog == nil {
		r.catalog = engine.NewAnalyzerCatalog()
	}
	if r.directory == nil {
		r.directory = func() (directory.Factory, error) { return nil, nil }
	}
	r.logger = logging.OrDefault(r.logger)
	return r
}

// Engine returns the engine indexes are opened on.
func (r *Registry) Engine() engine.Engine { return r.engine }

// Analyzers returns the analyzer catalog.
func (r *Registry) Analyzers() *engine.AnalyzerCatalog { return r.catalog }

// RegisterIndex records how to configure the index called name. A second
// registration under the same name fails and leaves the first intact.
func (r *Registry) RegisterIndex(name string, configure IndexConfigurer) error {
	if err := directory.ValidateName(name); err != nil {
		return err
	}
	if configure == nil {
		configure = func(*Scope) ([]index.Option, error) { return nil, nil }
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indexes[name]; exists {
		return amerrors.DuplicateNameError("index", name)
	}
	r.indexes[name] = &indexEntry{configure: configure}
	return nil
}

// HasIndex reports whether name is registered.
func (r *Registry) HasIndex(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.indexes[name]
	return ok
}

// IndexNames returns registered index names, sorted.
func (r *Registry) IndexNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.indexes)
}

// ResolveIndex returns the index called name, constructing it on first use.
// Concurrent first resolutions construct exactly one instance.
func (r *Registry) ResolveIndex(name string) (*index.Index, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, amerrors.InternalError("registry is closed", nil)
	}
	entry, ok := r.indexes[name]
	r.mu.Unlock()
	if !ok {
		return nil, amerrors.UnknownNameError("index", name).
			WithSuggestion("Register the index before resolving it")
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.idx != nil {
		metrics.IndexResolved(name, false)
		return entry.idx, nil
	}

	idx, err := r.construct(name, entry.configure)
	if err != nil {
		r.logger.LogAttrs(context.Background(), slog.LevelError, "index_resolve_failed",
			append([]slog.Attr{slog.String("index", name)}, amerrors.LogAttrs(err)...)...)
		return nil, err
	}
	entry.idx = idx
	metrics.IndexResolved(name, true)

	r.logger.Info("index_resolved",
		slog.String("index", name),
		slog.String("analyzer", idx.Options().Analyzer()),
		slog.String("location", idx.Location().String()))
	return idx, nil
}

func (r *Registry) construct(name string, configure IndexConfigurer) (idx *index.Index, err error) {
	scope, err := r.newScope()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := scope.close(); cerr != nil && err == nil {
			idx, err = nil, cerr
		}
	}()

	overrides, err := configure(scope)
	if err != nil {
		return nil, fmt.Errorf("configure index %s: %w", name, err)
	}

	opts, err := index.BuildOptions(name, r.catalog, scope.Directory(), overrides...)
	if err != nil {
		return nil, err
	}
	return index.New(r.engine, opts, r.logger)
}

// ResolveIndexes resolves every registered index in name order.
func (r *Registry) ResolveIndexes() ([]*index.Index, error) {
	names := r.IndexNames()
	out := make([]*index.Index, 0, len(names))
	for _, name := range names {
		idx, err := r.ResolveIndex(name)
		if err != nil {
			return nil, err
		}
		out = append(out, idx)
	}
	return out, nil
}

// RegisterSearcher records a searcher factory under name.
func (r *Registry) RegisterSearcher(name string, factory SearcherFactory) error {
	if name == "" {
		return amerrors.ConfigError("searcher name is required", nil)
	}
	if factory == nil {
		return amerrors.ConfigError(fmt.Sprintf("searcher %q has no factory", name), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.searchers[name]; exists {
		return amerrors.DuplicateNameError("searcher", name)
	}
	r.searchers[name] = factory
	return nil
}

// SearcherNames returns registered searcher names, sorted.
func (r *Registry) SearcherNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedKeys(r.searchers)
}

// ResolveSearcher constructs a new searcher from the factory registered
// under name.
func (r *Registry) ResolveSearcher(name string) (*search.Searcher, error) {
	r.mu.Lock()
	factory, ok := r.searchers[name]
	closed := r.closed
	r.mu.Unlock()

	if closed {
		return nil, amerrors.InternalError("registry is closed", nil)
	}
	if !ok {
		return nil, amerrors.UnknownNameError("searcher", name).
			WithSuggestion("Run 'amansearch config show' to list configured searchers")
	}
	return factory(name, r)
}

// IndexSearcher returns a factory for a searcher over one registered index.
func IndexSearcher(indexName string, opts ...search.Option) SearcherFactory {
	return func(_ string, r *Registry) (*search.Searcher, error) {
		idx, err := r.ResolveIndex(indexName)
		if err != nil {
			return nil, err
		}
		return idx.Searcher(opts...), nil
	}
}

// RegisterMultiIndexSearcher registers a searcher over the union of
// indexNames. Names that are not registered when the searcher is resolved
// are skipped with a warning. A non-empty analyzer is checked now and used
// for all query text.
func (r *Registry) RegisterMultiIndexSearcher(name string, indexNames []string, analyzer string, opts ...search.Option) error {
	var analyzerOpt []search.Option
	if analyzer != "" {
		engineAnalyzer, err := r.catalog.Resolve(analyzer)
		if err != nil {
			return err
		}
		analyzerOpt = []search.Option{search.WithAnalyzer(engineAnalyzer)}
	}

	wanted := dedupe(indexNames)
	return r.RegisterSearcher(name, func(name string, r *Registry) (*search.Searcher, error) {
		targets := make([]search.Target, 0, len(wanted))
		for _, n := range wanted {
			if !r.HasIndex(n) {
				r.logger.Warn("multi_searcher_unknown_index",
					slog.String("searcher", name),
					slog.String("index", n))
				continue
			}
			idx, err := r.ResolveIndex(n)
			if err != nil {
				return nil, err
			}
			targets = append(targets, idx.Target())
		}

		all := append([]search.Option{search.WithLogger(r.logger)}, analyzerOpt...)
		all = append(all, opts...)
		return search.NewMultiIndexSearcher(name, r.engine, targets, all...), nil
	})
}

// Close closes every constructed index. The registry cannot be used
// afterwards; the engine stays open and belongs to the caller.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := make([]*indexEntry, 0, len(r.indexes))
	for _, name := range sortedKeys(r.indexes) {
		entries = append(entries, r.indexes[name])
	}
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		e.mu.Lock()
		if e.idx != nil {
			if err := e.idx.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		e.mu.Unlock()
	}
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
