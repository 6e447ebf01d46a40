// Package index owns named indexes: their frozen options, how value sets are
// converted and written, and the searchers they hand out.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/amansearch/internal/directory"
	"github.com/Aman-CERP/amansearch/internal/engine"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
	"github.com/Aman-CERP/amansearch/internal/logging"
	"github.com/Aman-CERP/amansearch/internal/metrics"
	"github.com/Aman-CERP/amansearch/internal/search"
)

// ValueSet is one entity to index. ID must be an integer; it becomes both the
// engine document ID and the stored id field.
type ValueSet struct {
	ID        string              `yaml:"id" json:"id"`
	IndexType string              `yaml:"index_type,omitempty" json:"index_type,omitempty"`
	Values    map[string][]string `yaml:"values" json:"values"`
}

// WriteResult summarizes one Write call.
type WriteResult struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// Index is one named index bound to a storage location. The writer handle is
// opened on first write and held until Close.
type Index struct {
	opts    *Options
	engine  engine.Engine
	loc     directory.Location
	mapping mapping.IndexMapping
	logger  *slog.Logger

	mu     sync.Mutex
	writer engine.Writer
	closed bool
}

// New binds opts to a location resolved from its directory factory.
func New(eng engine.Engine, opts *Options, logger *slog.Logger) (*Index, error) {
	loc, err := opts.Directory().Resolve(opts.Name())
	if err != nil {
		return nil, err
	}
	return &Index{
		opts:    opts,
		engine:  eng,
		loc:     loc,
		mapping: buildMapping(opts),
		logger:  logging.OrDefault(logger),
	}, nil
}

// Name returns the index name.
func (i *Index) Name() string { return i.opts.Name() }

// Options returns the frozen options.
func (i *Index) Options() *Options { return i.opts }

// Location returns the storage location.
func (i *Index) Location() directory.Location { return i.loc }

// Exists reports whether the index has been built.
func (i *Index) Exists() bool { return i.engine.Exists(i.loc) }

// Target describes the index for searchers.
func (i *Index) Target() search.Target {
	return search.Target{Name: i.Name(), Location: i.loc}
}

// Searcher returns a new searcher over this index's committed state.
func (i *Index) Searcher(opts ...search.Option) *search.Searcher {
	base := []search.Option{
		search.WithLogger(i.logger),
		search.WithMaxResults(i.opts.MaxResults()),
		search.WithDefaultIndexType(i.opts.DefaultIndexType()),
	}
	return search.NewIndexSearcher(i.Name(), i.engine, i.Target(), append(base, opts...)...)
}

// Write converts and indexes value sets in one batch. Sets rejected by the
// validator are skipped; malformed sets fail the whole call before anything
// is written.
func (i *Index) Write(ctx context.Context, sets []ValueSet) (WriteResult, error) {
	var res WriteResult

	docs := make([]engine.Document, 0, len(sets))
	for _, vs := range sets {
		if v := i.opts.Validator(); v != nil {
			if err := v(vs); err != nil {
				res.Skipped++
				i.logger.Debug("value_set_skipped",
					slog.String("index", i.Name()),
					slog.String("id", vs.ID),
					slog.String("reason", err.Error()))
				continue
			}
		}

		doc, err := i.document(vs)
		if err != nil {
			return WriteResult{}, err
		}
		docs = append(docs, doc)
	}

	if len(docs) > 0 {
		w, err := i.ensureWriter(ctx)
		if err != nil {
			return WriteResult{}, err
		}
		start := time.Now()
		if err := w.Index(ctx, docs); err != nil {
			return WriteResult{}, err
		}
		res.Indexed = len(docs)
		i.logger.Info("index_write",
			slog.String("index", i.Name()),
			slog.Int("indexed", res.Indexed),
			slog.Int("skipped", res.Skipped),
			slog.Duration("duration", time.Since(start)))
	}

	metrics.AddDocuments(i.Name(), "indexed", res.Indexed)
	metrics.AddDocuments(i.Name(), "skipped", res.Skipped)
	return res, nil
}

// Delete removes documents by id. Deleting from an index that was never
// built is a no-op.
func (i *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 || (!i.hasWriter() && !i.Exists()) {
		return nil
	}
	w, err := i.ensureWriter(ctx)
	if err != nil {
		return err
	}
	if err := w.Delete(ctx, ids); err != nil {
		return err
	}
	metrics.AddDocuments(i.Name(), "deleted", len(ids))
	return nil
}

// DocCount returns the number of indexed documents, 0 if never built.
func (i *Index) DocCount(ctx context.Context) (uint64, error) {
	if !i.hasWriter() && !i.Exists() {
		return 0, nil
	}
	w, err := i.ensureWriter(ctx)
	if err != nil {
		return 0, err
	}
	return w.DocCount()
}

// Close releases the writer. A working copy from a synced temp directory is
// then copied back to its main location.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true

	wrote := i.writer != nil
	if wrote {
		if err := i.writer.Close(); err != nil {
			return fmt.Errorf("close writer for index %s: %w", i.Name(), err)
		}
		i.writer = nil
	}

	if wrote && i.loc.SyncPath != "" {
		if err := directory.Sync(i.loc); err != nil {
			return err
		}
		i.logger.Info("index_synced",
			slog.String("index", i.Name()),
			slog.String("main", i.loc.SyncPath))
	}
	return nil
}

func (i *Index) hasWriter() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.writer != nil
}

func (i *Index) ensureWriter(ctx context.Context) (engine.Writer, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil, amerrors.InternalError(fmt.Sprintf("index %s is closed", i.Name()), nil)
	}
	if i.writer != nil {
		return i.writer, nil
	}

	w, err := i.engine.OpenWriter(ctx, i.loc, i.mapping)
	if err != nil {
		return nil, err
	}
	i.writer = w
	return w, nil
}

// document converts a value set. id and the classification are always
// stored; undeclared fields are indexed as full text.
func (i *Index) document(vs ValueSet) (engine.Document, error) {
	if _, err := strconv.Atoi(vs.ID); err != nil {
		return engine.Document{}, amerrors.ValidationError(
			fmt.Sprintf("value set id %q is not an integer", vs.ID), err).
			WithDetail("index", i.Name())
	}

	indexType := vs.IndexType
	if indexType == "" {
		indexType = i.opts.DefaultIndexType()
	}

	fields := make(map[string]any, len(vs.Values)+2)
	fields[engine.FieldID] = vs.ID
	fields[engine.FieldIndexType] = indexType

	for name, values := range vs.Values {
		if isReserved(name) {
			return engine.Document{}, amerrors.ValidationError(
				fmt.Sprintf("value set %s sets reserved field %q", vs.ID, name), nil).
				WithDetail("index", i.Name())
		}
		if len(values) == 0 {
			continue
		}
		v, err := i.opts.ValueType(name).Convert(values)
		if err != nil {
			return engine.Document{}, amerrors.ValidationError(
				fmt.Sprintf("value set %s field %q: %v", vs.ID, name, err), err).
				WithDetail("index", i.Name()).
				WithDetail("field", name)
		}
		fields[name] = v
	}

	return engine.Document{ID: vs.ID, Fields: fields}, nil
}
