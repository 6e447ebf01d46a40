package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/amansearch/internal/directory"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
	"github.com/Aman-CERP/amansearch/internal/logging"
)

// Bleve implements Engine on bleve v2.
//
// Each location is opened at most once per engine. The open index is shared
// by the location's writer and all read handles and is reference counted:
// filesystem indexes are closed when the last user releases them, memory
// indexes stay open until the engine is closed.
type Bleve struct {
	mu     sync.Mutex
	open   map[string]*sharedIndex
	closed bool

	fields *fieldCache
	logger *slog.Logger
}

type sharedIndex struct {
	key    string
	loc    directory.Location
	idx    bleve.Index
	refs   int
	pinned bool
	closed bool
}

// Option configures a Bleve engine.
type Option func(*Bleve)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bleve) {
		b.logger = logger
	}
}

// WithFieldCacheSize sets how many locations keep cached field names.
func WithFieldCacheSize(size int) Option {
	return func(b *Bleve) {
		b.fields = newFieldCache(size)
	}
}

// NewBleve creates a bleve-backed engine.
func NewBleve(opts ...Option) *Bleve {
	b := &Bleve{
		open: make(map[string]*sharedIndex),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.fields == nil {
		b.fields = newFieldCache(DefaultFieldCacheSize)
	}
	b.logger = logging.OrDefault(b.logger)
	return b
}

// Exists implements Engine.
func (b *Bleve) Exists(loc directory.Location) bool {
	if loc.Kind == directory.KindMemory {
		b.mu.Lock()
		defer b.mu.Unlock()
		_, ok := b.open[loc.Key()]
		return ok
	}
	return loc.Exists()
}

// OpenIndexes returns the number of locations currently held open.
func (b *Bleve) OpenIndexes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.open)
}

// OpenReadHandle implements Engine.
func (b *Bleve) OpenReadHandle(ctx context.Context, loc directory.Location) (ReadHandle, error) {
	return b.OpenUnion(ctx, []directory.Location{loc})
}

// OpenUnion implements Engine.
func (b *Bleve) OpenUnion(ctx context.Context, locs []directory.Location) (ReadHandle, error) {
	if len(locs) == 0 {
		return nil, amerrors.ValidationError("a read handle needs at least one index location", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(locs))
	shared := make([]*sharedIndex, 0, len(locs))
	for _, loc := range locs {
		if _, dup := seen[loc.Key()]; dup {
			continue
		}
		seen[loc.Key()] = struct{}{}

		s, err := b.acquire(loc, nil)
		if err != nil {
			for _, opened := range shared {
				_ = b.release(opened)
			}
			return nil, err
		}
		shared = append(shared, s)
	}

	h := &readHandle{
		engine: b,
		shared: shared,
		loaded: make(map[int]map[string]string),
	}
	if len(shared) == 1 {
		h.target = shared[0].idx
	} else {
		idxs := make([]bleve.Index, len(shared))
		for i, s := range shared {
			idxs[i] = s.idx
		}
		h.target = bleve.NewIndexAlias(idxs...)
	}
	return h, nil
}

// OpenWriter implements Engine.
func (b *Bleve) OpenWriter(ctx context.Context, loc directory.Location, m mapping.IndexMapping) (Writer, error) {
	if m == nil {
		return nil, amerrors.InternalError("index mapping is required to open a writer", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := b.acquire(loc, m)
	if err != nil {
		return nil, err
	}
	return &writer{engine: b, shared: s}, nil
}

// Close implements Engine.
func (b *Bleve) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for key, s := range b.open {
		if err := s.idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
		s.closed = true
		delete(b.open, key)
	}
	return errors.Join(errs...)
}

// acquire opens or reuses the index at loc. A nil mapping means the caller
// only reads, so a missing index is an error rather than created.
func (b *Bleve) acquire(loc directory.Location, m mapping.IndexMapping) (*sharedIndex, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, amerrors.InternalError("engine is closed", nil)
	}

	key := loc.Key()
	if s, ok := b.open[key]; ok {
		s.refs++
		return s, nil
	}

	idx, err := b.openIndex(loc, m)
	if err != nil {
		return nil, err
	}
	idx.SetName(key)

	s := &sharedIndex{
		key:    key,
		loc:    loc,
		idx:    idx,
		refs:   1,
		pinned: loc.Kind == directory.KindMemory,
	}
	b.open[key] = s
	b.fields.invalidate(key)

	b.logger.Debug("engine_index_opened",
		slog.String("index", loc.Index),
		slog.String("location", key))
	return s, nil
}

func (b *Bleve) openIndex(loc directory.Location, m mapping.IndexMapping) (bleve.Index, error) {
	switch loc.Kind {
	case directory.KindMemory:
		if m == nil {
			return nil, amerrors.IndexNotFoundError(loc.Index, loc.String())
		}
		idx, err := bleve.NewMemOnly(m)
		if err != nil {
			return nil, amerrors.New(amerrors.ErrCodeIndexFailed, "failed to create in-memory index", err).
				WithDetail("index", loc.Index)
		}
		return idx, nil

	case directory.KindFileSystem:
		if loc.Exists() {
			idx, err := bleve.Open(loc.Path)
			if err != nil {
				return nil, amerrors.New(amerrors.ErrCodeIndexFailed, "failed to open index", err).
					WithDetail("index", loc.Index).
					WithDetail("location", loc.Path)
			}
			return idx, nil
		}
		if m == nil {
			return nil, amerrors.IndexNotFoundError(loc.Index, loc.Path)
		}
		if err := prepareIndexDir(loc.Path); err != nil {
			return nil, amerrors.New(amerrors.ErrCodeIndexFailed, err.Error(), err).
				WithDetail("index", loc.Index)
		}
		idx, err := bleve.New(loc.Path, m)
		if err != nil {
			return nil, amerrors.New(amerrors.ErrCodeIndexFailed, "failed to create index", err).
				WithDetail("index", loc.Index).
				WithDetail("location", loc.Path)
		}
		b.logger.Info("engine_index_created",
			slog.String("index", loc.Index),
			slog.String("location", loc.Path))
		return idx, nil

	default:
		return nil, amerrors.ConfigError(fmt.Sprintf("unsupported location kind %q", loc.Kind), nil)
	}
}

// prepareIndexDir makes sure bleve can create an index at path: the parent
// must exist and path itself must be absent. An empty leftover directory is
// removed; anything else is refused rather than deleted.
func prepareIndexDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index parent directory: %w", err)
	}
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot inspect index directory %s: %w", path, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory %s exists but does not contain an index", path)
	}
	return os.Remove(path)
}

func (b *Bleve) release(s *sharedIndex) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s.refs--
	if s.refs > 0 || s.pinned || s.closed {
		return nil
	}

	delete(b.open, s.key)
	s.closed = true
	if err := s.idx.Close(); err != nil {
		return fmt.Errorf("close index %s: %w", s.key, err)
	}
	b.logger.Debug("engine_index_closed", slog.String("location", s.key))
	return nil
}

// readHandle is a scoped view over one or more shared indexes.
type readHandle struct {
	engine *Bleve
	shared []*sharedIndex
	target bleve.Index

	mu     sync.Mutex
	seq    int
	loaded map[int]map[string]string
	closed bool
}

// Search implements ReadHandle. Stored fields are loaded with the hits so
// ReadStoredFields on those refs does not go back to the engine.
func (h *readHandle) Search(ctx context.Context, q query.Query, size int) ([]Hit, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return []Hit{}, nil
	}

	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	req.Fields = []string{"*"}

	res, err := h.target.SearchInContext(ctx, req)
	if err != nil {
		return nil, amerrors.New(amerrors.ErrCodeSearchFailed, "search failed", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	hits := make([]Hit, 0, len(res.Hits))
	for _, dm := range res.Hits {
		h.seq++
		ref := DocRef{Index: dm.Index, ID: dm.ID, seq: h.seq}
		h.loaded[ref.seq] = storedStrings(dm.Fields)
		hits = append(hits, Hit{Ref: ref, Score: dm.Score})
	}
	return hits, nil
}

// ReadStoredFields implements ReadHandle.
func (h *readHandle) ReadStoredFields(ctx context.Context, ref DocRef) (map[string]string, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	fields, ok := h.loaded[ref.seq]
	h.mu.Unlock()
	if ok && ref.seq > 0 {
		return fields, nil
	}

	for _, s := range h.shared {
		if ref.Index != "" && ref.Index != s.key {
			continue
		}
		req := bleve.NewSearchRequestOptions(bleve.NewDocIDQuery([]string{ref.ID}), 1, 0, false)
		req.Fields = []string{"*"}
		res, err := s.idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, amerrors.New(amerrors.ErrCodeSearchFailed, "failed to read stored fields", err).
				WithDetail("doc_id", ref.ID)
		}
		if len(res.Hits) > 0 {
			return storedStrings(res.Hits[0].Fields), nil
		}
	}

	return nil, amerrors.New(amerrors.ErrCodeSearchFailed,
		fmt.Sprintf("document %q not found in index", ref.ID), nil).
		WithDetail("doc_id", ref.ID)
}

// FieldNames implements ReadHandle. Constituents are enumerated concurrently.
func (h *readHandle) FieldNames(ctx context.Context) ([]string, error) {
	if err := h.checkOpen(); err != nil {
		return nil, err
	}

	perIndex := make([][]string, len(h.shared))
	g, _ := errgroup.WithContext(ctx)
	for i, s := range h.shared {
		g.Go(func() error {
			names, err := h.engine.fields.get(s.key, s.idx.Fields)
			if err != nil {
				return amerrors.New(amerrors.ErrCodeSearchFailed, "failed to enumerate fields", err).
					WithDetail("index", s.loc.Index)
			}
			perIndex[i] = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	union := make(map[string]struct{})
	for _, names := range perIndex {
		for _, n := range names {
			if isInternalField(n) {
				continue
			}
			union[n] = struct{}{}
		}
	}

	names := make([]string, 0, len(union))
	for n := range union {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Close implements ReadHandle.
func (h *readHandle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.loaded = nil
	h.mu.Unlock()

	var errs []error
	for _, s := range h.shared {
		if err := h.engine.release(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *readHandle) checkOpen() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return amerrors.InternalError("read handle is closed", nil)
	}
	return nil
}

// writer mutates one shared index.
type writer struct {
	engine *Bleve
	shared *sharedIndex

	mu     sync.Mutex
	closed bool
}

// Index implements Writer.
func (w *writer) Index(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := w.checkOpen(ctx); err != nil {
		return err
	}

	batch := w.shared.idx.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.ID, doc.Fields); err != nil {
			return amerrors.New(amerrors.ErrCodeIndexFailed,
				fmt.Sprintf("failed to index document %s", doc.ID), err).
				WithDetail("index", w.shared.loc.Index)
		}
	}
	return w.commit(batch)
}

// Delete implements Writer.
func (w *writer) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := w.checkOpen(ctx); err != nil {
		return err
	}

	batch := w.shared.idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return w.commit(batch)
}

func (w *writer) commit(batch *bleve.Batch) error {
	defer w.engine.fields.invalidate(w.shared.key)

	if err := w.shared.idx.Batch(batch); err != nil {
		return amerrors.New(amerrors.ErrCodeIndexFailed, "failed to execute batch", err).
			WithDetail("index", w.shared.loc.Index)
	}
	return nil
}

// DocCount implements Writer.
func (w *writer) DocCount() (uint64, error) {
	if err := w.checkOpen(context.Background()); err != nil {
		return 0, err
	}
	return w.shared.idx.DocCount()
}

// Close implements Writer.
func (w *writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	return w.engine.release(w.shared)
}

func (w *writer) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return amerrors.InternalError("index writer is closed", nil)
	}
	return nil
}

// isInternalField reports bleve bookkeeping fields that are never user data.
func isInternalField(name string) bool {
	return name == "_id" || name == "_all"
}

// storedStrings flattens bleve stored field values to strings, keeping the
// first value of multi-valued fields.
func storedStrings(fields map[string]interface{}) map[string]string {
	out := make(map[string]string, len(fields))
	for name, v := range fields {
		if s, ok := stringValue(v); ok {
			out[name] = s
		}
	}
	return out
}

func stringValue(v interface{}) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		return v.Format(time.RFC3339), true
	case []interface{}:
		if len(v) == 0 {
			return "", false
		}
		return stringValue(v[0])
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}

var _ Engine = (*Bleve)(nil)
