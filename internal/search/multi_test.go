package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amansearch/internal/directory"
	"github.com/Aman-CERP/amansearch/internal/engine"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

// Each document comes back with only the fields its own index holds.
func TestMultiIndexSearcher_UnionOfDifferentFields(t *testing.T) {
	// Given: index A with titles and index B with bodies
	e := engine.NewBleve()
	defer func() { _ = e.Close() }()
	a := memTarget(t, e, "a", doc("1", map[string]any{"title": "shared topic"}))
	b := memTarget(t, e, "b", doc("2", map[string]any{"body": "shared topic in a body"}))
	s := NewMultiIndexSearcher("all", e, []Target{a, b})

	// When: searching the union
	results, err := s.Search(context.Background(), "shared", 10, false)

	// Then: both documents come back without forced empty fields
	require.NoError(t, err)
	require.Len(t, results, 2)
	byID := map[int]SearchResult{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.Equal(t, map[string]string{"title": "shared topic"}, byID[1].Fields)
	assert.Equal(t, map[string]string{"body": "shared topic in a body"}, byID[2].Fields)

	// And: the target field list is the union
	names, err := s.FieldNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "title"}, names)
}

func TestMultiIndexSearcher_MissingConstituentFails(t *testing.T) {
	// Given: one built filesystem index and one never built
	e := engine.NewBleve()
	defer func() { _ = e.Close() }()
	fs := directory.NewFileSystem(t.TempDir())
	built, err := fs.Resolve("built")
	require.NoError(t, err)
	missing, err := fs.Resolve("missing")
	require.NoError(t, err)
	writeFS(t, e, built, doc("1", map[string]any{"title": "hello"}))

	s := NewMultiIndexSearcher("pair", e, []Target{
		{Name: "built", Location: built},
		{Name: "missing", Location: missing},
	})

	// When: searching
	_, err = s.Search(context.Background(), "hello", 10, false)

	// Then: IndexNotFound and the built index is released
	assert.True(t, errors.Is(err, amerrors.ErrIndexNotFound))
	assert.Equal(t, 0, e.OpenIndexes())
}

func TestMultiIndexSearcher_NoTargetsReturnsEmpty(t *testing.T) {
	s := NewMultiIndexSearcher("empty", &fakeEngine{}, nil)

	results, err := s.Search(context.Background(), "anything", 10, false)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMultiIndexSearcher_SharedAnalyzer(t *testing.T) {
	// Given: a union searcher whose queries use the keyword analyzer
	e := engine.NewBleve()
	defer func() { _ = e.Close() }()
	a := memTarget(t, e, "kw-a", doc("1", map[string]any{"title": "hello world"}))
	b := memTarget(t, e, "kw-b", doc("2", map[string]any{"title": "hello"}))
	s := NewMultiIndexSearcher("kw", e, []Target{a, b}, WithAnalyzer("keyword"))

	// When: matching the whole phrase as one token
	c, err := s.CriteriaBuilder().NewCriteria("").Field("title", "hello world").Compile()
	require.NoError(t, err)
	results, err := s.SearchCriteria(context.Background(), c)

	// Then: no single indexed term equals the untokenized text
	require.NoError(t, err)
	assert.Empty(t, results)

	// And: a single word still matches both
	c, err = s.CriteriaBuilder().NewCriteria("").Field("title", "hello").Compile()
	require.NoError(t, err)
	results, err = s.SearchCriteria(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func writeFS(t *testing.T, e engine.Engine, loc directory.Location, docs ...engine.Document) {
	t.Helper()
	w, err := e.OpenWriter(context.Background(), loc, newTestMapping())
	require.NoError(t, err)
	require.NoError(t, w.Index(context.Background(), docs))
	require.NoError(t, w.Close())
}
