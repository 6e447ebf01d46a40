package index

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amansearch/internal/directory"
	"github.com/Aman-CERP/amansearch/internal/engine"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
	"github.com/Aman-CERP/amansearch/internal/search"
)

func newIndex(t *testing.T, e engine.Engine, name string, opts ...Option) *Index {
	t.Helper()
	o, err := BuildOptions(name, engine.NewAnalyzerCatalog(), directory.NewMemory("index-test"), opts...)
	require.NoError(t, err)
	idx, err := New(e, o, nil)
	require.NoError(t, err)
	return idx
}

func TestBuildOptions_Defaults(t *testing.T) {
	def := directory.NewMemory("")

	o, err := BuildOptions("docs", engine.NewAnalyzerCatalog(), def)

	require.NoError(t, err)
	assert.Equal(t, "docs", o.Name())
	assert.Equal(t, engine.AnalyzerStandard, o.Analyzer())
	assert.Equal(t, "standard", o.EngineAnalyzer())
	assert.Equal(t, search.DefaultIndexType, o.DefaultIndexType())
	assert.Same(t, def, o.Directory())
	assert.Empty(t, o.Fields())
	assert.Nil(t, o.Validator())
}

func TestBuildOptions_LaterOverridesWin(t *testing.T) {
	override := directory.NewMemory("override")

	o, err := BuildOptions("docs", engine.NewAnalyzerCatalog(), directory.NewMemory(""),
		WithAnalyzer("simple"),
		WithField("title", TypeFullText),
		WithAnalyzer("english"),
		WithField("tag", TypeRaw),
		WithDirectory(override),
		WithMaxResults(20),
	)

	require.NoError(t, err)
	assert.Equal(t, "english", o.Analyzer())
	assert.Equal(t, []FieldDefinition{{"title", TypeFullText}, {"tag", TypeRaw}}, o.Fields())
	assert.Same(t, override, o.Directory())
	assert.Equal(t, 20, o.MaxResults())
}

func TestBuildOptions_Rejects(t *testing.T) {
	catalog := engine.NewAnalyzerCatalog()
	def := directory.NewMemory("")

	tests := []struct {
		name string
		idx  string
		def  directory.Factory
		opts []Option
		want error
	}{
		{"bad name", "a/b", def, nil, amerrors.ErrConfiguration},
		{"unknown analyzer", "docs", def, []Option{WithAnalyzer("klingon")}, amerrors.ErrUnknownAnalyzer},
		{"reserved field", "docs", def, []Option{WithField("id", TypeRaw)}, amerrors.ErrConfiguration},
		{"duplicate field", "docs", def, []Option{WithField("a", TypeRaw), WithField("a", TypeNumber)}, amerrors.ErrConfiguration},
		{"no directory", "docs", nil, nil, amerrors.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildOptions(tt.idx, catalog, tt.def, tt.opts...)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := BuildOptions("docs", catalog, def, WithField("a", "geo"))
	assert.Equal(t, amerrors.ErrCodeUnknownValueType, amerrors.GetCode(err))
}

func TestBuildOptions_NilValueTypeFactory(t *testing.T) {
	// Given a value type registered without a factory
	// When a field uses it
	_, err := BuildOptions("docs", engine.NewAnalyzerCatalog(), directory.NewMemory(""),
		WithValueType("custom", nil),
		WithField("f", "custom"),
	)

	// Then the options are rejected instead of failing later in mapping
	assert.Equal(t, amerrors.ErrCodeUnknownValueType, amerrors.GetCode(err))
}

func TestBuildOptions_CustomValueType(t *testing.T) {
	o, err := BuildOptions("docs", engine.NewAnalyzerCatalog(), directory.NewMemory(""),
		WithValueType("tag", func() ValueType { return raw{} }),
		WithField("label", "tag"),
	)

	require.NoError(t, err)
	assert.IsType(t, raw{}, o.ValueType("label"))
	assert.IsType(t, fullText{}, o.ValueType("undeclared"))
}

func TestIndex_WriteThenSearch(t *testing.T) {
	// Given: an index with typed fields
	e := engine.NewBleve()
	defer func() { _ = e.Close() }()
	idx := newIndex(t, e, "articles",
		WithField("title", TypeFullText),
		WithField("tag", TypeRaw),
		WithField("views", TypeNumber),
		WithField("published", TypeDateTime),
		WithField("featured", TypeBoolean),
	)

	// When: writing a value set
	res, err := idx.Write(context.Background(), []ValueSet{{
		ID: "42",
		Values: map[string][]string{
			"title":     {"hello world"},
			"tag":       {"Go Lang"},
			"views":     {"120"},
			"published": {"2024-01-02T03:04:05Z"},
			"featured":  {"true"},
			"notes":     {"undeclared text"},
		},
	}})
	require.NoError(t, err)
	assert.Equal(t, WriteResult{Indexed: 1}, res)

	// Then: the convenience search finds it with every stored field
	s := idx.Searcher()
	results, err := s.Search(context.Background(), "hello", 10, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 42, results[0].ID)
	assert.Equal(t, map[string]string{
		"title":     "hello world",
		"tag":       "Go Lang",
		"views":     "120",
		"published": "2024-01-02T03:04:05Z",
		"featured":  "true",
		"notes":     "undeclared text",
	}, results[0].Fields)

	// And: raw fields match only the exact value
	c, err := s.CriteriaBuilder().NewCriteria("").Field("tag", "Go Lang").Compile()
	require.NoError(t, err)
	results, err = s.SearchCriteria(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	c, err = s.CriteriaBuilder().NewCriteria("").Field("tag", "go").Compile()
	require.NoError(t, err)
	results, err = s.SearchCriteria(context.Background(), c)
	require.NoError(t, err)
	assert.Empty(t, results)

	// And: numeric ranges work through the query syntax
	c, err = s.CriteriaBuilder().NewCriteria("").ParseQuery("views:>=100").Compile()
	require.NoError(t, err)
	results, err = s.SearchCriteria(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestIndex_Write_ValidatorSkips(t *testing.T) {
	e := engine.NewBleve()
	defer func() { _ = e.Close() }()
	idx := newIndex(t, e, "people", WithValidator(RequireFields("name")))

	res, err := idx.Write(context.Background(), []ValueSet{
		{ID: "1", Values: map[string][]string{"name": {"ada"}}},
		{ID: "2", Values: map[string][]string{"name": {"  "}}},
		{ID: "3", Values: map[string][]string{"email": {"x@example.com"}}},
	})

	require.NoError(t, err)
	assert.Equal(t, WriteResult{Indexed: 1, Skipped: 2}, res)
	count, err := idx.DocCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIndex_Write_MalformedSetWritesNothing(t *testing.T) {
	tests := []struct {
		name string
		set  ValueSet
	}{
		{"non-integer id", ValueSet{ID: "abc"}},
		{"reserved field", ValueSet{ID: "2", Values: map[string][]string{"__IndexType": {"x"}}}},
		{"bad number", ValueSet{ID: "3", Values: map[string][]string{"views": {"many"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a filesystem index never written to
			e := engine.NewBleve()
			defer func() { _ = e.Close() }()
			o, err := BuildOptions("strict", engine.NewAnalyzerCatalog(),
				directory.NewFileSystem(t.TempDir()), WithField("views", TypeNumber))
			require.NoError(t, err)
			idx, err := New(e, o, nil)
			require.NoError(t, err)

			// When: writing a good set and a malformed one
			_, err = idx.Write(context.Background(), []ValueSet{
				{ID: "1", Values: map[string][]string{"views": {"1"}}},
				tt.set,
			})

			// Then: validation fails and the index is not created
			assert.Equal(t, amerrors.ErrCodeInvalidInput, amerrors.GetCode(err))
			assert.False(t, idx.Exists())
		})
	}
}

func TestIndex_DeleteAndCount(t *testing.T) {
	e := engine.NewBleve()
	defer func() { _ = e.Close() }()
	idx := newIndex(t, e, "counted")

	count, err := idx.DocCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
	require.NoError(t, idx.Delete(context.Background(), []string{"1"}))

	_, err = idx.Write(context.Background(), []ValueSet{
		{ID: "1", Values: map[string][]string{"a": {"x"}}},
		{ID: "2", Values: map[string][]string{"a": {"y"}}},
	})
	require.NoError(t, err)
	require.NoError(t, idx.Delete(context.Background(), []string{"1"}))

	count, err = idx.DocCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestIndex_Close_SyncsWorkingCopy(t *testing.T) {
	// Given: an index on a synced temp directory
	e := engine.NewBleve()
	defer func() { _ = e.Close() }()
	main := t.TempDir()
	o, err := BuildOptions("synced", engine.NewAnalyzerCatalog(),
		directory.NewSyncedTemp(main, t.TempDir()))
	require.NoError(t, err)
	idx, err := New(e, o, nil)
	require.NoError(t, err)

	_, err = idx.Write(context.Background(), []ValueSet{{ID: "1", Values: map[string][]string{"a": {"x"}}}})
	require.NoError(t, err)

	// When: the index is closed
	require.NoError(t, idx.Close())

	// Then: the main location holds a built index
	mainLoc, err := directory.NewFileSystem(main).Resolve("synced")
	require.NoError(t, err)
	assert.True(t, mainLoc.Exists())
	assert.Equal(t, filepath.Join(main, "synced"), idx.Location().SyncPath)

	// And: the index refuses further writes
	_, err = idx.Write(context.Background(), []ValueSet{{ID: "2"}})
	assert.Error(t, err)
	require.NoError(t, idx.Close())
}

func TestRequireFields(t *testing.T) {
	v := RequireFields("a", "b")

	assert.NoError(t, v(ValueSet{Values: map[string][]string{"a": {"1"}, "b": {"", "2"}}}))
	err := v(ValueSet{Values: map[string][]string{"a": {"1"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
}

func TestValueTypes_Convert(t *testing.T) {
	types := DefaultValueTypes()

	v, err := types[TypeNumber]().Convert([]string{"1", "2.5"})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.5}, v)

	v, err = types[TypeBoolean]().Convert([]string{"false"})
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = types[TypeDateTime]().Convert([]string{"yesterday"})
	assert.Error(t, err)

	v, err = types[TypeFullText]().Convert([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, v)
}
