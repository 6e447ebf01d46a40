package search

import (
	"testing"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

func newTestMapping() mapping.IndexMapping {
	return bleve.NewIndexMapping()
}

func TestCriteria_Defaults(t *testing.T) {
	b := newCriteriaBuilder("", 0)

	c, err := b.NewCriteria("").Compile()

	require.NoError(t, err)
	assert.Equal(t, DefaultMaxResults, c.MaxResults())
	assert.Equal(t, "", c.IndexType())
	_, isMatchAll := c.Query().(*query.MatchAllQuery)
	assert.True(t, isMatchAll)
}

func TestCriteria_IndexTypeScopesQuery(t *testing.T) {
	b := newCriteriaBuilder("", 0)

	c, err := b.NewCriteria("content").Field("title", "x").Compile()

	require.NoError(t, err)
	assert.Equal(t, "content", c.IndexType())
	_, isConjunction := c.Query().(*query.ConjunctionQuery)
	assert.True(t, isConjunction)
}

func TestCriteria_MaxResults(t *testing.T) {
	b := newCriteriaBuilder("", 50)

	c, err := b.NewCriteria("").MaxResults(7).Compile()
	require.NoError(t, err)
	assert.Equal(t, 7, c.MaxResults())

	c, err = b.NewCriteria("").MaxResults(-1).Compile()
	require.NoError(t, err)
	assert.Equal(t, 50, c.MaxResults())
}

func TestCriteria_FrozenAfterCompile(t *testing.T) {
	// Given: compiled criteria
	crit := newCriteriaBuilder("", 0).NewCriteria("").Field("title", "x")
	first, err := crit.Compile()
	require.NoError(t, err)

	// Then: compiling again returns the same instance
	again, err := crit.Compile()
	require.NoError(t, err)
	assert.Same(t, first, again)

	// When: adding a clause afterwards
	crit.Field("body", "y")

	// Then: the mutation is refused
	assert.Equal(t, amerrors.ErrCodeCriteriaFrozen, amerrors.GetCode(crit.Err()))
	_, err = crit.Compile()
	assert.Error(t, err)
}

func TestCriteria_ValidationErrors(t *testing.T) {
	b := newCriteriaBuilder("", 0)

	tests := []struct {
		name string
		crit *Criteria
		code string
	}{
		{"empty field name", b.NewCriteria("").Field("", "x"), amerrors.ErrCodeInvalidInput},
		{"no fields", b.NewCriteria("").Fields(nil, "x"), amerrors.ErrCodeInvalidInput},
		{"no wildcard fields", b.NewCriteria("").Wildcard(nil, "x*"), amerrors.ErrCodeInvalidInput},
		{"unterminated phrase", b.NewCriteria("").ParseQuery(`title:"unterminated`), amerrors.ErrCodeInvalidQuery},
		{"dangling operator", b.NewCriteria("").ParseQuery("+"), amerrors.ErrCodeInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.crit.Compile()
			assert.Equal(t, tt.code, amerrors.GetCode(err))
		})
	}
}

func TestCriteria_FirstErrorWins(t *testing.T) {
	c := newCriteriaBuilder("", 0).NewCriteria("").
		Field("", "x").
		ParseQuery(`title:"unterminated`)

	assert.Equal(t, amerrors.ErrCodeInvalidInput, amerrors.GetCode(c.Err()))
}

func TestResult_Fingerprint(t *testing.T) {
	a := SearchResult{ID: 1, Score: 0.5, Fields: map[string]string{"a": "x", "b": "y"}}
	b := SearchResult{ID: 1, Score: 0.5, Fields: map[string]string{"b": "y", "a": "x"}}
	c := SearchResult{ID: 1, Score: 0.5, Fields: map[string]string{"a": "x=b"}}
	d := SearchResult{ID: 1, Score: 0.25, Fields: map[string]string{"a": "x", "b": "y"}}

	assert.Equal(t, a.fingerprint(), b.fingerprint())
	assert.NotEqual(t, a.fingerprint(), c.fingerprint())
	assert.NotEqual(t, a.fingerprint(), d.fingerprint())
}
