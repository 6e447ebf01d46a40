package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/amansearch/internal/engine"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

const (
	// DefaultMaxResults caps a search when criteria do not set a limit.
	DefaultMaxResults = 500
	// DefaultIndexType is the classification the convenience search path is
	// scoped to.
	DefaultIndexType = "content"
)

// Occurrence controls how the clauses added next combine with the rest.
type Occurrence int

const (
	// Should clauses are alternatives; at least one must match when no Must
	// clause is present.
	Should Occurrence = iota
	// Must clauses all have to match.
	Must
	// Not clauses exclude matching documents.
	Not
)

// CriteriaBuilder creates criteria for the searcher that owns it. Criteria
// from one builder are rejected by every other searcher.
type CriteriaBuilder struct {
	analyzer   string
	maxResults int
}

func newCriteriaBuilder(analyzer string, maxResults int) *CriteriaBuilder {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &CriteriaBuilder{analyzer: analyzer, maxResults: maxResults}
}

// NewCriteria starts criteria scoped to documents classified as indexType.
// An empty indexType matches every classification.
func (b *CriteriaBuilder) NewCriteria(indexType string) *Criteria {
	return &Criteria{
		origin:     b,
		indexType:  indexType,
		maxResults: b.maxResults,
	}
}

// Criteria accumulates query clauses until Compile. Methods chain; the first
// error is kept and returned by Compile.
type Criteria struct {
	origin     *CriteriaBuilder
	indexType  string
	maxResults int

	occur   Occurrence
	must    []query.Query
	should  []query.Query
	mustNot []query.Query

	err      error
	compiled *SearchCriteria
}

// SearchCriteria is compiled, immutable criteria ready for execution.
type SearchCriteria struct {
	origin     *CriteriaBuilder
	indexType  string
	maxResults int
	query      query.Query
}

// MaxResults returns the hit cap.
func (c *SearchCriteria) MaxResults() int { return c.maxResults }

// IndexType returns the classification the criteria are scoped to.
func (c *SearchCriteria) IndexType() string { return c.indexType }

// Query returns the compiled engine query.
func (c *SearchCriteria) Query() query.Query { return c.query }

// Must makes following clauses required.
func (c *Criteria) Must() *Criteria { return c.setOccur(Must) }

// Should makes following clauses optional alternatives.
func (c *Criteria) Should() *Criteria { return c.setOccur(Should) }

// Not makes following clauses exclusions.
func (c *Criteria) Not() *Criteria { return c.setOccur(Not) }

func (c *Criteria) setOccur(o Occurrence) *Criteria {
	if c.mutable() {
		c.occur = o
	}
	return c
}

// MaxResults caps the number of hits. n <= 0 selects the builder default.
func (c *Criteria) MaxResults(n int) *Criteria {
	if !c.mutable() {
		return c
	}
	if n <= 0 {
		n = c.origin.maxResults
	}
	c.maxResults = n
	return c
}

// Field matches text against one field.
func (c *Criteria) Field(name, text string) *Criteria {
	if !c.mutable() {
		return c
	}
	if name == "" {
		return c.fail(amerrors.ValidationError("field name is required", nil))
	}
	return c.add(c.match(name, text))
}

// Fields matches text against any of names.
func (c *Criteria) Fields(names []string, text string) *Criteria {
	if !c.mutable() {
		return c
	}
	if len(names) == 0 {
		return c.fail(amerrors.ValidationError("at least one field is required", nil))
	}
	clauses := make([]query.Query, 0, len(names))
	for _, name := range names {
		clauses = append(clauses, c.match(name, text))
	}
	return c.add(bleve.NewDisjunctionQuery(clauses...))
}

// Wildcard matches pattern against any of names. Pattern uses * for any run
// of characters and ? for one character. Analyzed fields hold lowercase
// terms while raw fields keep their case, so a pattern with capitals is
// tried both lowercased and verbatim.
func (c *Criteria) Wildcard(names []string, pattern string) *Criteria {
	if !c.mutable() {
		return c
	}
	if len(names) == 0 {
		return c.fail(amerrors.ValidationError("at least one field is required", nil))
	}
	patterns := []string{strings.ToLower(pattern)}
	if patterns[0] != pattern {
		patterns = append(patterns, pattern)
	}
	clauses := make([]query.Query, 0, len(names)*len(patterns))
	for _, name := range names {
		for _, p := range patterns {
			wq := bleve.NewWildcardQuery(p)
			wq.SetField(name)
			clauses = append(clauses, wq)
		}
	}
	return c.add(bleve.NewDisjunctionQuery(clauses...))
}

// Phrase matches text as a phrase in one field.
func (c *Criteria) Phrase(name, text string) *Criteria {
	if !c.mutable() {
		return c
	}
	pq := bleve.NewMatchPhraseQuery(text)
	pq.SetField(name)
	if c.origin.analyzer != "" {
		pq.Analyzer = c.origin.analyzer
	}
	return c.add(pq)
}

// ParseQuery adds a clause in the engine's query string syntax, for example
// `title:hello +body:world`.
func (c *Criteria) ParseQuery(text string) *Criteria {
	if !c.mutable() {
		return c
	}
	qsq := bleve.NewQueryStringQuery(text)
	if _, err := qsq.Parse(); err != nil {
		return c.fail(amerrors.New(amerrors.ErrCodeInvalidQuery,
			fmt.Sprintf("invalid query %q", text), err))
	}
	return c.add(qsq)
}

// Compile freezes the criteria. Criteria without clauses match every document
// of their classification. Compiling twice returns the same result.
func (c *Criteria) Compile() (*SearchCriteria, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.compiled != nil {
		return c.compiled, nil
	}

	var q query.Query
	if len(c.must)+len(c.should)+len(c.mustNot) == 0 {
		q = bleve.NewMatchAllQuery()
	} else {
		q = query.NewBooleanQuery(c.must, c.should, c.mustNot)
	}

	if c.indexType != "" {
		tq := bleve.NewTermQuery(c.indexType)
		tq.SetField(engine.FieldIndexType)
		q = bleve.NewConjunctionQuery(tq, q)
	}

	c.compiled = &SearchCriteria{
		origin:     c.origin,
		indexType:  c.indexType,
		maxResults: c.maxResults,
		query:      q,
	}
	return c.compiled, nil
}

// Err returns the first error recorded while building.
func (c *Criteria) Err() error { return c.err }

func (c *Criteria) match(name, text string) query.Query {
	mq := bleve.NewMatchQuery(text)
	mq.SetField(name)
	if c.origin.analyzer != "" {
		mq.Analyzer = c.origin.analyzer
	}
	return mq
}

func (c *Criteria) add(q query.Query) *Criteria {
	switch c.occur {
	case Must:
		c.must = append(c.must, q)
	case Not:
		c.mustNot = append(c.mustNot, q)
	default:
		c.should = append(c.should, q)
	}
	return c
}

// mutable reports whether clauses may still be added. Mutating compiled
// criteria records an error instead.
func (c *Criteria) mutable() bool {
	if c.err != nil {
		return false
	}
	if c.compiled != nil {
		c.err = amerrors.New(amerrors.ErrCodeCriteriaFrozen, "criteria are already compiled", nil)
		return false
	}
	return true
}

func (c *Criteria) fail(err error) *Criteria {
	if c.err == nil {
		c.err = err
	}
	return c
}
