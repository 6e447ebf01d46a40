package search

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// SearchResult is one ranked match. Fields holds the document's stored
// fields as text; reserved fields are not repeated there.
type SearchResult struct {
	ID     int               `json:"id"`
	Score  float64           `json:"score"`
	Fields map[string]string `json:"fields,omitempty"`
}

// fingerprint identifies a result by its full content. Two results with the
// same id, score and fields share a fingerprint.
func (r SearchResult) fingerprint() string {
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(strconv.Itoa(r.ID))
	b.WriteByte(0)
	b.WriteString(strconv.FormatUint(math.Float64bits(r.Score), 16))
	for _, name := range names {
		b.WriteByte(0)
		b.WriteString(strconv.Quote(name))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(r.Fields[name]))
	}
	return b.String()
}

// sortResults orders by score descending, then id ascending. Results equal
// on both keep their input order.
func sortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}
