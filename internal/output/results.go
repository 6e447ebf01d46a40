package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Aman-CERP/amansearch/internal/search"
)

// Formats accepted by Results.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// maxValueWidth truncates long field values in text output.
const maxValueWidth = 120

// resultsJSON is the JSON shape of a result listing.
type resultsJSON struct {
	Searcher string                `json:"searcher"`
	Query    string                `json:"query"`
	Count    int                   `json:"count"`
	Results  []search.SearchResult `json:"results"`
}

// Results renders search results in the given format.
func (w *Writer) Results(searcher, query string, results []search.SearchResult, format string) error {
	switch format {
	case FormatJSON:
		if results == nil {
			results = []search.SearchResult{}
		}
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		return enc.Encode(resultsJSON{
			Searcher: searcher,
			Query:    query,
			Count:    len(results),
			Results:  results,
		})
	case FormatText, "":
		w.resultsText(searcher, query, results)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use: text, json)", format)
	}
}

func (w *Writer) resultsText(searcher, query string, results []search.SearchResult) {
	if len(results) == 0 {
		w.Statusf("🔍", "No results for %q in %s", query, searcher)
		return
	}

	w.Statusf("🔍", "%d result(s) for %q in %s", len(results), query, searcher)
	w.Newline()
	for i, r := range results {
		head := fmt.Sprintf("%d. id=%d", i+1, r.ID)
		_, _ = fmt.Fprintf(w.out, "%s  %s\n",
			w.paint(colorBold, head),
			w.paint(colorDim, fmt.Sprintf("score %.4f", r.Score)))
		for _, name := range sortedFieldNames(r.Fields) {
			_, _ = fmt.Fprintf(w.out, "   %s: %s\n",
				w.paint(colorYellow, name), truncate(r.Fields[name], maxValueWidth))
		}
	}
}

// Fields prints one field name per line.
func (w *Writer) Fields(names []string) {
	for _, n := range names {
		_, _ = fmt.Fprintln(w.out, n)
	}
}

func sortedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
