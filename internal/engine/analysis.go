package engine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/registry"

	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

// Logical analyzer names accepted in index options and configuration.
const (
	AnalyzerStandard = "standard"
	AnalyzerSimple   = "simple"
	AnalyzerKeyword  = "keyword"
	AnalyzerEnglish  = "english"
	AnalyzerCode     = "code"
)

const (
	codeTokenizerName  = "amansearch_code_tokenizer"
	codeStopFilterName = "amansearch_code_stop"
	codeAnalyzerName   = "amansearch_code"
)

func init() {
	_ = registry.RegisterTokenizer(codeTokenizerName, codeTokenizerConstructor)
	_ = registry.RegisterTokenFilter(codeStopFilterName, codeStopFilterConstructor)
	_ = registry.RegisterAnalyzer(codeAnalyzerName, codeAnalyzerConstructor)
}

// AnalyzerCatalog maps logical analyzer names to engine analyzers. It
// replaces selecting analyzer implementations by type name at runtime: an
// unknown name fails when options are built, not when a query runs.
type AnalyzerCatalog struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewAnalyzerCatalog returns a catalog holding the built-in analyzers.
func NewAnalyzerCatalog() *AnalyzerCatalog {
	return &AnalyzerCatalog{
		names: map[string]string{
			AnalyzerStandard: standard.Name,
			AnalyzerSimple:   simple.Name,
			AnalyzerKeyword:  keyword.Name,
			AnalyzerEnglish:  en.AnalyzerName,
			AnalyzerCode:     codeAnalyzerName,
		},
	}
}

// Register adds a logical name for an analyzer already registered with the
// engine registry.
func (c *AnalyzerCatalog) Register(name, engineName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.names[name]; exists {
		return amerrors.DuplicateNameError("analyzer", name)
	}
	c.names[name] = engineName
	return nil
}

// Resolve returns the engine analyzer for a logical name. An empty name
// resolves to the standard analyzer.
func (c *AnalyzerCatalog) Resolve(name string) (string, error) {
	if name == "" {
		name = AnalyzerStandard
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	engineName, ok := c.names[strings.ToLower(name)]
	if !ok {
		return "", amerrors.New(amerrors.ErrCodeUnknownAnalyzer,
			fmt.Sprintf("unknown analyzer name %q", name), nil).
			WithDetail("analyzer", name).
			WithSuggestion("Use one of: " + strings.Join(c.namesLocked(), ", "))
	}
	return engineName, nil
}

// Names returns the registered logical names in sorted order.
func (c *AnalyzerCatalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.namesLocked()
}

func (c *AnalyzerCatalog) namesLocked() []string {
	names := make([]string, 0, len(c.names))
	for n := range c.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// codeAnalyzerConstructor builds the code analyzer: identifier-aware
// tokenization, lowercasing, then stop word removal.
func codeAnalyzerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Analyzer, error) {
	tokenizer, err := cache.TokenizerNamed(codeTokenizerName)
	if err != nil {
		return nil, err
	}
	toLower, err := cache.TokenFilterNamed(lowercase.Name)
	if err != nil {
		return nil, err
	}
	stop, err := cache.TokenFilterNamed(codeStopFilterName)
	if err != nil {
		return nil, err
	}
	return &analysis.DefaultAnalyzer{
		Tokenizer:    tokenizer,
		TokenFilters: []analysis.TokenFilter{toLower, stop},
	}, nil
}

// tokenRegex matches alphanumeric runs, keeping underscores for the
// snake_case split.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

func codeTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &codeTokenizer{}, nil
}

// codeTokenizer splits camelCase, PascalCase and snake_case identifiers and
// drops tokens shorter than two characters.
type codeTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *codeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	stream := make(analysis.TokenStream, 0)
	pos := 1

	for _, loc := range tokenRegex.FindAllIndex(input, -1) {
		word := string(input[loc[0]:loc[1]])
		offset := loc[0]

		for _, part := range splitIdentifier(word) {
			start := offset + strings.Index(word[offset-loc[0]:], part)
			end := start + len(part)
			offset = end
			if len(part) < 2 {
				continue
			}
			stream = append(stream, &analysis.Token{
				Term:     []byte(part),
				Start:    start,
				End:      end,
				Position: pos,
				Type:     analysis.AlphaNumeric,
			})
			pos++
		}
	}

	return stream
}

// splitIdentifier splits snake_case first, then camelCase within each part.
func splitIdentifier(word string) []string {
	var parts []string
	for _, p := range strings.Split(word, "_") {
		if p != "" {
			parts = append(parts, splitCamelCase(p)...)
		}
	}
	return parts
}

// splitCamelCase splits camelCase and PascalCase identifiers:
// "parseHTTPRequest" -> ["parse", "HTTP", "Request"].
func splitCamelCase(s string) []string {
	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if (prevIsLower || nextIsLower) && current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

var defaultStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "if", "in",
	"is", "it", "of", "on", "or", "the", "to", "with",
}

func codeStopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	stop := make(map[string]struct{}, len(defaultStopWords))
	for _, w := range defaultStopWords {
		stop[w] = struct{}{}
	}
	return &stopFilter{words: stop}, nil
}

type stopFilter struct {
	words map[string]struct{}
}

// Filter implements analysis.TokenFilter. Input is already lowercased.
func (f *stopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if _, isStop := f.words[string(token.Term)]; !isStop {
			result = append(result, token)
		}
	}
	return result
}
