package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amansearch/internal/output"
	"github.com/Aman-CERP/amansearch/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	max       int
	wildcard  bool
	raw       bool
	indexType string
	format    string
}

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <searcher> <query...>",
		Short: "Search a named searcher",
		Long: `Search a named searcher. Every index has a searcher of the same name;
multi-index searchers are declared under multi_searchers.

By default the query text is matched against every field. --wildcard turns
each term into a prefix pattern; --raw passes the text through the bleve
query string syntax (field:value, +must, -not, "phrases", ranges).`,
		Example: `  amansearch search articles "hello world"
  amansearch search articles hel --wildcard
  amansearch search everything --raw '+title:hello -tag:draft'
  amansearch search articles hello --format json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, flags, args[0], strings.Join(args[1:], " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.max, "max", "n", 0, "Maximum number of results (0: configured default)")
	cmd.Flags().BoolVarP(&opts.wildcard, "wildcard", "w", false, "Treat each term as a prefix")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Parse the query with the bleve query string syntax")
	cmd.Flags().StringVarP(&opts.indexType, "type", "t", "", "Document classification to search (default: configured)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", output.FormatText, "Output format: text, json")

	cmd.MarkFlagsMutuallyExclusive("raw", "wildcard")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, flags *rootFlags, name, text string, opts searchOptions) (err error) {
	out := output.New(cmd.OutOrStdout())

	a, err := openApp(flags)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	s, err := a.registry.ResolveSearcher(name)
	if err != nil {
		return err
	}

	var results []search.SearchResult
	if !opts.raw && opts.indexType == "" {
		results, err = s.Search(ctx, text, opts.max, opts.wildcard)
	} else {
		results, err = searchWithCriteria(ctx, s, text, opts)
	}
	if err != nil {
		return err
	}

	return out.Results(name, text, results, opts.format)
}

// searchWithCriteria runs a raw query, or a plain query scoped to a
// non-default classification.
func searchWithCriteria(ctx context.Context, s *search.Searcher, text string, opts searchOptions) ([]search.SearchResult, error) {
	indexType := opts.indexType
	if indexType == "" {
		indexType = s.DefaultIndexType()
	}
	c := s.CriteriaBuilder().NewCriteria(indexType).MaxResults(opts.max)

	if opts.raw {
		c.ParseQuery(text)
	} else {
		fields, err := s.FieldNames(ctx)
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return []search.SearchResult{}, nil
		}
		if opts.wildcard {
			for _, term := range strings.Fields(text) {
				c.Wildcard(fields, term+"*")
			}
		} else {
			c.Fields(fields, text)
		}
	}

	compiled, err := c.Compile()
	if err != nil {
		return nil, err
	}
	return s.SearchCriteria(ctx, compiled)
}
