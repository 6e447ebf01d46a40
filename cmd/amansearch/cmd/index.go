package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
	"github.com/Aman-CERP/amansearch/internal/index"
	"github.com/Aman-CERP/amansearch/internal/output"
)

// documentFile is one value set as read from YAML or JSON input.
type documentFile struct {
	ID        any            `yaml:"id"`
	IndexType string         `yaml:"index_type"`
	Values    map[string]any `yaml:"values"`
}

func newIndexCmd(flags *rootFlags) *cobra.Command {
	var deleteIDs []string

	cmd := &cobra.Command{
		Use:   "index <name> [file...]",
		Short: "Write documents to a named index",
		Long: `Write documents to a named index.

Documents are read from the given YAML or JSON files, or from stdin when no
file (or "-") is given. Input is a list of documents:

  - id: 42
    index_type: content
    values:
      title: Hello world
      tags: [go, search]

Documents failing the index's required fields are skipped and counted.`,
		Example: `  amansearch index articles docs.yaml
  cat docs.json | amansearch index articles
  amansearch index articles --delete 42,43`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, flags, args[0], args[1:], deleteIDs)
		},
	}

	cmd.Flags().StringSliceVar(&deleteIDs, "delete", nil, "Delete documents by id instead of writing")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, flags *rootFlags, name string, files, deleteIDs []string) (err error) {
	out := output.New(cmd.OutOrStdout())

	a, err := openApp(flags)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	idx, err := a.registry.ResolveIndex(name)
	if err != nil {
		return err
	}

	if len(deleteIDs) > 0 {
		if err := idx.Delete(ctx, deleteIDs); err != nil {
			return err
		}
		out.Successf("Deleted %d document(s) from %s", len(deleteIDs), name)
		return nil
	}

	sets, err := readValueSets(cmd.InOrStdin(), files)
	if err != nil {
		return err
	}

	res, err := idx.Write(ctx, sets)
	if err != nil {
		return err
	}

	out.Successf("Indexed %d document(s) into %s", res.Indexed, name)
	if res.Skipped > 0 {
		out.Warningf("Skipped %d document(s) that failed validation", res.Skipped)
	}
	return nil
}

// readValueSets reads documents from files, or stdin for none or "-".
func readValueSets(stdin io.Reader, files []string) ([]index.ValueSet, error) {
	if len(files) == 0 {
		files = []string{"-"}
	}

	var sets []index.ValueSet
	for _, f := range files {
		var (
			data []byte
			err  error
		)
		if f == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(f)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read documents from %s: %w", f, err)
		}
		parsed, err := parseValueSets(data)
		if err != nil {
			return nil, amerrors.ValidationError(fmt.Sprintf("invalid documents in %s", f), err)
		}
		sets = append(sets, parsed...)
	}
	return sets, nil
}

// parseValueSets decodes a YAML or JSON list of documents, or a stream of
// single documents.
func parseValueSets(data []byte) ([]index.ValueSet, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []documentFile
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if len(node.Content) == 0 {
			continue
		}
		switch node.Content[0].Kind {
		case yaml.SequenceNode:
			var list []documentFile
			if err := node.Decode(&list); err != nil {
				return nil, err
			}
			docs = append(docs, list...)
		default:
			var d documentFile
			if err := node.Decode(&d); err != nil {
				return nil, err
			}
			docs = append(docs, d)
		}
	}

	sets := make([]index.ValueSet, 0, len(docs))
	for i, d := range docs {
		if d.ID == nil {
			return nil, fmt.Errorf("document %d has no id", i+1)
		}
		sets = append(sets, index.ValueSet{
			ID:        scalarString(d.ID),
			IndexType: d.IndexType,
			Values:    flattenValues(d.Values),
		})
	}
	return sets, nil
}

func flattenValues(values map[string]any) map[string][]string {
	out := make(map[string][]string, len(values))
	for n, value := range values {
		switch v := value.(type) {
		case nil:
		case []any:
			for _, item := range v {
				if item != nil {
					out[n] = append(out[n], scalarString(item))
				}
			}
		default:
			out[n] = []string{scalarString(v)}
		}
	}
	return out
}

func scalarString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
