package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Aman-CERP/amansearch/internal/engine"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

// materialize reads stored fields for every hit, drops exact duplicates and
// ranks the rest. Any hit without a usable id fails the whole call.
func materialize(ctx context.Context, h engine.ReadHandle, hits []engine.Hit) ([]SearchResult, error) {
	results := make([]SearchResult, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))

	for _, hit := range hits {
		stored, err := h.ReadStoredFields(ctx, hit.Ref)
		if err != nil {
			return nil, err
		}

		r, err := newResult(hit, stored)
		if err != nil {
			return nil, err
		}

		key := r.fingerprint()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		results = append(results, r)
	}

	sortResults(results)
	return results, nil
}

func newResult(hit engine.Hit, stored map[string]string) (SearchResult, error) {
	raw, ok := stored[engine.FieldID]
	if !ok {
		return SearchResult{}, amerrors.ResultCorruptError(hit.Ref.ID,
			fmt.Sprintf("stored field %q is missing", engine.FieldID), nil)
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return SearchResult{}, amerrors.ResultCorruptError(hit.Ref.ID,
			fmt.Sprintf("stored field %q is not an integer: %q", engine.FieldID, raw), err)
	}

	fields := make(map[string]string, len(stored))
	for name, value := range stored {
		if IsReservedField(name) {
			continue
		}
		fields[name] = value
	}

	return SearchResult{ID: id, Score: hit.Score, Fields: fields}, nil
}
