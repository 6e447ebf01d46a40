package index

import (
	"fmt"
	"strings"
)

// Validator decides whether a value set may be indexed. A non-nil error
// rejects the set; the error text is logged as the reason.
type Validator func(ValueSet) error

// All combines validators; the first rejection wins.
func All(validators ...Validator) Validator {
	return func(vs ValueSet) error {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if err := v(vs); err != nil {
				return err
			}
		}
		return nil
	}
}

// RequireFields rejects value sets missing a non-blank value for any of names.
func RequireFields(names ...string) Validator {
	return func(vs ValueSet) error {
		var missing []string
		for _, n := range names {
			if !hasValue(vs.Values[n]) {
				missing = append(missing, n)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
		}
		return nil
	}
}

func hasValue(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
