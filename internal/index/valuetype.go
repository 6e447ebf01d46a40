package index

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Built-in value type names.
const (
	TypeFullText = "fulltext"
	TypeRaw      = "raw"
	TypeNumber   = "number"
	TypeDateTime = "datetime"
	TypeBoolean  = "boolean"
)

// ValueType controls how one field's raw values are indexed and stored.
type ValueType interface {
	// FieldMapping returns the engine mapping for the field. analyzer is the
	// index's engine analyzer.
	FieldMapping(analyzer string) *mapping.FieldMapping
	// Convert turns raw values into an engine value. Several values become
	// a multi-valued field.
	Convert(values []string) (any, error)
}

// ValueTypeFactory constructs a ValueType for a field.
type ValueTypeFactory func() ValueType

// DefaultValueTypes returns the built-in factories keyed by type name.
func DefaultValueTypes() map[string]ValueTypeFactory {
	return map[string]ValueTypeFactory{
		TypeFullText: func() ValueType { return fullText{} },
		TypeRaw:      func() ValueType { return raw{} },
		TypeNumber:   func() ValueType { return number{} },
		TypeDateTime: func() ValueType { return dateTime{} },
		TypeBoolean:  func() ValueType { return boolean{} },
	}
}

// fullText is analyzed, stored text.
type fullText struct{}

func (fullText) FieldMapping(analyzer string) *mapping.FieldMapping {
	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = analyzer
	return fm
}

func (fullText) Convert(values []string) (any, error) {
	return textValue(values), nil
}

// raw is stored text indexed as a single exact term.
type raw struct{}

func (raw) FieldMapping(string) *mapping.FieldMapping {
	return bleve.NewKeywordFieldMapping()
}

func (raw) Convert(values []string) (any, error) {
	return textValue(values), nil
}

type number struct{}

func (number) FieldMapping(string) *mapping.FieldMapping {
	return bleve.NewNumericFieldMapping()
}

func (number) Convert(values []string) (any, error) {
	return convertEach(values, func(s string) (any, error) {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	})
}

// dateTime accepts RFC 3339 timestamps.
type dateTime struct{}

func (dateTime) FieldMapping(string) *mapping.FieldMapping {
	return bleve.NewDateTimeFieldMapping()
}

func (dateTime) Convert(values []string) (any, error) {
	return convertEach(values, func(s string) (any, error) {
		return time.Parse(time.RFC3339, strings.TrimSpace(s))
	})
}

type boolean struct{}

func (boolean) FieldMapping(string) *mapping.FieldMapping {
	return bleve.NewBooleanFieldMapping()
}

func (boolean) Convert(values []string) (any, error) {
	return convertEach(values, func(s string) (any, error) {
		return strconv.ParseBool(strings.TrimSpace(s))
	})
}

func textValue(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	return append([]string(nil), values...)
}

func convertEach(values []string, parse func(string) (any, error)) (any, error) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		parsed, err := parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", v, err)
		}
		out = append(out, parsed)
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}
