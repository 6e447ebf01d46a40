package index

import (
	"fmt"

	"github.com/Aman-CERP/amansearch/internal/directory"
	"github.com/Aman-CERP/amansearch/internal/engine"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
	"github.com/Aman-CERP/amansearch/internal/search"
)

// FieldDefinition declares one field and its value type name.
type FieldDefinition struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Options is the frozen configuration of one index. Build it with
// BuildOptions; accessors return copies.
type Options struct {
	name             string
	analyzer         string
	engineAnalyzer   string
	fields           []FieldDefinition
	validator        Validator
	valueTypes       map[string]ValueTypeFactory
	directory        directory.Factory
	defaultIndexType string
	maxResults       int
}

// Option overrides one setting while options are built. Options apply in
// order, so later ones win.
type Option func(*settings)

// settings is the mutable form of Options used during building.
type settings struct {
	analyzer         string
	fields           []FieldDefinition
	validator        Validator
	valueTypes       map[string]ValueTypeFactory
	directory        directory.Factory
	defaultIndexType string
	maxResults       int
}

// WithAnalyzer selects the analyzer by logical name.
func WithAnalyzer(name string) Option {
	return func(s *settings) {
		s.analyzer = name
	}
}

// WithFields declares fields. Repeated use appends.
func WithFields(defs ...FieldDefinition) Option {
	return func(s *settings) {
		s.fields = append(s.fields, defs...)
	}
}

// WithField declares one field.
func WithField(name, valueType string) Option {
	return WithFields(FieldDefinition{Name: name, Type: valueType})
}

// WithValidator sets the predicate deciding which value sets are indexed.
// Repeated use combines validators; all must accept.
func WithValidator(v Validator) Option {
	return func(s *settings) {
		if s.validator == nil {
			s.validator = v
			return
		}
		s.validator = All(s.validator, v)
	}
}

// WithValueType registers or replaces a value type factory.
func WithValueType(name string, factory ValueTypeFactory) Option {
	return func(s *settings) {
		s.valueTypes[name] = factory
	}
}

// WithDirectory overrides the directory factory.
func WithDirectory(f directory.Factory) Option {
	return func(s *settings) {
		s.directory = f
	}
}

// WithDefaultIndexType sets the classification written when a value set has
// none and used by the index's convenience search.
func WithDefaultIndexType(indexType string) Option {
	return func(s *settings) {
		s.defaultIndexType = indexType
	}
}

// WithMaxResults sets the default hit cap of the index's searchers.
func WithMaxResults(n int) Option {
	return func(s *settings) {
		s.maxResults = n
	}
}

// BuildOptions layers opts over the defaults (standard analyzer, built-in
// value types, directory factory def) and validates the result.
func BuildOptions(name string, catalog *engine.AnalyzerCatalog, def directory.Factory, opts ...Option) (*Options, error) {
	if err := directory.ValidateName(name); err != nil {
		return nil, err
	}

	s := &settings{
		analyzer:         engine.AnalyzerStandard,
		valueTypes:       DefaultValueTypes(),
		directory:        def,
		defaultIndexType: search.DefaultIndexType,
	}
	for _, opt := range opts {
		opt(s)
	}

	engineAnalyzer, err := catalog.Resolve(s.analyzer)
	if err != nil {
		return nil, err
	}
	if s.directory == nil {
		return nil, amerrors.ConfigError(fmt.Sprintf("index %q has no directory factory", name), nil)
	}

	seen := make(map[string]struct{}, len(s.fields))
	for _, f := range s.fields {
		switch {
		case f.Name == "":
			return nil, amerrors.ConfigError(fmt.Sprintf("index %q declares a field without a name", name), nil)
		case isReserved(f.Name):
			return nil, amerrors.ConfigError(
				fmt.Sprintf("index %q declares reserved field %q", name, f.Name), nil)
		}
		if _, dup := seen[f.Name]; dup {
			return nil, amerrors.ConfigError(
				fmt.Sprintf("index %q declares field %q twice", name, f.Name), nil)
		}
		seen[f.Name] = struct{}{}

		if factory, ok := s.valueTypes[f.Type]; !ok || factory == nil {
			return nil, amerrors.New(amerrors.ErrCodeUnknownValueType,
				fmt.Sprintf("field %q of index %q has unknown value type %q", f.Name, name, f.Type), nil).
				WithDetail("index", name).
				WithDetail("field", f.Name)
		}
	}

	return &Options{
		name:             name,
		analyzer:         s.analyzer,
		engineAnalyzer:   engineAnalyzer,
		fields:           append([]FieldDefinition(nil), s.fields...),
		validator:        s.validator,
		valueTypes:       s.valueTypes,
		directory:        s.directory,
		defaultIndexType: s.defaultIndexType,
		maxResults:       s.maxResults,
	}, nil
}

// Name returns the index name.
func (o *Options) Name() string { return o.name }

// Analyzer returns the logical analyzer name.
func (o *Options) Analyzer() string { return o.analyzer }

// EngineAnalyzer returns the engine analyzer the logical name resolved to.
func (o *Options) EngineAnalyzer() string { return o.engineAnalyzer }

// Fields returns the declared fields in declaration order.
func (o *Options) Fields() []FieldDefinition {
	return append([]FieldDefinition(nil), o.fields...)
}

// Validator returns the configured validator, or nil.
func (o *Options) Validator() Validator { return o.validator }

// Directory returns the directory factory.
func (o *Options) Directory() directory.Factory { return o.directory }

// DefaultIndexType returns the default classification.
func (o *Options) DefaultIndexType() string { return o.defaultIndexType }

// MaxResults returns the searcher hit cap, 0 for the default.
func (o *Options) MaxResults() int { return o.maxResults }

// ValueType constructs the value type of a declared field. Undeclared
// fields are full text.
func (o *Options) ValueType(field string) ValueType {
	for _, f := range o.fields {
		if f.Name == field {
			return o.valueTypes[f.Type]()
		}
	}
	return o.valueTypes[TypeFullText]()
}

func isReserved(name string) bool {
	return name == engine.FieldID || name == engine.FieldIndexType
}
