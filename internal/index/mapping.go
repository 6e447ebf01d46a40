package index

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/amansearch/internal/engine"
)

// buildMapping derives the engine mapping from options. Reserved fields are
// stored as exact terms and kept out of the composite field; undeclared
// fields fall back to dynamic full text.
func buildMapping(opts *Options) *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = opts.EngineAnalyzer()

	dm := bleve.NewDocumentMapping()
	dm.AddFieldMappingsAt(engine.FieldID, reservedField())
	dm.AddFieldMappingsAt(engine.FieldIndexType, reservedField())

	for _, f := range opts.Fields() {
		dm.AddFieldMappingsAt(f.Name, opts.ValueType(f.Name).FieldMapping(opts.EngineAnalyzer()))
	}

	im.DefaultMapping = dm
	return im
}

func reservedField() *mapping.FieldMapping {
	fm := bleve.NewKeywordFieldMapping()
	fm.IncludeInAll = false
	return fm
}
