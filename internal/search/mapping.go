package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for search documents.
//
// The mapping is designed with these priorities:
//  1. Fast full-text search on titles with English stemming
//  2. Notes and descriptions searchable but not stored (can be large)
//  3. Exact keyword matching for type and trip_id filters
//  4. Numeric range queries on the moment date
//  5. Term vectors enabled on key fields for highlighting
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	// Use English analyzer as default for text fields
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	// Name field - primary search target, boosted
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Description/note - searchable but not stored (too large)
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	descFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// Place - searchable with simple analyzer (no stemming on place names)
	placeFieldMapping := bleve.NewTextFieldMapping()
	placeFieldMapping.Analyzer = simple.Name
	placeFieldMapping.Store = true
	placeFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("place", placeFieldMapping)

	// Event - searchable with simple analyzer
	eventFieldMapping := bleve.NewTextFieldMapping()
	eventFieldMapping.Analyzer = simple.Name
	eventFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("event", eventFieldMapping)

	// --- Keyword fields (exact match, facetable) ---

	// Type - for filtering by document type
	typeFieldMapping := bleve.NewTextFieldMapping()
	typeFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("type", typeFieldMapping)

	// ID - stored but not analyzed
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// Trip ID - exact match filter for access scoping
	tripIDFieldMapping := bleve.NewTextFieldMapping()
	tripIDFieldMapping.Analyzer = keyword.Name
	tripIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("trip_id", tripIDFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	// Moment date - for range filtering
	dateFieldMapping := bleve.NewNumericFieldMapping()
	dateFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("date", dateFieldMapping)

	// Timestamps - for sorting by recency
	createdAtFieldMapping := bleve.NewNumericFieldMapping()
	createdAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("created_at", createdAtFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	// Register the document mapping
	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
