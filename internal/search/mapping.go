package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for challenge documents.
// Titles use English stemming so "running" matches "Run Challenge".
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = en.AnalyzerName
	title.Store = true
	title.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", title)

	// Usernames are not English prose.
	creatorName := bleve.NewTextFieldMapping()
	creatorName.Analyzer = simple.Name
	creatorName.Store = true
	docMapping.AddFieldMappingsAt("creator_name", creatorName)

	for _, field := range []string{"id", "type", "creator_id"} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		kw.Store = true
		docMapping.AddFieldMappingsAt(field, kw)
	}

	for _, field := range []string{"participants", "start_at", "expires_at", "created_at"} {
		num := bleve.NewNumericFieldMapping()
		num.Store = true
		docMapping.AddFieldMappingsAt(field, num)
	}

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
