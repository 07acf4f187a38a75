package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/lang/ar"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the mapping for verse documents.
//
// Translations are Indonesian prose and use the standard analyzer; there is
// no Indonesian stemmer, so inflected forms only match through fuzziness.
// Transliterations and chapter names are split on letters only, which keeps
// "Al-Baqarah" searchable as "baqarah".
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()

	translation := bleve.NewTextFieldMapping()
	translation.Analyzer = standard.Name
	translation.Store = true
	translation.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("translation", translation)

	latin := bleve.NewTextFieldMapping()
	latin.Analyzer = simple.Name
	latin.Store = true
	latin.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("latin", latin)

	arabic := bleve.NewTextFieldMapping()
	arabic.Analyzer = ar.AnalyzerName
	arabic.Store = true
	docMapping.AddFieldMappingsAt("arabic", arabic)

	chapterName := bleve.NewTextFieldMapping()
	chapterName.Analyzer = simple.Name
	chapterName.Store = true
	docMapping.AddFieldMappingsAt("chapter_name", chapterName)

	id := bleve.NewTextFieldMapping()
	id.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("id", id)

	chapter := bleve.NewNumericFieldMapping()
	chapter.Store = true
	docMapping.AddFieldMappingsAt("chapter", chapter)

	verse := bleve.NewNumericFieldMapping()
	verse.Store = true
	docMapping.AddFieldMappingsAt("verse", verse)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
