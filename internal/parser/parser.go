// internal/parser/parser.go

// Package parser implements the extraction strategies that turn a
// discovered target into raw grant records. Parsers deal in raw field
// values; normalization into typed records happens downstream so that
// every strategy benefits from the same Czech date and amount
// handling.
package parser

import (
	"context"
	"fmt"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/docs"
	"github.com/grantio/grantscraper/internal/fetch"
	"github.com/grantio/grantscraper/internal/selector"
	"github.com/grantio/grantscraper/internal/utils"
	"github.com/grantio/grantscraper/pkg/types"
)

// Well-known raw record fields. Parsers fill what they can; the
// record builder normalizes and types them.
const (
	FieldTitle          = "title"
	FieldDescription    = "description"
	FieldProvider       = "provider"
	FieldDeadline       = "deadline"
	FieldOpenedAt       = "opened_at"
	FieldFunding        = "funding"
	FieldRegions        = "regions"
	FieldCategories     = "categories"
	FieldFocusAreas     = "focus_areas"
	FieldEligibility    = "eligibility"
	FieldContact        = "contact"
	FieldApplicationURL = "application_url"
	FieldType           = "type"
	FieldURL            = "url"

	// FieldText carries the page's full text for keyword extraction
	// of values no selector was configured for.
	FieldText = "text"

	// FieldDocuments holds []types.Document collected alongside the
	// record.
	FieldDocuments = "documents"
)

// RawRecord is one extracted grant before normalization. String
// values are still in their on-page Czech form.
type RawRecord map[string]interface{}

// Parser extracts raw records from one target.
type Parser interface {
	Extract(ctx context.Context, target types.GrantTarget) ([]RawRecord, error)
}

// Deps carries the collaborators a parser needs. TextExtractor is
// optional; PDF parsing degrades to link-only records without it.
type Deps struct {
	Source        config.SourceConfig
	Fetcher       fetch.Fetcher
	Engine        *selector.Engine
	Logger        utils.Logger
	TextExtractor docs.TextExtractor
}

type constructor func(Deps) (Parser, error)

var registry = map[string]constructor{
	config.ParserHTMLDetail: newHTMLDetail,
	config.ParserPDF:        newPDF,
	config.ParserTable:      newTable,
	config.ParserStaticPage: newStaticPage,
	config.ParserAPI:        newAPI,
}

// New builds the parser configured for the source.
func New(deps Deps) (Parser, error) {
	build, ok := registry[deps.Source.Parser.Type]
	if !ok {
		return nil, fmt.Errorf("unknown parser type: %q", deps.Source.Parser.Type)
	}
	if deps.Logger == nil {
		deps.Logger = utils.NewNopLogger()
	}
	return build(deps)
}

// NewTagged builds a specific parser strategy for the source,
// regardless of its configured type. The pipeline uses this to route
// document targets to the PDF strategy.
func NewTagged(tag string, deps Deps) (Parser, error) {
	build, ok := registry[tag]
	if !ok {
		return nil, fmt.Errorf("unknown parser type: %q", tag)
	}
	if deps.Logger == nil {
		deps.Logger = utils.NewNopLogger()
	}
	return build(deps)
}

// Tags returns the registered parser tags.
func Tags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	return tags
}

// collectDocuments gathers classified attachment links from a detail
// page. Every anchor pointing at a collectible file counts, not just
// configured selectors, because portals scatter annexes across the
// whole page body.
func collectDocuments(engine *selector.Engine, doc *selector.Document) []types.Document {
	nodes := engine.Nodes(doc, []config.SelectorSpec{{Expr: "a[href]"}})

	var found []types.Document
	seen := make(map[string]bool)
	for _, node := range nodes {
		href := doc.Resolve(node.Attr("href"))
		if href == "" || seen[href] || !docs.IsDocumentURL(href) {
			continue
		}
		seen[href] = true
		found = append(found, docs.Classify(href, node.Text()))
	}
	return found
}
