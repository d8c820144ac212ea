// internal/parser/html_detail.go
package parser

import (
	"context"

	"github.com/grantio/grantscraper/internal/selector"
	"github.com/grantio/grantscraper/pkg/types"
)

// listFields are extracted with SelectAll so multi-element markup
// (one <li> per region) survives as separate items.
var listFields = map[string]bool{
	FieldRegions:     true,
	FieldCategories:  true,
	FieldFocusAreas:  true,
	FieldEligibility: true,
}

// htmlDetailParser extracts one record from a grant detail page using
// the source's per-field selector chains.
type htmlDetailParser struct {
	deps Deps
}

func newHTMLDetail(deps Deps) (Parser, error) {
	return &htmlDetailParser{deps: deps}, nil
}

func (p *htmlDetailParser) Extract(ctx context.Context, target types.GrantTarget) ([]RawRecord, error) {
	resp, err := p.deps.Fetcher.Fetch(ctx, target.URL)
	if err != nil {
		return nil, err
	}

	doc, err := selector.Parse(target.URL, resp.Body)
	if err != nil {
		return nil, err
	}

	record := RawRecord{
		FieldURL:  target.URL,
		FieldText: doc.Text(),
	}

	for field, chain := range p.deps.Source.Parser.Fields {
		if listFields[field] {
			if values := p.deps.Engine.SelectAll(doc, chain); len(values) > 0 {
				record[field] = values
			}
			continue
		}
		if value, ok := p.deps.Engine.Select(doc, chain); ok {
			record[field] = value
		}
	}

	// The listing's anchor text stands in for a missing title
	// selector; detail pages occasionally render the title only in
	// breadcrumbs the selectors miss.
	if _, ok := record[FieldTitle]; !ok && target.Title != "" {
		record[FieldTitle] = target.Title
	}

	if !p.deps.Source.Parser.SkipDocuments {
		if found := collectDocuments(p.deps.Engine, doc); len(found) > 0 {
			record[FieldDocuments] = found
		}
	}

	return []RawRecord{record}, nil
}
