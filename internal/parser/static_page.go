// internal/parser/static_page.go
package parser

import (
	"context"

	"github.com/grantio/grantscraper/internal/selector"
	"github.com/grantio/grantscraper/pkg/types"
)

// staticPageParser handles pages whose identity is known ahead of
// time: an ongoing program with a stable URL. Configured static values
// seed the record and the page text fills in whatever the keyword
// extractors can find.
type staticPageParser struct {
	deps Deps
}

func newStaticPage(deps Deps) (Parser, error) {
	return &staticPageParser{deps: deps}, nil
}

func (p *staticPageParser) Extract(ctx context.Context, target types.GrantTarget) ([]RawRecord, error) {
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

	// Program pages carry contact and focus-area selectors instead of
	// the deadline/funding chains a dated call would have.
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

	for field, value := range p.deps.Source.Parser.Static {
		record[field] = value
	}

	if record[FieldTitle] == nil {
		switch {
		case target.Title != "":
			record[FieldTitle] = target.Title
		case doc.Title() != "":
			record[FieldTitle] = doc.Title()
		}
	}

	if !p.deps.Source.Parser.SkipDocuments {
		if found := collectDocuments(p.deps.Engine, doc); len(found) > 0 {
			record[FieldDocuments] = found
		}
	}

	return []RawRecord{record}, nil
}
