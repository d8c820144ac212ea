// internal/navigator/document.go
package navigator

import (
	"context"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/docs"
	"github.com/grantio/grantscraper/internal/selector"
	"github.com/grantio/grantscraper/pkg/types"
)

// MetaDocument marks a target as a downloadable file rather than an
// HTML page. Parsers route such targets to document extraction.
const MetaDocument = "document"

// documentNavigator emits the downloadable files linked from the base
// page. Sources that publish everything as PDF call texts, without
// per-grant detail pages, use this.
type documentNavigator struct {
	deps Deps
}

func newDocument(deps Deps) (Navigator, error) {
	return &documentNavigator{deps: deps}, nil
}

func (n *documentNavigator) Discover(ctx context.Context, emit EmitFunc) error {
	doc, err := fetchDocument(ctx, n.deps, n.deps.Source.BaseURL)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	if !emitDocumentLinks(ctx, n.deps, doc, n.deps.Source.Navigator.DocumentSelectors, seen, emit) {
		return ctx.Err()
	}
	return nil
}

// emitDocumentLinks emits every matched link that points at a
// collectible file. Returns false when discovery should stop.
func emitDocumentLinks(ctx context.Context, deps Deps, doc *selector.Document, chain []config.SelectorSpec, seen map[string]bool, emit EmitFunc) bool {
	for _, link := range collectLinks(deps.Engine, doc, chain) {
		if ctx.Err() != nil {
			return false
		}
		if seen[link.url] || !docs.IsDocumentURL(link.url) {
			continue
		}
		seen[link.url] = true

		ok := emit(types.GrantTarget{
			URL:      link.url,
			Title:    link.title,
			SourceID: deps.Source.ID,
			Metadata: map[string]string{MetaDocument: "true"},
		})
		if !ok {
			return false
		}
	}
	return true
}
