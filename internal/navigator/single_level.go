// internal/navigator/single_level.go
package navigator

import (
	"context"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/selector"
	"github.com/grantio/grantscraper/pkg/types"
)

// singleLevelNavigator walks a paginated listing and emits one target
// per detail-page link. This covers the common ministry portal layout:
// a call list with a next-page control.
type singleLevelNavigator struct {
	deps Deps
}

func newSingleLevel(deps Deps) (Navigator, error) {
	return &singleLevelNavigator{deps: deps}, nil
}

func (n *singleLevelNavigator) Discover(ctx context.Context, emit EmitFunc) error {
	nav := n.deps.Source.Navigator

	pageURL := n.deps.Source.BaseURL
	seen := make(map[string]bool)
	visitedPages := make(map[string]bool)

	for page := 0; page < nav.MaxPages; page++ {
		if visitedPages[pageURL] {
			break
		}
		visitedPages[pageURL] = true

		doc, err := fetchDocument(ctx, n.deps, pageURL)
		if err != nil {
			// Later listing pages failing should not discard the
			// targets already emitted from earlier ones.
			if page > 0 {
				n.deps.Logger.WithField("url", pageURL).Warnf("pagination stopped: %v", err)
				return nil
			}
			return err
		}

		if !emitLinks(ctx, n.deps, doc, nav.LinkSelectors, seen, 0, emit) {
			return ctx.Err()
		}

		next, ok := nextPageURL(n.deps.Engine, doc, nav.NextPage)
		if !ok {
			break
		}
		pageURL = next
	}
	return nil
}

// emitLinks resolves and emits every link the chain matches on the
// page, skipping URLs already seen. Returns false when discovery
// should stop, either on cancellation or a sated consumer.
func emitLinks(ctx context.Context, deps Deps, doc *selector.Document, chain []config.SelectorSpec, seen map[string]bool, depth int, emit EmitFunc) bool {
	links := collectLinks(deps.Engine, doc, chain)
	for _, link := range links {
		if ctx.Err() != nil {
			return false
		}
		if seen[link.url] {
			continue
		}
		seen[link.url] = true

		ok := emit(types.GrantTarget{
			URL:      link.url,
			Title:    link.title,
			SourceID: deps.Source.ID,
			Depth:    depth,
		})
		if !ok {
			return false
		}
	}
	return true
}

type pageLink struct {
	url   string
	title string
}

// collectLinks pairs each matched link's URL with its anchor text.
// The chain is rewritten to pull href when it does not name an
// attribute itself, so configs can write plain CSS selectors.
func collectLinks(engine *selector.Engine, doc *selector.Document, chain []config.SelectorSpec) []pageLink {
	nodes := engine.Nodes(doc, chain)

	links := make([]pageLink, 0, len(nodes))
	for _, node := range nodes {
		href := node.Attr("href")
		if href == "" {
			// The selector may have matched a wrapper around the
			// anchor instead of the anchor itself.
			if inner, ok := engine.SelectIn(node, []config.SelectorSpec{{Expr: "a", Attr: "href"}}); ok {
				href = inner
			}
		}
		if href == "" {
			continue
		}
		links = append(links, pageLink{
			url:   doc.Resolve(href),
			title: node.Text(),
		})
	}
	return links
}

func nextPageURL(engine *selector.Engine, doc *selector.Document, chain []config.SelectorSpec) (string, bool) {
	if len(chain) == 0 {
		return "", false
	}

	withAttr := make([]config.SelectorSpec, len(chain))
	for i, spec := range chain {
		withAttr[i] = spec
		if withAttr[i].Attr == "" && withAttr[i].Kind != config.KindRegex {
			withAttr[i].Attr = "href"
		}
	}

	href, ok := engine.Select(doc, withAttr)
	if !ok || href == "" {
		return "", false
	}
	return doc.Resolve(href), true
}
