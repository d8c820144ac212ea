// internal/navigator/hybrid.go
package navigator

import (
	"context"

	"github.com/grantio/grantscraper/pkg/types"
)

// MetaListing records the listing page a target was discovered on, so
// detail pages and the document links published next to them stay
// attributable to the same place.
const MetaListing = "listing_url"

// hybridNavigator combines page and document discovery: a paginated
// listing whose entries are sometimes detail pages and sometimes
// direct PDF links. Both selector chains run against every listing
// page.
type hybridNavigator struct {
	deps Deps
}

func newHybrid(deps Deps) (Navigator, error) {
	return &hybridNavigator{deps: deps}, nil
}

func (n *hybridNavigator) Discover(ctx context.Context, emit EmitFunc) error {
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
			if page > 0 {
				n.deps.Logger.WithField("url", pageURL).Warnf("pagination stopped: %v", err)
				return nil
			}
			return err
		}

		// Targets from one listing page share its URL in their
		// metadata, document and detail links alike.
		listing := pageURL
		tagged := func(target types.GrantTarget) bool {
			if target.Metadata == nil {
				target.Metadata = make(map[string]string)
			}
			target.Metadata[MetaListing] = listing
			return emit(target)
		}

		if !emitLinks(ctx, n.deps, doc, nav.LinkSelectors, seen, 0, tagged) {
			return ctx.Err()
		}
		if !emitDocumentLinks(ctx, n.deps, doc, nav.DocumentSelectors, seen, tagged) {
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
