// internal/navigator/multi_level.go
package navigator

import (
	"context"

	"github.com/grantio/grantscraper/pkg/types"
)

// multiLevelNavigator descends a navigation tree: program overview to
// program page to call page, one configured level per depth. Terminal
// levels emit their links as targets instead of fetching them.
type multiLevelNavigator struct {
	deps Deps
}

func newMultiLevel(deps Deps) (Navigator, error) {
	return &multiLevelNavigator{deps: deps}, nil
}

func (n *multiLevelNavigator) Discover(ctx context.Context, emit EmitFunc) error {
	seen := map[string]bool{n.deps.Source.BaseURL: true}
	_, err := n.descend(ctx, n.deps.Source.BaseURL, 0, seen, emit)
	return err
}

// descend processes one page at the given depth. The visited set
// spans the whole tree, so pages that link to each other (program
// pages cross-referencing related programs do) are fetched once and
// the walk always terminates. Returns false when emission stopped.
func (n *multiLevelNavigator) descend(ctx context.Context, pageURL string, depth int, seen map[string]bool, emit EmitFunc) (bool, error) {
	levels := n.deps.Source.Navigator.Levels
	if depth >= len(levels) {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	doc, err := fetchDocument(ctx, n.deps, pageURL)
	if err != nil {
		// A dead branch loses its subtree, not the whole source.
		if depth > 0 {
			n.deps.Logger.WithField("url", pageURL).Warnf("skipping branch: %v", err)
			return true, nil
		}
		return false, err
	}

	level := levels[depth]
	links := collectLinks(n.deps.Engine, doc, level.LinkSelectors)

	for _, link := range links {
		if seen[link.url] {
			continue
		}
		seen[link.url] = true

		if level.Terminal {
			ok := emit(types.GrantTarget{
				URL:      link.url,
				Title:    link.title,
				SourceID: n.deps.Source.ID,
				Depth:    depth,
			})
			if !ok {
				return false, nil
			}
			continue
		}

		cont, err := n.descend(ctx, link.url, depth+1, seen, emit)
		if err != nil || !cont {
			return cont, err
		}
	}
	return true, nil
}
