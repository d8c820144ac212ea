// internal/navigator/static.go
package navigator

import (
	"context"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/pkg/types"
)

// MetaGrantType pre-tags a target with the grant type its records
// default to when the page names none.
const MetaGrantType = "grant_type"

// staticNavigator emits hand-configured targets without any network
// traffic. Sources whose grant pages never move, typically a single
// ongoing program page, use this; with no targets configured the
// source's own URL is the one target.
type staticNavigator struct {
	deps Deps
}

func newStatic(deps Deps) (Navigator, error) {
	return &staticNavigator{deps: deps}, nil
}

func (n *staticNavigator) Discover(ctx context.Context, emit EmitFunc) error {
	targets := n.deps.Source.Navigator.Targets
	if len(targets) == 0 {
		targets = []config.StaticTarget{{URL: n.deps.Source.BaseURL}}
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok := emit(types.GrantTarget{
			URL:      target.URL,
			Title:    target.Title,
			SourceID: n.deps.Source.ID,
			// A stable page is an ongoing program unless the parser
			// config says otherwise.
			Metadata: map[string]string{MetaGrantType: string(types.GrantTypeOngoingProgram)},
		})
		if !ok {
			return nil
		}
	}
	return nil
}
