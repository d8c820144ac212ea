// internal/navigator/navigator.go

// Package navigator implements the discovery strategies that turn a
// configured source into a stream of grant page targets. Strategies
// push targets through a callback so callers can cap or cancel
// discovery without paying for pages they will not use.
package navigator

import (
	"context"
	"fmt"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/fetch"
	"github.com/grantio/grantscraper/internal/selector"
	"github.com/grantio/grantscraper/internal/utils"
	"github.com/grantio/grantscraper/pkg/types"
)

// EmitFunc receives one discovered target. Returning false stops
// discovery; the navigator must not emit again afterwards.
type EmitFunc func(types.GrantTarget) bool

// Navigator discovers grant page targets for one source.
type Navigator interface {
	Discover(ctx context.Context, emit EmitFunc) error
}

// Deps carries the collaborators a navigator needs.
type Deps struct {
	Source  config.SourceConfig
	Fetcher fetch.Fetcher
	Engine  *selector.Engine
	Logger  utils.Logger
}

type constructor func(Deps) (Navigator, error)

// registry maps navigator tags to constructors. Static tables instead
// of reflection keep the set of strategies auditable.
var registry = map[string]constructor{
	config.NavigatorStatic:      newStatic,
	config.NavigatorSingleLevel: newSingleLevel,
	config.NavigatorMultiLevel:  newMultiLevel,
	config.NavigatorDocument:    newDocument,
	config.NavigatorHybrid:      newHybrid,
}

// New builds the navigator configured for the source.
func New(deps Deps) (Navigator, error) {
	build, ok := registry[deps.Source.Navigator.Type]
	if !ok {
		return nil, fmt.Errorf("unknown navigator type: %q", deps.Source.Navigator.Type)
	}
	if deps.Logger == nil {
		deps.Logger = utils.NewNopLogger()
	}
	return build(deps)
}

// Tags returns the registered navigator tags.
func Tags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	return tags
}

// fetchDocument retrieves and parses one HTML page.
func fetchDocument(ctx context.Context, deps Deps, pageURL string) (*selector.Document, error) {
	resp, err := deps.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := selector.Parse(pageURL, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	return doc, nil
}
