// internal/enrich/enhance.go
package enrich

import (
	"context"

	"github.com/grantio/grantscraper/pkg/types"
)

// Enricher derives extra structured information from a grant's page
// text. Implementations run outside the scraping core; the core only
// defines the contract and how results attach to a grant.
type Enricher interface {
	Enrich(ctx context.Context, text string, grant *types.Grant) (map[string]interface{}, error)
}

// EnricherFunc adapts a function to the Enricher interface.
type EnricherFunc func(ctx context.Context, text string, grant *types.Grant) (map[string]interface{}, error)

func (f EnricherFunc) Enrich(ctx context.Context, text string, grant *types.Grant) (map[string]interface{}, error) {
	return f(ctx, text, grant)
}

// ApplyEnhanced merges enrichment output into the grant's side
// channel. The merge is additive: keys already present keep their
// value, and the grant's core fields are never touched.
func ApplyEnhanced(grant *types.Grant, info map[string]interface{}) {
	if len(info) == 0 {
		return
	}
	if grant.EnhancedInfo == nil {
		grant.EnhancedInfo = make(map[string]interface{}, len(info))
	}
	for key, value := range info {
		if _, ok := grant.EnhancedInfo[key]; ok {
			continue
		}
		grant.EnhancedInfo[key] = value
	}
}
