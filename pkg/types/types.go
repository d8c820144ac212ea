// pkg/types/types.go
package types

import (
	"time"
)

// GrantType classifies how a grant opportunity is structured on the
// publishing site.
type GrantType string

const (
	GrantTypeCall           GrantType = "call"
	GrantTypeOngoingProgram GrantType = "ongoing_program"
	GrantTypeGrantScheme    GrantType = "grant_scheme"
)

// ValidGrantTypes returns all valid grant type values
func ValidGrantTypes() []GrantType {
	return []GrantType{GrantTypeCall, GrantTypeOngoingProgram, GrantTypeGrantScheme}
}

// IsValid checks if the grant type is a valid value
func (gt GrantType) IsValid() bool {
	for _, valid := range ValidGrantTypes() {
		if gt == valid {
			return true
		}
	}
	return false
}

// String returns the string representation of the grant type
func (gt GrantType) String() string {
	return string(gt)
}

// GrantStatus reports how completely a record was extracted.
// A partial record is still emitted; Notes explains what is missing.
type GrantStatus string

const (
	StatusOK      GrantStatus = "ok"
	StatusPartial GrantStatus = "partial"
)

// IsValid checks if the status is a valid value
func (s GrantStatus) IsValid() bool {
	return s == StatusOK || s == StatusPartial
}

// DocumentType classifies attachments found on a grant detail page.
type DocumentType string

const (
	DocTypeCallText   DocumentType = "call_text"
	DocTypeGuidelines DocumentType = "guidelines"
	DocTypeTemplate   DocumentType = "template"
	DocTypeBudget     DocumentType = "budget"
	DocTypeAnnex      DocumentType = "annex"
	DocTypeFAQ        DocumentType = "faq"
	DocTypeDecision   DocumentType = "decision"
	DocTypeRules      DocumentType = "rules"
	DocTypeOther      DocumentType = "other"
)

// ValidDocumentTypes returns all valid document type values
func ValidDocumentTypes() []DocumentType {
	return []DocumentType{
		DocTypeCallText, DocTypeGuidelines, DocTypeTemplate,
		DocTypeBudget, DocTypeAnnex, DocTypeFAQ,
		DocTypeDecision, DocTypeRules, DocTypeOther,
	}
}

// IsValid checks if the document type is valid
func (dt DocumentType) IsValid() bool {
	for _, valid := range ValidDocumentTypes() {
		if dt == valid {
			return true
		}
	}
	return false
}

// Document is a downloadable attachment linked from a grant page.
type Document struct {
	URL       string       `json:"url" yaml:"url"`
	Title     string       `json:"title,omitempty" yaml:"title,omitempty"`
	Type      DocumentType `json:"type" yaml:"type"`
	Extension string       `json:"extension,omitempty" yaml:"extension,omitempty"`
}

// FundingAmount holds the monetary bounds of a grant in whole currency
// units. Zero means the bound was not published.
type FundingAmount struct {
	Min      float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Total    float64 `json:"total,omitempty" yaml:"total,omitempty"`
	Currency string  `json:"currency,omitempty" yaml:"currency,omitempty"`
}

// IsZero reports whether no monetary information was extracted at all.
func (f FundingAmount) IsZero() bool {
	return f.Min == 0 && f.Max == 0 && f.Total == 0
}

// SourceRef records one sighting of a grant on one configured source.
// Deduplicated grants keep a ref for every source that published them.
type SourceRef struct {
	SourceID  string    `json:"source_id" yaml:"source_id"`
	URL       string    `json:"url" yaml:"url"`
	ScrapedAt time.Time `json:"scraped_at" yaml:"scraped_at"`
}

// GrantTarget is a discovered page that a parser should extract grants
// from. Navigators produce targets; parsers consume them.
type GrantTarget struct {
	URL      string            `json:"url" yaml:"url"`
	Title    string            `json:"title,omitempty" yaml:"title,omitempty"`
	SourceID string            `json:"source_id" yaml:"source_id"`
	Depth    int               `json:"depth,omitempty" yaml:"depth,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Grant is a fully normalized grant record.
type Grant struct {
	ID             string        `json:"id" yaml:"id"`
	Title          string        `json:"title" yaml:"title"`
	Description    string        `json:"description,omitempty" yaml:"description,omitempty"`
	Provider       string        `json:"provider,omitempty" yaml:"provider,omitempty"`
	Type           GrantType     `json:"type" yaml:"type"`
	Status         GrantStatus   `json:"status" yaml:"status"`
	URL            string        `json:"url" yaml:"url"`
	ApplicationURL string        `json:"application_url,omitempty" yaml:"application_url,omitempty"`
	Contact        string        `json:"contact,omitempty" yaml:"contact,omitempty"`
	Deadline       *time.Time    `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	OpenedAt       *time.Time    `json:"opened_at,omitempty" yaml:"opened_at,omitempty"`
	Funding        FundingAmount `json:"funding" yaml:"funding"`
	Regions        []string      `json:"regions,omitempty" yaml:"regions,omitempty"`
	Categories     []string      `json:"categories,omitempty" yaml:"categories,omitempty"`
	FocusAreas     []string      `json:"focus_areas,omitempty" yaml:"focus_areas,omitempty"`
	Eligibility    []string      `json:"eligibility,omitempty" yaml:"eligibility,omitempty"`
	Documents      []Document    `json:"documents,omitempty" yaml:"documents,omitempty"`
	SourceRefs     []SourceRef   `json:"source_refs" yaml:"source_refs"`
	Notes          []string      `json:"notes,omitempty" yaml:"notes,omitempty"`

	// Priority is the tier of the source the record came from; the
	// deduplicator lets the lowest value win.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`

	// ContentHash identifies the grant across sources. Stamped during
	// deduplication.
	ContentHash string `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`

	// EnhancedInfo is an additive side channel for semantic
	// enrichment; core extraction never reads it.
	EnhancedInfo map[string]interface{} `json:"enhanced_info,omitempty" yaml:"enhanced_info,omitempty"`

	ScrapedAt time.Time `json:"scraped_at" yaml:"scraped_at"`
}

// HasDeadline reports whether a parseable deadline was extracted.
func (g *Grant) HasDeadline() bool {
	return g.Deadline != nil && !g.Deadline.IsZero()
}

// PrimaryRef returns the ref the record was resolved from, which is
// always the first one after deduplication.
func (g *Grant) PrimaryRef() SourceRef {
	if len(g.SourceRefs) == 0 {
		return SourceRef{}
	}
	return g.SourceRefs[0]
}
