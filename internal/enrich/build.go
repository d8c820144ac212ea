// internal/enrich/build.go

// Package enrich turns the raw records parsers emit into normalized,
// typed grants. Explicitly selected values win; where a source's
// markup gives no handle on a value, the page text is mined with
// keyword extractors as a fallback.
package enrich

import (
	"errors"
	"strings"
	"time"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/normalize"
	"github.com/grantio/grantscraper/internal/parser"
	"github.com/grantio/grantscraper/internal/utils"
	"github.com/grantio/grantscraper/pkg/types"
)

// ErrNoTitle marks a record too thin to become a grant.
var ErrNoTitle = errors.New("record has no title")

// Builder assembles grants for one source.
type Builder struct {
	source config.SourceConfig
	logger utils.Logger
	now    func() time.Time
}

func NewBuilder(source config.SourceConfig, logger utils.Logger) *Builder {
	return &Builder{source: source, logger: logger, now: time.Now}
}

// Build normalizes one raw record into a grant. Records without a
// title are rejected; everything else degrades to a partial grant
// with a note per missing value.
func (b *Builder) Build(record parser.RawRecord) (types.Grant, error) {
	title := normalize.CollapseWhitespace(stringField(record, parser.FieldTitle))
	if title == "" {
		return types.Grant{}, ErrNoTitle
	}

	text := stringField(record, parser.FieldText)
	scrapedAt := b.now()

	grant := types.Grant{
		ID:             b.source.ID + "-" + normalize.Slugify(title),
		Title:          title,
		Description:    normalize.CollapseWhitespace(stringField(record, parser.FieldDescription)),
		Provider:       normalize.CollapseWhitespace(stringField(record, parser.FieldProvider)),
		Status:         types.StatusOK,
		URL:            stringField(record, parser.FieldURL),
		ApplicationURL: stringField(record, parser.FieldApplicationURL),
		Contact:        normalize.CollapseWhitespace(stringField(record, parser.FieldContact)),
		Regions:        listField(record, parser.FieldRegions),
		Categories:     listField(record, parser.FieldCategories),
		FocusAreas:     listField(record, parser.FieldFocusAreas),
		Eligibility:    listField(record, parser.FieldEligibility),
		Priority:       b.source.Priority,
		ScrapedAt:      scrapedAt,
	}
	if grant.Provider == "" {
		grant.Provider = b.source.Provider
	}
	if grant.Provider == "" {
		grant.Provider = b.source.Name
	}

	if documents, ok := record[parser.FieldDocuments].([]types.Document); ok {
		grant.Documents = documents
	}

	grant.Type = b.grantType(record, text)
	grant.Deadline = b.date(record, parser.FieldDeadline, text)
	grant.OpenedAt = b.date(record, parser.FieldOpenedAt, "")
	grant.Funding = b.funding(record, text)

	if grant.Deadline == nil && grant.Type == types.GrantTypeCall {
		grant.Status = types.StatusPartial
		grant.Notes = append(grant.Notes, "deadline not found")
	}

	grant.SourceRefs = []types.SourceRef{{
		SourceID:  b.source.ID,
		URL:       grant.URL,
		ScrapedAt: scrapedAt,
	}}

	return grant, nil
}

// grantType takes an explicit type when the source provides a valid
// one and otherwise guesses from the page text. Rolling calls
// advertise themselves with "průběžně"; dated calls are the default.
func (b *Builder) grantType(record parser.RawRecord, text string) types.GrantType {
	if raw := stringField(record, parser.FieldType); raw != "" {
		t := types.GrantType(strings.ToLower(strings.TrimSpace(raw)))
		if t.IsValid() {
			return t
		}
		b.logger.WithField("type", raw).Debug("unknown grant type, falling back to heuristics")
	}

	folded := strings.ToLower(normalize.FoldDiacritics(text))
	if strings.Contains(folded, "prubezn") {
		return types.GrantTypeOngoingProgram
	}
	return types.GrantTypeCall
}

// date parses an explicitly selected date field, falling back to a
// keyword scan of the page text for the deadline field.
func (b *Builder) date(record parser.RawRecord, field, text string) *time.Time {
	if raw := stringField(record, field); raw != "" {
		if t := normalize.ParseDate(raw); t != nil {
			return t
		}
		// A selector can capture a whole sentence; scan it for
		// anchored dates before giving up on it.
		if t := normalize.ExtractDeadline(raw); t != nil {
			return t
		}
		b.logger.WithField(field, raw).Debug("unparseable date value")
	}
	if text != "" {
		return normalize.ExtractDeadline(text)
	}
	return nil
}

// funding parses the selected funding field and fills what it leaves
// empty from the page text.
func (b *Builder) funding(record parser.RawRecord, text string) types.FundingAmount {
	funding := types.FundingAmount{}
	if raw := stringField(record, parser.FieldFunding); raw != "" {
		funding = normalize.ParseFundingField(raw)
	}

	if text != "" {
		fromText := normalize.ExtractFunding(text)
		// A text-mined bound only fills a gap when it keeps min <= max;
		// the field value is the authoritative one.
		if funding.Min == 0 && fromText.Min > 0 && (funding.Max == 0 || fromText.Min <= funding.Max) {
			funding.Min = fromText.Min
		}
		if funding.Max == 0 && fromText.Max > 0 && (funding.Min == 0 || fromText.Max >= funding.Min) {
			funding.Max = fromText.Max
		}
		if funding.Total == 0 {
			funding.Total = fromText.Total
		}
		if funding.Currency == "" {
			funding.Currency = fromText.Currency
		}
	}
	return funding
}

func stringField(record parser.RawRecord, field string) string {
	value, ok := record[field].(string)
	if !ok {
		return ""
	}
	return value
}

// listField accepts both a pre-split list and a single delimited
// string.
func listField(record parser.RawRecord, field string) []string {
	switch v := record[field].(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			item = normalize.CollapseWhitespace(item)
			if item != "" {
				out = append(out, item)
			}
		}
		return out
	case string:
		return normalize.SplitList(v)
	default:
		return nil
	}
}
