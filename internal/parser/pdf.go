// internal/parser/pdf.go
package parser

import (
	"context"
	"strings"

	"github.com/grantio/grantscraper/internal/docs"
	"github.com/grantio/grantscraper/internal/normalize"
	"github.com/grantio/grantscraper/pkg/types"
)

// pdfParser extracts a record from a downloadable call document. With
// a text extractor plugged in, the document's text feeds the keyword
// extractors; without one the record carries the link and the target
// title only.
type pdfParser struct {
	deps Deps
}

func newPDF(deps Deps) (Parser, error) {
	return &pdfParser{deps: deps}, nil
}

func (p *pdfParser) Extract(ctx context.Context, target types.GrantTarget) ([]RawRecord, error) {
	resp, err := p.deps.Fetcher.Fetch(ctx, target.URL)
	if err != nil {
		return nil, err
	}

	record := RawRecord{
		FieldURL:       target.URL,
		FieldDocuments: []types.Document{docs.Classify(target.URL, target.Title)},
	}
	if target.Title != "" {
		record[FieldTitle] = target.Title
	}

	if p.deps.TextExtractor == nil {
		p.deps.Logger.WithField("url", target.URL).
			Debug("no text extractor configured, emitting link-only record")
		return []RawRecord{record}, nil
	}

	text, err := p.deps.TextExtractor.ExtractText(resp.Body)
	if err != nil {
		p.deps.Logger.WithField("url", target.URL).
			Warnf("text extraction failed: %v", err)
		return []RawRecord{record}, nil
	}

	// Call documents open with the call's name; the first substantial
	// line beats a filename-derived title.
	if record[FieldTitle] == nil {
		if title := firstLine(text); title != "" {
			record[FieldTitle] = title
		}
	}

	record[FieldText] = normalize.CollapseWhitespace(text)

	return []RawRecord{record}, nil
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) >= 10 {
			return normalize.Truncate(line, 200)
		}
	}
	return ""
}
