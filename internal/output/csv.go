// internal/output/csv.go
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grantio/grantscraper/internal/normalize"
	"github.com/grantio/grantscraper/pkg/types"
)

// csvHeader fixes the column set and order for tabular exports.
var csvHeader = []string{
	"id", "title", "provider", "type", "status", "url",
	"deadline", "opened_at",
	"funding_min", "funding_max", "funding_total", "currency",
	"regions", "categories", "eligibility",
	"documents", "sources", "scraped_at",
}

// CSVSink writes grants as flat rows. Lists are joined with "; ".
type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Write(ctx context.Context, grants []types.Grant) error {
	out := os.Stdout
	if s.path != "" {
		f, err := os.Create(s.path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range grants {
		if err := w.Write(grantRow(&grants[i])); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (s *CSVSink) Close() error { return nil }

func grantRow(g *types.Grant) []string {
	deadline := ""
	if g.HasDeadline() {
		deadline = normalize.FormatDate(g.Deadline)
	}
	opened := ""
	if g.OpenedAt != nil {
		opened = normalize.FormatDate(g.OpenedAt)
	}

	documents := make([]string, 0, len(g.Documents))
	for _, d := range g.Documents {
		documents = append(documents, d.URL)
	}
	sources := make([]string, 0, len(g.SourceRefs))
	for _, r := range g.SourceRefs {
		sources = append(sources, r.SourceID)
	}

	return []string{
		g.ID, g.Title, g.Provider, string(g.Type), string(g.Status), g.URL,
		deadline, opened,
		amountCell(g.Funding.Min), amountCell(g.Funding.Max), amountCell(g.Funding.Total),
		g.Funding.Currency,
		strings.Join(g.Regions, "; "),
		strings.Join(g.Categories, "; "),
		strings.Join(g.Eligibility, "; "),
		strings.Join(documents, "; "),
		strings.Join(sources, "; "),
		g.ScrapedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func amountCell(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
