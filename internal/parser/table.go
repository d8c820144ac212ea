// internal/parser/table.go
package parser

import (
	"context"
	"strings"

	"github.com/grantio/grantscraper/internal/docs"
	"github.com/grantio/grantscraper/internal/normalize"
	"github.com/grantio/grantscraper/internal/selector"
	"github.com/grantio/grantscraper/pkg/types"
)

// tableParser extracts one record per row. HTML tables are walked
// with the configured row and cell selectors; XLSX responses are read
// through the workbook reader with the field map matched against the
// header row.
type tableParser struct {
	deps Deps
}

func newTable(deps Deps) (Parser, error) {
	return &tableParser{deps: deps}, nil
}

func (p *tableParser) Extract(ctx context.Context, target types.GrantTarget) ([]RawRecord, error) {
	resp, err := p.deps.Fetcher.Fetch(ctx, target.URL)
	if err != nil {
		return nil, err
	}

	if isWorkbook(target.URL, resp.ContentType) {
		return p.extractWorkbook(resp.Body, target)
	}
	return p.extractHTML(resp.Body, target)
}

func (p *tableParser) extractHTML(body []byte, target types.GrantTarget) ([]RawRecord, error) {
	doc, err := selector.Parse(target.URL, body)
	if err != nil {
		return nil, err
	}

	rows := p.deps.Engine.Nodes(doc, p.deps.Source.Parser.RowSelectors)

	records := make([]RawRecord, 0, len(rows))
	for _, row := range rows {
		record := RawRecord{FieldURL: target.URL}
		for field, chain := range p.deps.Source.Parser.Fields {
			if listFields[field] {
				if values := p.deps.Engine.SelectAllIn(row, chain); len(values) > 0 {
					record[field] = values
				}
				continue
			}
			if value, ok := p.deps.Engine.SelectIn(row, chain); ok {
				record[field] = value
			}
		}
		// Rows without a title are header or spacer rows.
		if record[FieldTitle] == nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// extractWorkbook maps spreadsheet columns to record fields by header
// name. The field map's values name the expected column headers,
// compared with diacritics folded.
func (p *tableParser) extractWorkbook(body []byte, target types.GrantTarget) ([]RawRecord, error) {
	rows, err := docs.ReadWorkbook(body, p.deps.Source.Parser.Sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	columns := make(map[string]int)
	for field, headerName := range p.deps.Source.Parser.FieldMap {
		want := foldHeader(headerName)
		for i, cell := range header {
			if foldHeader(cell) == want {
				columns[field] = i
				break
			}
		}
	}

	records := make([]RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := RawRecord{FieldURL: target.URL}
		for field, col := range columns {
			if col < len(row) && row[col] != "" {
				record[field] = row[col]
			}
		}
		if record[FieldTitle] == nil {
			continue
		}
		record[FieldDocuments] = []types.Document{docs.Classify(target.URL, target.Title)}
		records = append(records, record)
	}
	return records, nil
}

func isWorkbook(url, contentType string) bool {
	if strings.Contains(contentType, "spreadsheetml") || strings.Contains(contentType, "ms-excel") {
		return true
	}
	ext := docs.Extension(url)
	return ext == ".xlsx" || ext == ".xls"
}

func foldHeader(s string) string {
	return strings.ToLower(normalize.FoldDiacritics(normalize.CollapseWhitespace(s)))
}
