// internal/docs/extract.go
package docs

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// TextExtractor pulls plain text out of a binary document so the
// keyword extractors can run over PDF call texts. The default build
// ships without a PDF engine; deployments plug one in (typically a
// pdftotext wrapper) and the pipeline degrades to link-only document
// handling when none is configured.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// TextExtractorFunc adapts a function to the TextExtractor interface.
type TextExtractorFunc func(data []byte) (string, error)

// ExtractText implements TextExtractor
func (f TextExtractorFunc) ExtractText(data []byte) (string, error) {
	return f(data)
}

// ReadWorkbook parses an XLSX document into rows of trimmed cell
// values. Sheet selects the tab by name; empty means the first sheet.
func ReadWorkbook(data []byte, sheet string) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		trimmed := make([]string, len(row))
		empty := true
		for i, cell := range row {
			trimmed[i] = strings.TrimSpace(cell)
			if trimmed[i] != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, trimmed)
		}
	}
	return out, nil
}
