// internal/output/json.go
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/grantio/grantscraper/pkg/types"
)

// JSONSink writes grants as an indented JSON array. An empty path
// means stdout.
type JSONSink struct {
	path string
}

func NewJSONSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

func (s *JSONSink) Write(ctx context.Context, grants []types.Grant) error {
	out := os.Stdout
	if s.path != "" {
		f, err := os.Create(s.path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(grants); err != nil {
		return fmt.Errorf("failed to encode grants: %w", err)
	}
	return nil
}

func (s *JSONSink) Close() error { return nil }
