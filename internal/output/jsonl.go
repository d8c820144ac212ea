// internal/output/jsonl.go
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/grantio/grantscraper/pkg/types"
)

// JSONLSink writes one grant per line, suitable for streaming
// consumers and append-style ingestion. An empty path means stdout.
type JSONLSink struct {
	path string
}

func NewJSONLSink(path string) *JSONLSink {
	return &JSONLSink{path: path}
}

func (s *JSONLSink) Write(ctx context.Context, grants []types.Grant) error {
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
	enc.SetEscapeHTML(false)
	for i := range grants {
		if err := enc.Encode(&grants[i]); err != nil {
			return fmt.Errorf("failed to encode grant %s: %w", grants[i].ID, err)
		}
	}
	return nil
}

func (s *JSONLSink) Close() error { return nil }
