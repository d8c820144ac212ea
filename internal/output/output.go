// internal/output/output.go

// Package output persists run results. Every configured destination
// is a Sink; a run can fan out to a file format and one or more
// databases at once.
package output

import (
	"context"
	"fmt"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/utils"
	"github.com/grantio/grantscraper/pkg/types"
)

// Output formats.
const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatExcel = "xlsx"
)

// Sink writes a run's grants to one destination.
type Sink interface {
	Write(ctx context.Context, grants []types.Grant) error
	Close() error
}

// Manager fans one result set out to every configured sink.
type Manager struct {
	sinks  []Sink
	logger utils.Logger
}

// NewManager builds the sinks the output configuration asks for.
func NewManager(cfg config.OutputConfig, logger utils.Logger) (*Manager, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	var sinks []Sink
	switch cfg.Format {
	case "", FormatJSON:
		sinks = append(sinks, NewJSONSink(cfg.File))
	case FormatJSONL:
		sinks = append(sinks, NewJSONLSink(cfg.File))
	case FormatCSV:
		sinks = append(sinks, NewCSVSink(cfg.File))
	case FormatExcel:
		if cfg.File == "" {
			return nil, fmt.Errorf("xlsx output requires a file path")
		}
		sinks = append(sinks, NewExcelSink(cfg.File))
	default:
		return nil, fmt.Errorf("unsupported output format: %q", cfg.Format)
	}

	if cfg.Database != nil {
		db, err := NewDatabaseSink(*cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database output: %w", err)
		}
		sinks = append(sinks, db)
	}

	if cfg.MongoDB != nil {
		mongo, err := NewMongoSink(*cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongodb output: %w", err)
		}
		sinks = append(sinks, mongo)
	}

	return &Manager{sinks: sinks, logger: logger}, nil
}

// Write sends the grants to every sink. Sinks are independent; one
// failing destination does not stop the others, and the first error
// is returned after all sinks ran.
func (m *Manager) Write(ctx context.Context, grants []types.Grant) error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Write(ctx, grants); err != nil {
			m.logger.Errorf("output sink failed: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) Close() error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
