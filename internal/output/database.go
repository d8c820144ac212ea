// internal/output/database.go
package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/normalize"
	"github.com/grantio/grantscraper/pkg/types"
)

// grantColumns fixes the relational schema. List and document fields
// are stored as JSON text so the schema stays driver-portable.
var grantColumns = []string{
	"id", "title", "description", "provider", "grant_type", "status", "url",
	"deadline", "opened_at",
	"funding_min", "funding_max", "funding_total", "currency",
	"regions", "categories", "eligibility",
	"documents", "source_refs", "notes",
	"scraped_at",
}

// DatabaseSink upserts grants into a relational table via one of the
// supported database/sql drivers.
type DatabaseSink struct {
	db        *sql.DB
	driver    string
	table     string
	batchSize int
}

func NewDatabaseSink(cfg config.DatabaseConfig) (*DatabaseSink, error) {
	switch cfg.Driver {
	case "sqlite3", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if cfg.Driver == "sqlite3" {
		// SQLite is happiest with a single writer.
		db.SetMaxOpenConns(1)
	}

	s := &DatabaseSink{
		db:        db,
		driver:    cfg.Driver,
		table:     cfg.Table,
		batchSize: cfg.BatchSize,
	}
	if s.table == "" {
		s.table = "grants"
	}
	if s.batchSize <= 0 {
		s.batchSize = 100
	}

	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *DatabaseSink) createTable() error {
	text := "TEXT"
	if s.driver == "mysql" {
		// MySQL cannot key on unbounded TEXT.
		text = "VARCHAR(512)"
	}

	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id %s PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		provider TEXT,
		grant_type TEXT,
		status TEXT,
		url TEXT,
		deadline TEXT,
		opened_at TEXT,
		funding_min DOUBLE PRECISION,
		funding_max DOUBLE PRECISION,
		funding_total DOUBLE PRECISION,
		currency TEXT,
		regions TEXT,
		categories TEXT,
		eligibility TEXT,
		documents TEXT,
		source_refs TEXT,
		notes TEXT,
		scraped_at TEXT
	)`, s.table, text)

	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Write upserts in batched transactions so a re-run refreshes
// existing rows instead of duplicating them.
func (s *DatabaseSink) Write(ctx context.Context, grants []types.Grant) error {
	stmt := s.upsertStatement()

	for start := 0; start < len(grants); start += s.batchSize {
		end := start + s.batchSize
		if end > len(grants) {
			end = len(grants)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		for i := start; i < end; i++ {
			args, err := grantArgs(&grants[i])
			if err != nil {
				tx.Rollback()
				return err
			}
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				tx.Rollback()
				return fmt.Errorf("failed to upsert grant %s: %w", grants[i].ID, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}
	}
	return nil
}

func (s *DatabaseSink) upsertStatement() string {
	placeholders := make([]string, len(grantColumns))
	for i := range grantColumns {
		if s.driver == "postgres" {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	columns := strings.Join(grantColumns, ", ")
	values := strings.Join(placeholders, ", ")

	switch s.driver {
	case "postgres":
		assignments := make([]string, 0, len(grantColumns)-1)
		for _, col := range grantColumns[1:] {
			assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
			s.table, columns, values, strings.Join(assignments, ", "))
	case "mysql":
		assignments := make([]string, 0, len(grantColumns)-1)
		for _, col := range grantColumns[1:] {
			assignments = append(assignments, fmt.Sprintf("%s = VALUES(%s)", col, col))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
			s.table, columns, values, strings.Join(assignments, ", "))
	default:
		return fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
			s.table, columns, values)
	}
}

func grantArgs(g *types.Grant) ([]interface{}, error) {
	deadline := ""
	if g.HasDeadline() {
		deadline = normalize.FormatDate(g.Deadline)
	}
	opened := ""
	if g.OpenedAt != nil {
		opened = normalize.FormatDate(g.OpenedAt)
	}

	regions, err := jsonCell(g.Regions)
	if err != nil {
		return nil, err
	}
	categories, err := jsonCell(g.Categories)
	if err != nil {
		return nil, err
	}
	eligibility, err := jsonCell(g.Eligibility)
	if err != nil {
		return nil, err
	}
	documents, err := jsonCell(g.Documents)
	if err != nil {
		return nil, err
	}
	refs, err := jsonCell(g.SourceRefs)
	if err != nil {
		return nil, err
	}
	notes, err := jsonCell(g.Notes)
	if err != nil {
		return nil, err
	}

	return []interface{}{
		g.ID, g.Title, g.Description, g.Provider, string(g.Type), string(g.Status), g.URL,
		deadline, opened,
		g.Funding.Min, g.Funding.Max, g.Funding.Total, g.Funding.Currency,
		regions, categories, eligibility,
		documents, refs, notes,
		g.ScrapedAt.Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

func jsonCell(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column value: %w", err)
	}
	return string(data), nil
}

func (s *DatabaseSink) Close() error {
	return s.db.Close()
}
