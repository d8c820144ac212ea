// internal/config/types.go

// Package config defines the configuration schema for grant sources.
// Each source entry pairs a discovery strategy (navigator) with an
// extraction strategy (parser), plus politeness and priority settings.
package config

import (
	"time"
)

// Config is the root configuration: global engine settings plus one
// entry per scraped grant source.
type Config struct {
	// Sources lists every configured grant-publishing site
	Sources []SourceConfig `yaml:"sources" json:"sources"`

	// Concurrency bounds how many sources run at once
	Concurrency int `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`

	// MaxPerSource caps discovered targets per source, 0 means unlimited
	MaxPerSource int `yaml:"max_per_source,omitempty" json:"max_per_source,omitempty"`

	// RequestTimeout applies to every HTTP fetch
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty" json:"request_timeout,omitempty"`

	// RetryAttempts for transient fetch failures
	RetryAttempts int `yaml:"retry_attempts,omitempty" json:"retry_attempts,omitempty"`

	// RetryDelay is the base backoff between attempts
	RetryDelay time.Duration `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`

	// CacheTTL controls how long fetched pages are reused
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty" json:"cache_ttl,omitempty"`

	// UserAgents rotate across requests; a default pool is used if empty
	UserAgents []string `yaml:"user_agents,omitempty" json:"user_agents,omitempty"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	// Output configures where run results are written
	Output OutputConfig `yaml:"output,omitempty" json:"output,omitempty"`

	// Monitoring enables the Prometheus endpoint when present
	Monitoring *MonitoringConfig `yaml:"monitoring,omitempty" json:"monitoring,omitempty"`
}

// SourceConfig describes one grant-publishing site: how to discover
// grant pages on it and how to extract records from them.
type SourceConfig struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Tier classifies the source as a primary publisher or an
	// aggregator; run modes gate on it. Defaults to primary.
	Tier string `yaml:"tier,omitempty" json:"tier,omitempty"`

	// Priority resolves duplicates across sources. Lower wins;
	// defaults follow the tier, primary 1 and aggregator 10.
	Priority int `yaml:"priority,omitempty" json:"priority,omitempty"`

	// Enabled defaults to true when omitted
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// RequestsPerSecond is the per-source polite fetch rate
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" json:"requests_per_second,omitempty"`

	// Burst allows short bursts above the steady rate
	Burst int `yaml:"burst,omitempty" json:"burst,omitempty"`

	// UseBrowser renders pages in headless Chrome before parsing
	UseBrowser bool `yaml:"use_browser,omitempty" json:"use_browser,omitempty"`

	// MaxTargets caps this source's discovery independently of the
	// global MaxPerSource; the lower of the two applies
	MaxTargets int `yaml:"max_targets,omitempty" json:"max_targets,omitempty"`

	// Provider names the publishing body, stamped on every record
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`

	Navigator NavigatorConfig `yaml:"navigator" json:"navigator"`
	Parser    ParserConfig    `yaml:"parser" json:"parser"`
}

// IsEnabled reports whether the source participates in runs.
func (s *SourceConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// SelectorSpec is one element of a fallback chain. Kind selects the
// match engine; Attr extracts an attribute instead of text.
type SelectorSpec struct {
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`
	Expr string `yaml:"expr" json:"expr"`
	Attr string `yaml:"attr,omitempty" json:"attr,omitempty"`
}

// Selector kinds.
const (
	KindCSS   = "css"
	KindXPath = "xpath"
	KindRegex = "regex"
)

// Source tiers.
const (
	TierPrimary    = "primary"
	TierAggregator = "aggregator"
)

// Navigator strategy tags.
const (
	NavigatorSingleLevel = "single_level"
	NavigatorMultiLevel  = "multi_level"
	NavigatorDocument    = "document"
	NavigatorHybrid      = "hybrid"
	NavigatorStatic      = "static"
)

// Parser strategy tags.
const (
	ParserHTMLDetail = "html_detail"
	ParserPDF        = "pdf"
	ParserTable      = "table"
	ParserStaticPage = "static_page"
	ParserAPI        = "api"
)

// NavigatorConfig selects and parameterizes a discovery strategy.
// Only the fields relevant to the chosen Type are read.
type NavigatorConfig struct {
	Type string `yaml:"type" json:"type"`

	// LinkSelectors locate detail-page links (single_level, hybrid)
	LinkSelectors []SelectorSpec `yaml:"link_selectors,omitempty" json:"link_selectors,omitempty"`

	// NextPage locates the pagination link on listing pages
	NextPage []SelectorSpec `yaml:"next_page,omitempty" json:"next_page,omitempty"`

	// MaxPages bounds pagination, 0 means single page
	MaxPages int `yaml:"max_pages,omitempty" json:"max_pages,omitempty"`

	// Levels describe each navigation depth (multi_level)
	Levels []LevelConfig `yaml:"levels,omitempty" json:"levels,omitempty"`

	// DocumentSelectors locate downloadable files (document, hybrid)
	DocumentSelectors []SelectorSpec `yaml:"document_selectors,omitempty" json:"document_selectors,omitempty"`

	// Targets are fixed pages requiring no discovery fetch (static)
	Targets []StaticTarget `yaml:"targets,omitempty" json:"targets,omitempty"`
}

// LevelConfig describes one depth of a multi-level navigation tree.
// Terminal levels emit targets instead of descending further.
type LevelConfig struct {
	LinkSelectors []SelectorSpec `yaml:"link_selectors" json:"link_selectors"`
	Terminal      bool           `yaml:"terminal,omitempty" json:"terminal,omitempty"`
}

// StaticTarget is a hand-configured grant page.
type StaticTarget struct {
	URL   string `yaml:"url" json:"url"`
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
}

// ParserConfig selects and parameterizes an extraction strategy.
type ParserConfig struct {
	Type string `yaml:"type" json:"type"`

	// Fields map record fields to selector fallback chains (html_detail)
	Fields map[string][]SelectorSpec `yaml:"fields,omitempty" json:"fields,omitempty"`

	// RowSelectors locate table rows; field chains then run relative
	// to each row (table)
	RowSelectors []SelectorSpec `yaml:"row_selectors,omitempty" json:"row_selectors,omitempty"`

	// Static values known ahead of time, merged into every record
	// extracted from the page (static_page)
	Static map[string]string `yaml:"static,omitempty" json:"static,omitempty"`

	// RecordPath is the dot path to the record array in a JSON
	// response (api)
	RecordPath string `yaml:"record_path,omitempty" json:"record_path,omitempty"`

	// FieldMap maps record fields to response field names (api)
	FieldMap map[string]string `yaml:"field_map,omitempty" json:"field_map,omitempty"`

	// Sheet selects the spreadsheet tab, first sheet if empty (table)
	Sheet string `yaml:"sheet,omitempty" json:"sheet,omitempty"`

	// SkipDocuments disables attachment collection on detail pages
	SkipDocuments bool `yaml:"skip_documents,omitempty" json:"skip_documents,omitempty"`
}

// OutputConfig defines the sinks run results are written to.
type OutputConfig struct {
	// Format of the file sink: json, csv or excel
	Format string `yaml:"format,omitempty" json:"format,omitempty"`

	// File is the output path for the file sink
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// Database enables a SQL sink when present
	Database *DatabaseConfig `yaml:"database,omitempty" json:"database,omitempty"`

	// MongoDB enables a document-store sink when present
	MongoDB *MongoDBConfig `yaml:"mongodb,omitempty" json:"mongodb,omitempty"`
}

// DatabaseConfig targets a SQL sink. Driver is one of sqlite3,
// postgres, mysql.
type DatabaseConfig struct {
	Driver    string `yaml:"driver" json:"driver"`
	DSN       string `yaml:"dsn" json:"dsn"`
	Table     string `yaml:"table,omitempty" json:"table,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
}

// MongoDBConfig targets a MongoDB collection sink.
type MongoDBConfig struct {
	URI        string `yaml:"uri" json:"uri"`
	Database   string `yaml:"database" json:"database"`
	Collection string `yaml:"collection,omitempty" json:"collection,omitempty"`
}

// MonitoringConfig enables the Prometheus metrics endpoint.
type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Listen  string `yaml:"listen,omitempty" json:"listen,omitempty"`
}
