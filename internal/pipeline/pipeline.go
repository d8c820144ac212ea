// internal/pipeline/pipeline.go

// Package pipeline composes discovery, extraction, and normalization
// for one source, and fans sources out under a concurrency bound.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/docs"
	"github.com/grantio/grantscraper/internal/enrich"
	"github.com/grantio/grantscraper/internal/fetch"
	"github.com/grantio/grantscraper/internal/monitoring"
	"github.com/grantio/grantscraper/internal/navigator"
	"github.com/grantio/grantscraper/internal/parser"
	"github.com/grantio/grantscraper/internal/selector"
	"github.com/grantio/grantscraper/internal/utils"
	"github.com/grantio/grantscraper/pkg/types"
)

// Report summarizes one source's scrape.
type Report struct {
	SourceID string        `json:"source_id"`
	Targets  int           `json:"targets"`
	Records  int           `json:"records"`
	Grants   int           `json:"grants"`
	Partial  int           `json:"partial"`
	Failed   int           `json:"failed"`
	Errors   []string      `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Pipeline scrapes one source end to end. Instances are independent;
// nothing is shared across sources except the downstream accumulator.
type Pipeline struct {
	source  config.SourceConfig
	fetcher fetch.Fetcher
	nav     navigator.Navigator
	parse   parser.Parser
	pdf     parser.Parser
	builder *enrich.Builder
	metrics *monitoring.Metrics
	logger  utils.Logger
}

// Options carries the run-global knobs a pipeline inherits.
type Options struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	CacheTTL      time.Duration
	UserAgents    []string
	TextExtractor docs.TextExtractor
	Metrics       *monitoring.Metrics
	Logger        utils.Logger

	// Fetcher overrides the HTTP client, used by tests.
	Fetcher fetch.Fetcher
}

// New assembles a pipeline for one source. The fetcher, rate limiter,
// and page cache are scoped to the source and never shared.
func New(source config.SourceConfig, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	logger = logger.WithField("source", source.ID)

	fetcher := opts.Fetcher
	if fetcher == nil {
		cache := fetch.NewCache(opts.CacheTTL)
		if source.UseBrowser {
			fetcher = fetch.NewBrowserFetcher(fetch.BrowserConfig{
				Timeout: opts.Timeout,
				Cache:   cache,
				Logger:  logger,
			})
		} else {
			fetcher = fetch.NewClient(fetch.ClientConfig{
				Timeout:           opts.Timeout,
				RetryAttempts:     opts.RetryAttempts,
				RetryDelay:        opts.RetryDelay,
				RequestsPerSecond: source.RequestsPerSecond,
				Burst:             source.Burst,
				UserAgents:        opts.UserAgents,
				Cache:             cache,
				Logger:            logger,
			})
		}
	}

	engine := selector.NewEngine(logger)

	nav, err := navigator.New(navigator.Deps{
		Source:  source,
		Fetcher: fetcher,
		Engine:  engine,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.ID, err)
	}

	parserDeps := parser.Deps{
		Source:        source,
		Fetcher:       fetcher,
		Engine:        engine,
		Logger:        logger,
		TextExtractor: opts.TextExtractor,
	}
	parse, err := parser.New(parserDeps)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.ID, err)
	}

	// Document targets bypass the configured strategy; binary files
	// always go through the document parser.
	pdf, err := parser.NewTagged(config.ParserPDF, parserDeps)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.ID, err)
	}

	return &Pipeline{
		source:  source,
		fetcher: fetcher,
		nav:     nav,
		parse:   parse,
		pdf:     pdf,
		builder: enrich.NewBuilder(source, logger),
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// Run discovers targets and extracts grants from them. maxTargets
// caps discovery, 0 meaning unlimited; the source's own MaxTargets
// also applies and the lower bound wins. A failing target is logged
// and skipped; the error return covers only discovery-level failure,
// and even then the grants scraped before the failure are returned.
func (p *Pipeline) Run(ctx context.Context, maxTargets int) ([]types.Grant, Report) {
	started := time.Now()
	report := Report{SourceID: p.source.ID}

	limit := maxTargets
	if p.source.MaxTargets > 0 && (limit == 0 || p.source.MaxTargets < limit) {
		limit = p.source.MaxTargets
	}

	var targets []types.GrantTarget
	err := p.nav.Discover(ctx, func(target types.GrantTarget) bool {
		targets = append(targets, target)
		return limit == 0 || len(targets) < limit
	})
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("discovery: %v", err))
		p.logger.Errorf("discovery failed: %v", err)
	}
	report.Targets = len(targets)
	if p.metrics != nil {
		p.metrics.TargetsDiscovered.WithLabelValues(p.source.ID).Add(float64(len(targets)))
	}

	var grants []types.Grant
	for _, target := range targets {
		if ctx.Err() != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("run cancelled: %v", ctx.Err()))
			break
		}

		records, err := p.extract(ctx, target)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors,
				fmt.Sprintf("target %s: %v", target.URL, err))
			p.logger.WithField("url", target.URL).Warnf("extraction failed: %v", err)
			if p.metrics != nil {
				p.metrics.ParseErrors.WithLabelValues(p.source.ID).Inc()
				if fetch.IsTransient(err) {
					p.metrics.FetchErrors.WithLabelValues(p.source.ID, "transient").Inc()
				}
			}
			continue
		}
		report.Records += len(records)

		for _, record := range records {
			if record[parser.FieldType] == nil && target.Metadata[navigator.MetaGrantType] != "" {
				record[parser.FieldType] = target.Metadata[navigator.MetaGrantType]
			}
			grant, err := p.builder.Build(record)
			if err != nil {
				p.logger.WithField("url", target.URL).Debugf("record dropped: %v", err)
				continue
			}
			if grant.Status == types.StatusPartial {
				report.Partial++
				if p.metrics != nil {
					p.metrics.PartialGrants.WithLabelValues(p.source.ID).Inc()
				}
			}
			grants = append(grants, grant)
		}
	}

	report.Grants = len(grants)
	report.Duration = time.Since(started)
	if p.metrics != nil {
		p.metrics.RecordsExtracted.WithLabelValues(p.source.ID).Add(float64(report.Records))
		p.metrics.GrantsBuilt.WithLabelValues(p.source.ID).Add(float64(report.Grants))
		p.metrics.SourceDuration.WithLabelValues(p.source.ID).Observe(report.Duration.Seconds())
	}

	p.logger.WithFields(map[string]interface{}{
		"targets": report.Targets,
		"grants":  report.Grants,
		"failed":  report.Failed,
	}).Info("source scraped")

	return grants, report
}

func (p *Pipeline) extract(ctx context.Context, target types.GrantTarget) ([]parser.RawRecord, error) {
	if target.Metadata[navigator.MetaDocument] == "true" {
		return p.pdf.Extract(ctx, target)
	}
	return p.parse.Extract(ctx, target)
}
