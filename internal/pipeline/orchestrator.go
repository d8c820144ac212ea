// internal/pipeline/orchestrator.go
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/dedup"
	"github.com/grantio/grantscraper/internal/docs"
	"github.com/grantio/grantscraper/internal/monitoring"
	"github.com/grantio/grantscraper/internal/utils"
	"github.com/grantio/grantscraper/pkg/types"
)

// Run modes.
const (
	ModeFull       = "full"
	ModePrimary    = "primary"
	ModeAggregator = "aggregator"
)

// RunOptions selects and bounds a run. Zero values fall back to the
// loaded configuration.
type RunOptions struct {
	// Mode gates sources by tier: primary, aggregator, or full
	Mode string

	// Sources restricts the run to the listed IDs when non-empty
	Sources []string

	// MaxPerSource caps discovered targets per source
	MaxPerSource int

	// Concurrency bounds simultaneously running sources
	Concurrency int
}

// Result is the outcome of one full run.
type Result struct {
	Grants   []types.Grant
	Reports  []Report
	Failures int

	// Merged counts duplicates collapsed across sources.
	Merged int
}

// Orchestrator fans the per-source pipelines out and merges their
// output into one deduplicated grant set.
type Orchestrator struct {
	cfg           *config.Config
	logger        utils.Logger
	metrics       *monitoring.Metrics
	textExtractor docs.TextExtractor
}

func NewOrchestrator(cfg *config.Config, logger utils.Logger) *Orchestrator {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Orchestrator{cfg: cfg, logger: logger}
}

// WithMetrics attaches run instrumentation.
func (o *Orchestrator) WithMetrics(metrics *monitoring.Metrics) *Orchestrator {
	o.metrics = metrics
	return o
}

// WithTextExtractor plugs in document text extraction for PDF parsing.
func (o *Orchestrator) WithTextExtractor(extractor docs.TextExtractor) *Orchestrator {
	o.textExtractor = extractor
	return o
}

// Run scrapes every selected source under the concurrency bound and
// deduplicates across them. One failing source never aborts the
// batch; cancellation stops scheduling and the sources finished so
// far still contribute their grants.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	sources := o.selectSources(opts)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources match the run selection")
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = o.cfg.Concurrency
	}
	maxPerSource := opts.MaxPerSource
	if maxPerSource == 0 {
		maxPerSource = o.cfg.MaxPerSource
	}

	o.logger.WithFields(map[string]interface{}{
		"sources":     len(sources),
		"concurrency": concurrency,
	}).Info("run started")

	accumulator := dedup.New()
	var (
		mu      sync.Mutex
		reports []Report
		total   int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, source := range sources {
		source := source
		g.Go(func() (err error) {
			defer func() {
				// A panicking source must not take the batch down.
				if r := recover(); r != nil {
					o.logger.WithField("source", source.ID).
						Errorf("pipeline panicked: %v", r)
					mu.Lock()
					reports = append(reports, Report{
						SourceID: source.ID,
						Errors:   []string{fmt.Sprintf("panic: %v", r)},
					})
					mu.Unlock()
				}
				err = nil
			}()

			if o.metrics != nil {
				o.metrics.SourcesRunning.Inc()
				defer o.metrics.SourcesRunning.Dec()
			}

			p, err := New(source, Options{
				Timeout:       o.cfg.RequestTimeout,
				RetryAttempts: o.cfg.RetryAttempts,
				RetryDelay:    o.cfg.RetryDelay,
				CacheTTL:      o.cfg.CacheTTL,
				UserAgents:    o.cfg.UserAgents,
				TextExtractor: o.textExtractor,
				Metrics:       o.metrics,
				Logger:        o.logger,
			})
			if err != nil {
				mu.Lock()
				reports = append(reports, Report{
					SourceID: source.ID,
					Errors:   []string{err.Error()},
				})
				mu.Unlock()
				return nil
			}

			grants, report := p.Run(gctx, maxPerSource)

			mu.Lock()
			for _, grant := range grants {
				accumulator.Add(grant)
			}
			total += len(grants)
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only orders the accumulation.
	_ = g.Wait()

	result := &Result{
		Grants:  accumulator.Resolve(),
		Reports: reports,
	}
	result.Merged = total - len(result.Grants)
	for _, report := range result.Reports {
		if len(report.Errors) > 0 {
			result.Failures++
		}
	}
	if o.metrics != nil && result.Merged > 0 {
		o.metrics.DuplicatesMerged.Add(float64(result.Merged))
	}

	o.logger.WithFields(map[string]interface{}{
		"grants":   len(result.Grants),
		"merged":   result.Merged,
		"failures": result.Failures,
	}).Info("run finished")

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run cancelled: %w", err)
	}
	return result, nil
}

// selectSources applies the mode gate and the explicit ID filter to
// the enabled sources.
func (o *Orchestrator) selectSources(opts RunOptions) []config.SourceConfig {
	var ids map[string]bool
	if len(opts.Sources) > 0 {
		ids = make(map[string]bool, len(opts.Sources))
		for _, id := range opts.Sources {
			ids[id] = true
		}
	}

	var selected []config.SourceConfig
	for _, source := range o.cfg.EnabledSources() {
		switch opts.Mode {
		case "", ModeFull:
		case ModePrimary:
			if source.Tier != config.TierPrimary {
				continue
			}
		case ModeAggregator:
			if source.Tier != config.TierAggregator {
				continue
			}
		default:
			o.logger.Warnf("unknown mode %q, running all tiers", opts.Mode)
		}
		if ids != nil && !ids[source.ID] {
			continue
		}
		selected = append(selected, source)
	}
	return selected
}
