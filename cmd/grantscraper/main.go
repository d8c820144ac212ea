// cmd/grantscraper/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/internal/monitoring"
	"github.com/grantio/grantscraper/internal/output"
	"github.com/grantio/grantscraper/internal/pipeline"
	"github.com/grantio/grantscraper/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "run":
		if err := runCommand(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: grantscraper validate <config.yaml>")
			os.Exit(1)
		}
		if err := validateCommand(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "sources":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: grantscraper sources <config.yaml>")
			os.Exit(1)
		}
		if err := sourcesCommand(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version", "--version", "-v":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runCommand(args []string) error {
	flags := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := flags.String("config", "configs/sources.yaml", "path to the sources configuration")
	mode := flags.String("mode", pipeline.ModeFull, "source tier gate: full, primary, or aggregator")
	sources := flags.String("source", "", "comma-separated source IDs to run, empty for all")
	maxPerSource := flags.Int("max-per-source", 0, "cap on targets per source, 0 for unlimited")
	concurrency := flags.Int("concurrency", 0, "simultaneously running sources, 0 for configured default")
	outFile := flags.String("output", "", "output file, overrides the configured one")
	outFormat := flags.String("format", "", "output format: json, jsonl, csv, or xlsx")
	interval := flags.Duration("interval", 0, "rerun period for continuous scraping, 0 for a single run")
	if err := flags.Parse(args); err != nil {
		return err
	}

	applyOverrides := func(cfg *config.Config) {
		if *outFile != "" {
			cfg.Output.File = *outFile
		}
		if *outFormat != "" {
			cfg.Output.Format = *outFormat
		}
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(cfg)

	logger := utils.NewLoggerWithLevel(parseLogLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewMetrics()
	if cfg.Monitoring != nil && cfg.Monitoring.Enabled {
		server := monitoring.NewServer(cfg.Monitoring.Listen, metrics, logger)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(shutdownCtx)
		}()
	}

	var sourceIDs []string
	if *sources != "" {
		for _, id := range strings.Split(*sources, ",") {
			sourceIDs = append(sourceIDs, strings.TrimSpace(id))
		}
	}
	runOpts := pipeline.RunOptions{
		Mode:         *mode,
		Sources:      sourceIDs,
		MaxPerSource: *maxPerSource,
		Concurrency:  *concurrency,
	}

	// Continuous runs pick up catalog edits between iterations.
	var cfgMu sync.Mutex
	if *interval > 0 {
		watcher, err := config.NewWatcher(*configPath, logger)
		if err != nil {
			logger.Warnf("catalog watching disabled: %v", err)
		} else {
			defer watcher.Close()
			watcher.OnChange(func(next *config.Config) {
				applyOverrides(next)
				cfgMu.Lock()
				cfg = next
				cfgMu.Unlock()
			})
		}
	}

	for {
		cfgMu.Lock()
		runCfg := cfg
		cfgMu.Unlock()

		if err := scrapeOnce(ctx, runCfg, runOpts, metrics, logger); err != nil {
			if *interval == 0 {
				return err
			}
			logger.Errorf("scrape failed: %v", err)
		}

		if *interval == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(*interval):
		}
	}
}

func scrapeOnce(ctx context.Context, cfg *config.Config, opts pipeline.RunOptions,
	metrics *monitoring.Metrics, logger utils.Logger) error {

	orchestrator := pipeline.NewOrchestrator(cfg, logger).WithMetrics(metrics)

	result, runErr := orchestrator.Run(ctx, opts)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		// Cancellation still delivers the grants scraped so far.
		logger.Warnf("run ended early: %v", runErr)
	}

	manager, err := output.NewManager(cfg.Output, logger)
	if err != nil {
		return err
	}
	defer manager.Close()

	if err := manager.Write(ctx, result.Grants); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Scraped %d grants (%d merged, %d source failures)\n",
		len(result.Grants), result.Merged, result.Failures)
	return nil
}

func validateCommand(path string) error {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}

	result := cfg.ValidateAll()
	for _, warning := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	fmt.Printf("✓ Configuration '%s' is valid (%d sources)\n", path, len(cfg.Sources))
	return nil
}

func sourcesCommand(path string) error {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}

	sources := cfg.Sources
	sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })

	for _, src := range sources {
		state := "enabled"
		if !src.IsEnabled() {
			state = "disabled"
		}
		fmt.Printf("%-20s %-10s priority=%-3d %s/%s  %s (%s)\n",
			src.ID, src.Tier, src.Priority,
			src.Navigator.Type, src.Parser.Type, src.Name, state)
	}
	return nil
}

func parseLogLevel(level string) utils.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return utils.DebugLevel
	case "warn":
		return utils.WarnLevel
	case "error":
		return utils.ErrorLevel
	default:
		return utils.InfoLevel
	}
}

func printVersion() {
	fmt.Printf("grantscraper %s (built %s, commit %s)\n", version, buildTime, gitCommit)
}

func printUsage() {
	fmt.Print(`grantscraper - configuration-driven grant scraping

Usage:
  grantscraper run [flags]          scrape the configured sources
  grantscraper validate <config>    check a configuration file
  grantscraper sources <config>     list configured sources
  grantscraper version              print version information

Run flags:
  --config <path>         sources configuration (default configs/sources.yaml)
  --mode <mode>           full | primary | aggregator (default full)
  --source <ids>          comma-separated source IDs to run
  --max-per-source <n>    cap discovered targets per source
  --concurrency <n>       sources scraped at once
  --output <path>         override the configured output file
  --format <fmt>          json | jsonl | csv | xlsx
  --interval <dur>        rerun period, e.g. 6h; catalog edits are
                          picked up between runs (default single run)
`)
}
