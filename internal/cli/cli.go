package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-enricher/internal/config"
	"github.com/pfrederiksen/event-enricher/internal/event"
	"github.com/pfrederiksen/event-enricher/internal/export"
	"github.com/pfrederiksen/event-enricher/internal/logger"
	"github.com/pfrederiksen/event-enricher/internal/metrics"
	"github.com/pfrederiksen/event-enricher/internal/organizer"
	"github.com/pfrederiksen/event-enricher/internal/pipeline"
	"github.com/pfrederiksen/event-enricher/internal/scraper"
)

const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitPartialBatch = 2
)

// Version is reported by --version
var Version = "dev"

// errPartialBatch marks a fetch batch where some URLs failed
var errPartialBatch = errors.New("batch partially failed")

// rootOptions holds flag values for one command tree
type rootOptions struct {
	configPath  string
	indexURL    string
	sampleSize  int
	verbose     bool
	format      string
	logLevel    string
	metricsFile string

	saveCSV    bool
	outputDir  string
	skipFailed bool

	concurrency int

	getenv func(string) string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{getenv: os.Getenv}

	cmd := &cobra.Command{
		Use:   "event-enricher",
		Short: "Enrich event listings with organizer domains",
		Long: `A CLI tool that samples events from an event directory index page,
extracts each event's title and organizer, and resolves the organizer's
website domain from the directory profile or the Clearbit lookup API.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.StringVar(&opts.indexURL, "index-url", config.DefaultIndexURL, "Index page to discover events from")
	pf.IntVar(&opts.sampleSize, "sample-size", config.DefaultSampleSize, "Number of events to process")
	pf.BoolVar(&opts.verbose, "verbose", false, "Stream progress to stderr and enable debug logging")
	pf.StringVar(&opts.format, "format", "text", "Output format: text, json or csv")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")

	cmd.Flags().BoolVar(&opts.saveCSV, "save-csv", false, "Export results to sample_events_<unix>.csv")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", config.DefaultOutputDir, "Directory for the CSV export")
	cmd.Flags().BoolVar(&opts.skipFailed, "skip-failed", false, "Record failed events and continue instead of aborting")

	cmd.AddCommand(newFetchCmd(opts))

	return cmd
}

// loadConfig reads the config file and overlays the environment and any flags
// set explicitly on the command line
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.ApplyEnv(opts.getenv)

	flags := cmd.Flags()
	if flags.Changed("index-url") {
		cfg.IndexURL = opts.indexURL
	}
	if flags.Changed("sample-size") {
		cfg.SampleSize = opts.sampleSize
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = opts.outputDir
	}
	if flags.Changed("concurrency") {
		cfg.Batch.Concurrency = opts.concurrency
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// setupLogger configures the default logger for the run. --log-level wins
// over --verbose.
func setupLogger(w io.Writer, opts *rootOptions) (*logger.Logger, error) {
	level := logger.LevelInfo
	if opts.verbose {
		level = logger.LevelDebug
	}
	if opts.logLevel != "" {
		l, err := logger.ParseLevel(opts.logLevel)
		if err != nil {
			return nil, err
		}
		level = l
	}

	log := logger.New(level, w)
	logger.SetDefault(log)
	return log, nil
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch format {
	case FormatText, FormatJSON, FormatCSV:
		return format, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'csv')", s)
	}
}

// components wires the fetcher and the pipeline from cfg
type components struct {
	fetcher *scraper.Fetcher
	indexer *pipeline.Indexer
}

func newComponents(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) *components {
	fetcher := scraper.New(scraper.Options{
		UserAgent:     cfg.HTTP.UserAgent,
		Timeout:       cfg.HTTP.Timeout,
		RatePerSecond: cfg.HTTP.RatePerSecond,
		Burst:         cfg.HTTP.Burst,
		MaxRetries:    cfg.HTTP.MaxRetries,
		Backoff:       cfg.HTTP.Backoff,
		MaxBackoff:    cfg.HTTP.MaxBackoff,
		Logger:        log,
		Metrics:       m,
	})

	var lookup organizer.Lookup
	if cfg.Lookup.APIKey != "" {
		client := organizer.NewClearbitClient(cfg.Lookup.APIKey, organizer.ClearbitOptions{
			BaseURL:   cfg.Lookup.BaseURL,
			UserAgent: cfg.HTTP.UserAgent,
			Client:    fetcher.Client(),
		})
		lookup = organizer.NewCachedLookup(client, cfg.Lookup.CacheTTL)
	} else {
		log.Warn("No lookup API key set, organizer domains come from the directory only", logger.Fields{
			"env": config.APIKeyEnv,
		})
	}

	resolver := organizer.NewResolver(fetcher, lookup, log, m)
	extractor := pipeline.NewExtractor(fetcher, resolver, log, m)

	return &components{
		fetcher: fetcher,
		indexer: pipeline.NewIndexer(fetcher, extractor, log, m),
	}
}

// writeMetrics writes the metrics textfile when one was requested
func writeMetrics(path string, m *metrics.Metrics, log *logger.Logger) {
	if path == "" {
		return
	}
	if err := m.WriteTextfile(path); err != nil {
		log.Error("Failed to write metrics file", logger.Fields{"path": path}, err)
	}
}

// runIndex is the main command logic
func runIndex(cmd *cobra.Command, opts *rootOptions) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}
	log, err := setupLogger(stderr, opts)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	m := metrics.New()
	defer writeMetrics(opts.metricsFile, m, log)

	c := newComponents(cfg, log, m)

	runOpts := pipeline.Options{
		SampleSize: cfg.SampleSize,
		SkipFailed: opts.skipFailed,
	}
	if opts.verbose {
		n := 0
		runOpts.Observer = func(r *event.Record) {
			n++
			fmt.Fprintf(stderr, "[%d] %s | %s | %s\n", n, r.Title, r.Organizer, valueOr(r.DomainURL(), "-"))
		}
	}

	var exporter *export.CSVExporter
	if opts.saveCSV {
		exporter, err = export.NewCSVExporter(cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("initializing export: %w", err)
		}
		runOpts.Exporter = exporter
	}

	rs, runErr := c.indexer.Index(cmd.Context(), cfg.IndexURL, runOpts)
	if rs == nil {
		return fmt.Errorf("indexing events: %w", runErr)
	}

	if err := WriteOutput(stdout, rs, format, opts.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	if exporter != nil {
		fmt.Fprintf(stderr, "Saved %d events to %s\n", rs.Len(), exporter.Path())
	}
	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// exitCode maps a command error to the process exit status, reporting it on w
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.Is(err, errPartialBatch) {
		return ExitPartialBatch
	}
	return ExitError
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(os.Stderr, err))
}
