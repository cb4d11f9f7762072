package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-enricher/internal/metrics"
	"github.com/pfrederiksen/event-enricher/internal/scraper"
)

func newFetchCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [url...]",
		Short: "Fetch pages concurrently and report each outcome",
		Long: `Fetch the given URLs concurrently. With no arguments, the event pages
discovered on the index page (up to --sample-size) are fetched instead.
Exits with status 2 when some fetches fail.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, opts, args)
		},
	}

	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "Maximum fetches in flight (0 = all at once)")

	return cmd
}

func runFetch(cmd *cobra.Command, opts *rootOptions, args []string) error {
	format, err := parseFormat(opts.format)
	if err != nil {
		return err
	}
	if format == FormatCSV {
		return fmt.Errorf("invalid format for fetch: %s (must be 'text' or 'json')", opts.format)
	}
	log, err := setupLogger(cmd.ErrOrStderr(), opts)
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
	ctx := cmd.Context()

	urls := args
	if len(urls) == 0 {
		stubs, err := c.indexer.Discover(ctx, cfg.IndexURL)
		if err != nil {
			return fmt.Errorf("discovering events: %w", err)
		}
		if len(stubs) > cfg.SampleSize {
			stubs = stubs[:cfg.SampleSize]
		}
		for _, s := range stubs {
			urls = append(urls, s.SourceURL)
		}
	}

	results := c.fetcher.FetchAll(ctx, urls, cfg.Batch.Concurrency)

	if err := WriteBatch(cmd.OutOrStdout(), results, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if failed := scraper.CountFailed(results); failed > 0 {
		return fmt.Errorf("%w: %d of %d fetches failed", errPartialBatch, failed, len(results))
	}
	return nil
}
