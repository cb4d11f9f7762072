package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pfrederiksen/event-enricher/internal/event"
	"github.com/pfrederiksen/event-enricher/internal/logger"
	"github.com/pfrederiksen/event-enricher/internal/metrics"
	"github.com/pfrederiksen/event-enricher/internal/scraper"
)

// ErrInvalidSampleSize is returned when a negative sample size is requested
var ErrInvalidSampleSize = errors.New("sample size must not be negative")

// Exporter receives the completed result set of a run
type Exporter interface {
	Export(rs *event.ResultSet) error
}

// Options controls a single Index run
type Options struct {
	// SampleSize is the number of discovered events to process. Zero yields
	// an empty result set.
	SampleSize int

	// Observer, if set, is called with each record as soon as it is built.
	Observer func(*event.Record)

	// Exporter, if set, receives the result set after every event is processed.
	Exporter Exporter

	// SkipFailed records extraction errors as failures and carries on instead
	// of aborting the run.
	SkipFailed bool
}

// Indexer orchestrates discovery and extraction. It keeps no state between
// runs and is safe to reuse.
type Indexer struct {
	pages     PageFetcher
	extractor *Extractor
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewIndexer creates an Indexer. pages is used to fetch the index page.
func NewIndexer(pages PageFetcher, extractor *Extractor, log *logger.Logger, m *metrics.Metrics) *Indexer {
	if log == nil {
		log = logger.Default()
	}
	return &Indexer{
		pages:     pages,
		extractor: extractor,
		log:       log,
		metrics:   m,
	}
}

// Discover fetches the index page and returns a stub per event listing in
// document order
func (ix *Indexer) Discover(ctx context.Context, indexURL string) ([]event.Stub, error) {
	doc, err := ix.pages.FetchDocument(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetching index %s: %w", indexURL, err)
	}

	links := scraper.EventLinks(doc)
	stubs := make([]event.Stub, 0, len(links))
	for _, link := range links {
		stubs = append(stubs, event.Stub{SourceURL: link})
	}
	return stubs, nil
}

// Index discovers events on indexURL and extracts the first opts.SampleSize
// of them in order. When the exporter fails, the completed result set is
// still returned alongside the error.
func (ix *Indexer) Index(ctx context.Context, indexURL string, opts Options) (*event.ResultSet, error) {
	if opts.SampleSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleSize, opts.SampleSize)
	}

	log := ix.log.With(logger.Fields{
		"run_id":    uuid.NewString(),
		"index_url": indexURL,
	})

	stubs, err := ix.Discover(ctx, indexURL)
	if err != nil {
		log.Error("Discovery failed", nil, err)
		return nil, err
	}
	if len(stubs) > opts.SampleSize {
		stubs = stubs[:opts.SampleSize]
	}
	log.Info("Discovered events", logger.Fields{
		"sampled": len(stubs),
	})

	rs := event.NewResultSet(indexURL)
	for i, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := ix.extractor.Extract(ctx, stub)
		if err != nil {
			ix.metrics.IncEvent(metrics.OutcomeFailed)
			if !opts.SkipFailed {
				log.Error("Event extraction failed", logger.Fields{"url": stub.SourceURL}, err)
				return nil, err
			}
			log.Warn("Skipping failed event", logger.Fields{
				"url":   stub.SourceURL,
				"error": err.Error(),
			})
			rs.AddFailure(stub.SourceURL, err)
			continue
		}

		ix.metrics.IncEvent(metrics.OutcomeOK)
		rs.Add(record)
		log.Debug("Extracted event", logger.Fields{
			"position":  i,
			"url":       record.SourceURL,
			"organizer": record.Organizer,
			"domain":    record.DomainURL(),
		})
		if opts.Observer != nil {
			opts.Observer(record)
		}
	}

	log.Info("Run complete", logger.Fields{
		"records":  rs.Len(),
		"resolved": rs.Resolved(),
		"failed":   len(rs.Failures),
	})

	if opts.Exporter != nil {
		if err := opts.Exporter.Export(rs); err != nil {
			return rs, fmt.Errorf("exporting results: %w", err)
		}
	}
	return rs, nil
}
