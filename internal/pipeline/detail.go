package pipeline

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/event-enricher/internal/event"
	"github.com/pfrederiksen/event-enricher/internal/logger"
	"github.com/pfrederiksen/event-enricher/internal/metrics"
	"github.com/pfrederiksen/event-enricher/internal/scraper"
)

// PageFetcher fetches and parses a page
type PageFetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// DomainResolver resolves an organizer's domain from their event page
type DomainResolver interface {
	Resolve(ctx context.Context, eventPage *goquery.Document, organizerName string) (*event.Domain, error)
}

// Extractor builds a Record from a single event page
type Extractor struct {
	pages    PageFetcher
	resolver DomainResolver
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewExtractor creates an Extractor
func NewExtractor(pages PageFetcher, resolver DomainResolver, log *logger.Logger, m *metrics.Metrics) *Extractor {
	if log == nil {
		log = logger.Default()
	}
	return &Extractor{
		pages:    pages,
		resolver: resolver,
		log:      log,
		metrics:  m,
	}
}

// Extract fetches the stub's event page and returns the enriched record.
// A missing organizer name or title is recorded as an empty string.
func (e *Extractor) Extract(ctx context.Context, stub event.Stub) (*event.Record, error) {
	doc, err := e.pages.FetchDocument(ctx, stub.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("fetching event page %s: %w", stub.SourceURL, err)
	}

	organizer, ok := scraper.OrganizerName(doc)
	if !ok {
		e.log.Debug("Event page has no organizer name", logger.Fields{"url": stub.SourceURL})
	}
	title, ok := scraper.EventTitle(doc)
	if !ok {
		e.log.Debug("Event page has no title", logger.Fields{"url": stub.SourceURL})
	}

	domain, err := e.resolver.Resolve(ctx, doc, organizer)
	if err != nil {
		return nil, fmt.Errorf("resolving organizer for %s: %w", stub.SourceURL, err)
	}

	return event.NewRecord(stub, organizer, title, domain), nil
}
