package organizer

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/event-enricher/internal/event"
	"github.com/pfrederiksen/event-enricher/internal/logger"
	"github.com/pfrederiksen/event-enricher/internal/metrics"
	"github.com/pfrederiksen/event-enricher/internal/scraper"
)

// PageFetcher fetches and parses directory site pages
type PageFetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

// Lookup finds a domain for an organizer name. found is false when the
// service has no match; that is not an error.
type Lookup interface {
	FindDomain(ctx context.Context, name string) (domain string, found bool, err error)
}

// Resolver resolves organizer domains using the directory site first and the
// external lookup second
type Resolver struct {
	pages   PageFetcher
	lookup  Lookup
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewResolver creates a Resolver. lookup may be nil, in which case only the
// directory site is consulted.
func NewResolver(pages PageFetcher, lookup Lookup, log *logger.Logger, m *metrics.Metrics) *Resolver {
	if log == nil {
		log = logger.Default()
	}
	return &Resolver{
		pages:   pages,
		lookup:  lookup,
		log:     log,
		metrics: m,
	}
}

// Resolve returns the organizer's domain, or nil when neither tier finds one
func (r *Resolver) Resolve(ctx context.Context, eventPage *goquery.Document, organizerName string) (*event.Domain, error) {
	// Tier 1: homepage link on the organizer's directory profile
	href, err := r.homepageFromDirectory(ctx, eventPage)
	if err != nil {
		return nil, err
	}
	if href != "" {
		r.metrics.IncResolution(string(event.SourceDirectory))
		return newDomain(href, event.SourceDirectory), nil
	}

	// Tier 2: name-based lookup
	domain, err := r.domainFromLookup(ctx, organizerName)
	if err != nil {
		return nil, err
	}
	if domain != "" {
		r.metrics.IncResolution(string(event.SourceLookup))
		return newDomain(domain, event.SourceLookup), nil
	}

	r.metrics.IncResolution("")
	r.log.Debug("No organizer domain found", logger.Fields{
		"organizer": organizerName,
	})
	return nil, nil
}

// homepageFromDirectory returns "" with a nil error when the profile link or
// the homepage link is missing
func (r *Resolver) homepageFromDirectory(ctx context.Context, eventPage *goquery.Document) (string, error) {
	profileURL, ok := scraper.OrganizerProfileURL(eventPage)
	if !ok {
		r.log.Debug("Event page has no organizer profile link", nil)
		return "", nil
	}

	profile, err := r.pages.FetchDocument(ctx, profileURL)
	if err != nil {
		return "", fmt.Errorf("fetching organizer profile: %w", err)
	}

	href, ok := scraper.OrganizerHomepage(profile)
	if !ok {
		r.log.Debug("Organizer profile has no homepage link", logger.Fields{
			"profile_url": profileURL,
		})
		return "", nil
	}
	return href, nil
}

func (r *Resolver) domainFromLookup(ctx context.Context, organizerName string) (string, error) {
	if r.lookup == nil || organizerName == "" {
		return "", nil
	}

	domain, found, err := r.lookup.FindDomain(ctx, organizerName)
	if err != nil {
		return "", fmt.Errorf("looking up domain for %q: %w", organizerName, err)
	}
	if !found {
		return "", nil
	}
	return domain, nil
}

func newDomain(raw string, source event.DomainSource) *event.Domain {
	return &event.Domain{
		URL:    raw,
		Source: source,
		Host:   RegistrableHost(raw),
	}
}
