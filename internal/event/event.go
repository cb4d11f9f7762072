package event

import (
	"crypto/sha1"
	"fmt"
)

// DomainSource identifies which resolution tier produced a domain
type DomainSource string

const (
	// SourceDirectory means the homepage link was scraped from the organizer's
	// profile page on the directory site.
	SourceDirectory DomainSource = "directory"
	// SourceLookup means the domain came from the external name lookup. It is a
	// best guess and has not been verified against the organizer.
	SourceLookup DomainSource = "lookup"
)

// Domain is a resolved organizer domain
type Domain struct {
	URL    string       `json:"url"`
	Source DomainSource `json:"source"`
	Host   string       `json:"host,omitempty"` // Registrable host (eTLD+1), empty if underivable
}

// Stub is an event discovered on the index page, before enrichment
type Stub struct {
	SourceURL string `json:"source_url"`
}

// Record is a fully extracted event. OrganizerDomain is nil when neither
// resolution tier found anything.
type Record struct {
	ID              string  `json:"id"`
	SourceURL       string  `json:"source_url"`
	Organizer       string  `json:"organizer"`
	Title           string  `json:"title"`
	OrganizerDomain *Domain `json:"organizer_domain,omitempty"`
}

// GenerateID creates a deterministic ID for an event from its source URL
func GenerateID(sourceURL string) string {
	h := sha1.New()
	h.Write([]byte(sourceURL))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// NewRecord creates a Record for the given stub with its ID populated
func NewRecord(stub Stub, organizer, title string, domain *Domain) *Record {
	return &Record{
		ID:              GenerateID(stub.SourceURL),
		SourceURL:       stub.SourceURL,
		Organizer:       organizer,
		Title:           title,
		OrganizerDomain: domain,
	}
}

// DomainURL returns the resolved domain URL, or "" when absent
func (r *Record) DomainURL() string {
	if r.OrganizerDomain == nil {
		return ""
	}
	return r.OrganizerDomain.URL
}

// DomainSource returns the tier that resolved the domain, or "" when absent
func (r *Record) DomainSource() DomainSource {
	if r.OrganizerDomain == nil {
		return ""
	}
	return r.OrganizerDomain.Source
}

// DomainHost returns the registrable host of the resolved domain, or ""
func (r *Record) DomainHost() string {
	if r.OrganizerDomain == nil {
		return ""
	}
	return r.OrganizerDomain.Host
}
