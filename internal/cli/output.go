package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/event-enricher/internal/event"
	"github.com/pfrederiksen/event-enricher/internal/export"
	"github.com/pfrederiksen/event-enricher/internal/scraper"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt  time.Time        `json:"checked_at"`
	IndexURL   string           `json:"index_url"`
	Events     []*event.Record  `json:"events"`
	EventCount int              `json:"event_count"`
	Resolved   int              `json:"resolved_count"`
	Failures   []*event.Failure `json:"failures,omitempty"`
}

// WriteOutput writes the result set in the specified format
func WriteOutput(w io.Writer, rs *event.ResultSet, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, &OutputResult{
			CheckedAt:  time.Now().UTC(),
			IndexURL:   rs.IndexURL,
			Events:     rs.Records,
			EventCount: rs.Len(),
			Resolved:   rs.Resolved(),
			Failures:   rs.Failures,
		})
	case FormatCSV:
		return export.NewWriterExporter(w).Export(rs)
	case FormatText:
		return writeText(w, rs, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, rs *event.ResultSet, verbose bool) error {
	if rs.Len() == 0 && len(rs.Failures) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for i, r := range rs.Records {
		fmt.Fprintf(w, "%d. %s\n", i+1, valueOr(r.Title, "(untitled)"))
		fmt.Fprintf(w, "   Organizer: %s\n", valueOr(r.Organizer, "-"))
		if r.OrganizerDomain != nil {
			fmt.Fprintf(w, "   Domain:    %s (%s)\n", r.DomainURL(), r.DomainSource())
		} else {
			fmt.Fprintln(w, "   Domain:    -")
		}
		if verbose {
			fmt.Fprintf(w, "   URL:       %s\n", r.SourceURL)
			fmt.Fprintf(w, "   ID:        %s\n", r.ID)
			if host := r.DomainHost(); host != "" {
				fmt.Fprintf(w, "   Host:      %s\n", host)
			}
		}
	}

	for _, f := range rs.Failures {
		fmt.Fprintf(w, "FAILED: %s: %v\n", f.SourceURL, f.Err)
	}

	fmt.Fprintf(w, "\nTotal: %d events, %d with organizer domain", rs.Len(), rs.Resolved())
	if len(rs.Failures) > 0 {
		fmt.Fprintf(w, ", %d failed", len(rs.Failures))
	}
	fmt.Fprintln(w)
	return nil
}

// batchEntry is the JSON form of one fetch outcome
type batchEntry struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Bytes  int    `json:"bytes,omitempty"`
	Error  string `json:"error,omitempty"`
}

// WriteBatch writes fetch outcomes in input order
func WriteBatch(w io.Writer, results []scraper.BatchResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		entries := make([]batchEntry, 0, len(results))
		for _, r := range results {
			e := batchEntry{Index: r.Index, URL: r.URL}
			if r.OK() {
				e.Status = r.Page.StatusCode
				e.Bytes = len(r.Page.Body)
			} else {
				e.Error = r.Err.Error()
			}
			entries = append(entries, e)
		}
		return writeJSON(w, entries)
	case FormatText:
		for _, r := range results {
			if r.OK() {
				fmt.Fprintf(w, "OK    %d  %7d bytes  %s\n", r.Page.StatusCode, len(r.Page.Body), r.URL)
			} else {
				fmt.Fprintf(w, "FAIL  %s: %v\n", r.URL, r.Err)
			}
		}
		fmt.Fprintf(w, "\nTotal: %d fetched, %d failed\n", len(results), scraper.CountFailed(results))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
