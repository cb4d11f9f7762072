// Package cli implements the command-line interface for event-enricher.
//
// The root command discovers events on an index page, enriches a sample of
// them with organizer and domain details and prints the results as text, JSON
// or CSV, optionally exporting a timestamped CSV file. The fetch subcommand
// retrieves a set of pages concurrently and reports per-URL outcomes.
package cli
