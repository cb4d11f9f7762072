// Package event provides the records produced by the enrichment pipeline.
//
// A Stub is what index discovery yields: just the URL of an event page on the
// directory site. A Record is the enriched form, carrying the organizer name,
// the event title and, when one could be resolved, the organizer's domain.
// Records are collected in discovery order into a ResultSet.
package event
