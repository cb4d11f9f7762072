// Package pipeline turns an event index page into enriched event records.
//
// An Indexer discovers event links on the index page, truncates them to the
// requested sample size and hands each one to an Extractor, which fetches the
// event page, reads the organizer and title and resolves the organizer's
// domain. Events are processed one at a time in discovery order.
package pipeline
