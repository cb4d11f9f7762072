// Package scraper provides HTTP fetching and HTML extraction for the event
// directory site.
//
// A Fetcher retrieves pages over a shared connection pool and fails with an
// *HTTPError on any non-2xx status, so callers can tell a 404 apart from other
// failures. Retries, rate limiting and a client timeout are available but off
// by default. FetchAll fetches a batch of URLs concurrently and reports one
// outcome per URL.
//
// The markup accessors in markup.go are the only place the directory site's
// HTML structure is encoded. They report a missing element or attribute as
// (value, false), never as an error.
package scraper
