// Package export writes completed result sets to durable artifacts.
//
// The CSV exporter writes one sample_events_<unix>.csv file per run into an
// output directory, with one row per record in discovery order.
package export
