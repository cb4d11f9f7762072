// Package organizer resolves an event organizer's web domain.
//
// Resolution tries two tiers in order and stops at the first hit. Tier 1
// follows the organizer's profile link on the event page and scrapes the
// outbound homepage link from that profile. Tier 2 asks an external lookup
// service for the domain that best matches the organizer's name. Absent
// markup and a not-found lookup are ordinary misses; HTTP and network errors
// propagate.
package organizer
