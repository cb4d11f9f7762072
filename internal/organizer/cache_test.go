package organizer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCachedLookup(t *testing.T) {
	t.Run("hits are served from cache", func(t *testing.T) {
		inner := &fakeLookup{domain: "acme.com", found: true}
		cache := NewCachedLookup(inner, 0)

		for _, name := range []string{"Acme Events", "acme  events", " ACME EVENTS "} {
			domain, found, err := cache.FindDomain(context.Background(), name)
			if err != nil || !found || domain != "acme.com" {
				t.Fatalf("FindDomain(%q) = %q, %v, %v", name, domain, found, err)
			}
		}
		if len(inner.calls) != 1 {
			t.Errorf("inner calls = %d, want 1", len(inner.calls))
		}
		if len(cache.entries) != 1 {
			t.Errorf("cached entries = %d, want 1", len(cache.entries))
		}
	})

	t.Run("misses are cached", func(t *testing.T) {
		inner := &fakeLookup{found: false}
		cache := NewCachedLookup(inner, 0)

		cache.FindDomain(context.Background(), "Nobody")
		_, found, err := cache.FindDomain(context.Background(), "Nobody")
		if err != nil || found {
			t.Fatalf("FindDomain() found = %v, err = %v, want cached miss", found, err)
		}
		if len(inner.calls) != 1 {
			t.Errorf("inner calls = %d, want 1", len(inner.calls))
		}
	})

	t.Run("errors are not cached", func(t *testing.T) {
		inner := &fakeLookup{err: errors.New("boom")}
		cache := NewCachedLookup(inner, 0)

		for i := 0; i < 2; i++ {
			if _, _, err := cache.FindDomain(context.Background(), "Acme"); err == nil {
				t.Fatal("FindDomain() expected error")
			}
		}
		if len(inner.calls) != 2 {
			t.Errorf("inner calls = %d, want 2", len(inner.calls))
		}
		if len(cache.entries) != 0 {
			t.Errorf("cached entries = %d, want 0", len(cache.entries))
		}
	})

	t.Run("expired entries are refetched", func(t *testing.T) {
		inner := &fakeLookup{domain: "acme.com", found: true}
		cache := NewCachedLookup(inner, time.Hour)
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		cache.now = func() time.Time { return now }

		cache.FindDomain(context.Background(), "Acme")
		now = now.Add(30 * time.Minute)
		cache.FindDomain(context.Background(), "Acme")
		if len(inner.calls) != 1 {
			t.Fatalf("inner calls = %d within TTL, want 1", len(inner.calls))
		}

		now = now.Add(2 * time.Hour)
		cache.FindDomain(context.Background(), "Acme")
		if len(inner.calls) != 2 {
			t.Errorf("inner calls = %d after expiry, want 2", len(inner.calls))
		}
	})
}
