package scraper

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/pfrederiksen/event-enricher/internal/logger"
)

// BatchResult is the outcome of fetching one URL in a batch. Exactly one of
// Page and Err is set.
type BatchResult struct {
	Index int
	URL   string
	Page  *Page
	Err   error
}

// OK reports whether the fetch succeeded
func (r BatchResult) OK() bool {
	return r.Err == nil
}

// FetchAll fetches urls concurrently with at most concurrency requests in
// flight (all at once when concurrency <= 0). It returns after every fetch has
// finished. results[i] always corresponds to urls[i]; one failing URL does not
// affect the others.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, concurrency int) []BatchResult {
	results := make([]BatchResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	if concurrency <= 0 || concurrency > len(urls) {
		concurrency = len(urls)
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	var wg sync.WaitGroup
	for i, u := range urls {
		results[i] = BatchResult{Index: i, URL: u}

		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				results[i].Err = err
				return
			}
			defer sem.Release(1)

			page, err := f.Fetch(ctx, u)
			if err != nil {
				results[i].Err = err
				return
			}
			results[i].Page = page
		}(i, u)
	}
	wg.Wait()

	failed := CountFailed(results)
	f.log.Info("Batch fetch complete", logger.Fields{
		"urls":        len(urls),
		"failed":      failed,
		"concurrency": concurrency,
	})

	return results
}

// CountFailed returns the number of unsuccessful results
func CountFailed(results []BatchResult) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
