package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/event-enricher/internal/logger"
	"github.com/pfrederiksen/event-enricher/internal/metrics"
)

const (
	UserAgent      = "event-enricher/1.0 (github.com/pfrederiksen/event-enricher)"
	DefaultBackoff = 500 * time.Millisecond
	MaxBackoff     = 10 * time.Second
)

// HTTPError is returned when a page responds with a non-2xx status
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d (%s)", e.StatusCode, e.URL)
}

// IsStatus reports whether err is an *HTTPError with the given status code
func IsStatus(err error, code int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == code
}

// Page is a fetched response body
type Page struct {
	URL        string   // URL as requested
	FinalURL   *url.URL // URL after redirects
	StatusCode int
	Body       []byte
}

// Options configures a Fetcher. The zero value performs a single attempt with
// no client deadline and no rate limit.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	Backoff       time.Duration
	MaxBackoff    time.Duration

	Client  *http.Client // overrides Timeout when set
	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// Fetcher handles fetching pages from the directory site
type Fetcher struct {
	client     *http.Client
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// New creates a new Fetcher instance
func New(opts Options) *Fetcher {
	f := &Fetcher{
		client:     opts.Client,
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		maxBackoff: opts.MaxBackoff,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}

	if f.client == nil {
		f.client = &http.Client{
			Timeout: opts.Timeout,
		}
	}
	if f.userAgent == "" {
		f.userAgent = UserAgent
	}
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	if f.maxRetries < 0 {
		f.maxRetries = 0
	}
	if f.backoff <= 0 {
		f.backoff = DefaultBackoff
	}
	if f.maxBackoff <= 0 {
		f.maxBackoff = MaxBackoff
	}
	if f.log == nil {
		f.log = logger.Default()
	}

	return f
}

// Client returns the shared HTTP client so other API clients can reuse its
// connection pool
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Fetch retrieves rawURL and returns its body decoded to UTF-8
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	var page *Page

	operation := func() error {
		p, err := f.fetchOnce(ctx, rawURL)
		if err != nil {
			if !isRetryable(ctx, err) {
				return backoff.Permanent(err)
			}
			return err
		}
		page = p
		return nil
	}

	notify := func(err error, wait time.Duration) {
		f.log.Warn("Retrying fetch", logger.Fields{
			"url":   rawURL,
			"wait":  wait.String(),
			"error": err.Error(),
		})
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), uint64(f.maxRetries)), ctx), notify)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (f *Fetcher) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.backoff
	b.MaxInterval = f.maxBackoff
	b.MaxElapsedTime = 0 // bounded by MaxRetries instead
	return b
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*Page, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.ObserveFetch(0, time.Since(start))
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	f.metrics.ObserveFetch(resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	f.log.Debug("Fetched page", logger.Fields{
		"url":    rawURL,
		"status": resp.StatusCode,
		"bytes":  len(body),
	})

	return &Page{
		URL:        rawURL,
		FinalURL:   resp.Request.URL,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// readBody decodes the response body using the charset from Content-Type or
// the document's meta tags
func readBody(resp *http.Response) ([]byte, error) {
	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// isRetryable reports whether a failed attempt may succeed if repeated
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	return true
}

// FetchDocument fetches rawURL and parses it as HTML. The returned document's
// Url is the final URL, so relative links resolve correctly.
func (f *Fetcher) FetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	page, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	doc, err := ParseDocument(bytes.NewReader(page.Body), page.FinalURL.String())
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rawURL, err)
	}
	return doc, nil
}

// ParseDocument parses HTML from r, recording pageURL as the document's base URL
func ParseDocument(r io.Reader, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("parsing page URL: %w", err)
		}
		doc.Url = u
	}
	return doc, nil
}
