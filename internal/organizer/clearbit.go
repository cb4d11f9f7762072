package organizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dghubble/sling"
)

const (
	// DefaultLookupURL is the Clearbit company API base
	DefaultLookupURL = "https://company.clearbit.com/"
	findDomainPath   = "v1/domains/find"
)

// LookupError is returned when the lookup API responds with a status other
// than success or not-found
type LookupError struct {
	Name       string
	StatusCode int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("domain lookup for %q returned status %d", e.Name, e.StatusCode)
}

// ClearbitOptions configures a ClearbitClient
type ClearbitOptions struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client // shares a connection pool when set
}

// ClearbitClient queries Clearbit's name-to-domain endpoint. Matches are
// Clearbit's best guess for the name and are not verified.
type ClearbitClient struct {
	base *sling.Sling
}

type domainQuery struct {
	Name string `url:"name"`
}

type domainResponse struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Logo   string `json:"logo"`
}

// NewClearbitClient creates a client authenticating with apiKey
func NewClearbitClient(apiKey string, opts ClearbitOptions) *ClearbitClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultLookupURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	httpClient := opts.Client
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	base := sling.New().
		Client(httpClient).
		Base(baseURL).
		SetBasicAuth(apiKey, "")
	if opts.UserAgent != "" {
		base = base.Set("User-Agent", opts.UserAgent)
	}

	return &ClearbitClient{base: base}
}

// FindDomain looks up the domain for a company name. A 404 means Clearbit has
// no match and returns found=false without an error.
func (c *ClearbitClient) FindDomain(ctx context.Context, name string) (string, bool, error) {
	s := c.base.New().Get(findDomainPath).QueryStruct(domainQuery{Name: name})

	req, err := s.Request()
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}

	var result domainResponse
	resp, err := s.Do(req.WithContext(ctx), &result, nil)
	if err != nil {
		if resp == nil {
			return "", false, fmt.Errorf("making request: %w", err)
		}
		return "", false, fmt.Errorf("parsing response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", false, &LookupError{Name: name, StatusCode: resp.StatusCode}
	}

	domain := strings.TrimSpace(result.Domain)
	if domain == "" {
		return "", false, nil
	}
	return domain, true, nil
}
