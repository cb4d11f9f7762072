package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Directory site markup contract. Any change to the site's HTML that breaks one
// of these selectors shows up as missing data, not as an error.
const (
	// EventListingSelector matches the anchors on the index page that link to
	// event detail pages.
	EventListingSelector = `a[data-ga-category="Event Listing"]`

	// OrganizerSelector is the element on an event page holding the organizer
	// name; its href points at the organizer's profile page.
	OrganizerSelector = "#org-name"

	// TitleSelector is the event title on an event page.
	TitleSelector = "h1"

	// OrganizerHomepageSelector locates the outbound homepage link on an
	// organizer profile page by fixed position in the header. It is brittle.
	OrganizerHomepageSelector = "body > header > section > div > div > div > div > div:nth-child(1) > a"
)

// FindAll returns every element matching selector, in document order
func FindAll(doc *goquery.Document, selector string) []*goquery.Selection {
	var found []*goquery.Selection
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		found = append(found, sel)
	})
	return found
}

// FindOne returns the first element matching selector
func FindOne(doc *goquery.Document, selector string) (*goquery.Selection, bool) {
	sel := doc.Find(selector).First()
	return sel, sel.Length() > 0
}

// Select evaluates a structural CSS path and returns the first match, stopping
// the search there
func Select(doc *goquery.Document, path string) (*goquery.Selection, bool) {
	sel := doc.FindMatcher(goquery.Single(path))
	return sel, sel.Length() > 0
}

// Attr returns the trimmed value of an attribute. Missing and blank
// attributes both report false.
func Attr(sel *goquery.Selection, name string) (string, bool) {
	v, ok := sel.Attr(name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// ResolveURL resolves href against the document's URL. It returns href
// unchanged when either cannot be parsed.
func ResolveURL(doc *goquery.Document, href string) string {
	if doc.Url == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return doc.Url.ResolveReference(ref).String()
}

// EventLinks extracts the event page URLs from an index page in document
// order. Listing anchors without an href are skipped; duplicates are kept.
func EventLinks(doc *goquery.Document) []string {
	links := make([]string, 0)
	for _, sel := range FindAll(doc, EventListingSelector) {
		href, ok := Attr(sel, "href")
		if !ok {
			continue
		}
		links = append(links, ResolveURL(doc, href))
	}
	return links
}

// OrganizerName returns the organizer display name from an event page. Only
// the first non-blank child of the organizer element is used, so badges or
// other markup nested after the name are ignored.
func OrganizerName(doc *goquery.Document) (string, bool) {
	sel, ok := FindOne(doc, OrganizerSelector)
	if !ok {
		return "", false
	}

	var name string
	sel.Contents().EachWithBreak(func(_ int, child *goquery.Selection) bool {
		name = collapseSpace(child.Text())
		return name == ""
	})
	return name, name != ""
}

// OrganizerProfileURL returns the absolute URL of the organizer's profile page
// on the directory site
func OrganizerProfileURL(doc *goquery.Document) (string, bool) {
	sel, ok := FindOne(doc, OrganizerSelector)
	if !ok {
		return "", false
	}
	href, ok := Attr(sel, "href")
	if !ok {
		return "", false
	}
	return ResolveURL(doc, href), true
}

// EventTitle returns the text of the first top-level heading
func EventTitle(doc *goquery.Document) (string, bool) {
	sel, ok := FindOne(doc, TitleSelector)
	if !ok {
		return "", false
	}
	title := collapseSpace(sel.Text())
	return title, title != ""
}

// OrganizerHomepage returns the organizer's outbound homepage link from their
// profile page using OrganizerHomepageSelector. Update the selector here when
// the site's header layout changes.
func OrganizerHomepage(doc *goquery.Document) (string, bool) {
	sel, ok := Select(doc, OrganizerHomepageSelector)
	if !ok {
		return "", false
	}
	href, ok := Attr(sel, "href")
	if !ok {
		return "", false
	}
	return outboundURL(doc, href)
}

// outboundURL resolves href as a link off the directory site. A bare host such
// as "www.acme.com" gets an https scheme instead of resolving as a relative
// path. Links back to the page's own host are not outbound.
func outboundURL(doc *goquery.Document, href string) (string, bool) {
	if u, err := url.Parse(href); err == nil && u.Scheme == "" && u.Host == "" && looksLikeHost(u.Path) {
		href = "https://" + href
	}

	resolved := ResolveURL(doc, href)
	u, err := url.Parse(resolved)
	if err != nil || u.Hostname() == "" {
		return "", false
	}
	if doc.Url != nil && strings.EqualFold(u.Hostname(), doc.Url.Hostname()) {
		return "", false
	}
	return resolved, true
}

// looksLikeHost reports whether the first segment of a relative path reads as
// a hostname rather than a file or directory
func looksLikeHost(path string) bool {
	if path == "" || strings.HasPrefix(path, "/") || strings.HasPrefix(path, ".") {
		return false
	}
	first := strings.SplitN(path, "/", 2)[0]
	dot := strings.LastIndex(first, ".")
	if dot <= 0 {
		return false
	}
	tld := strings.ToLower(first[dot+1:])
	if len(tld) < 2 || pageExtensions[tld] {
		return false
	}
	for _, r := range tld {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

var pageExtensions = map[string]bool{
	"htm": true, "html": true, "php": true, "asp": true, "aspx": true, "jsp": true,
}

// collapseSpace trims s and folds internal runs of whitespace to one space
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
