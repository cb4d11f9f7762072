package organizer

import (
	"net"
	"net/url"
	"strings"

	"github.com/jpillora/go-tld"
)

// RegistrableHost returns the eTLD+1 of a URL or bare domain, e.g.
// "https://www.acme.co.uk/about" -> "acme.co.uk". It returns "" for IP
// addresses, single-label hosts and anything unparseable.
func RegistrableHost(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}

	pre, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch pre.Scheme {
	case "http", "https":
	case "":
		raw = "https://" + strings.TrimPrefix(raw, "//")
		if pre, err = url.Parse(raw); err != nil {
			return ""
		}
	default:
		return ""
	}
	host := pre.Hostname()
	if host == "" || net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return ""
	}

	u, err := tld.Parse(raw)
	if err != nil || u.Domain == "" || u.TLD == "" {
		return ""
	}
	return u.Domain + "." + u.TLD
}
