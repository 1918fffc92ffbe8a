// internal/citations/domain.go
package citations

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// redirectHosts are web-search internal proxy/redirect hosts that point at
// the search infrastructure rather than the cited source. Citations on these
// hosts are dropped during extraction.
var redirectHosts = map[string]bool{
	"vertexaisearch.cloud.google.com": true,
	"gateway.bing.com":                true,
	"lens.google.com":                 true,
}

// ExtractDomain returns the registrable domain of a URL, lowercased and with
// any "www." prefix removed. Unparseable input is returned unchanged so
// callers never have to handle an error here.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return rawURL
	}

	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")

	// Collapse subdomains to the registrable domain so blog.example.com and
	// example.com aggregate into one source bucket.
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld1
	}
	return host
}

// IsRedirectURL reports whether a URL points at a known web-search redirect
// host instead of the actual cited page.
func IsRedirectURL(rawURL string) bool {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	if redirectHosts[host] {
		return true
	}

	// Google search result redirects live under google.<tld>/url.
	if strings.HasPrefix(strings.ToLower(parsed.Path), "/url") &&
		(host == "google.com" || strings.HasPrefix(host, "www.google.")) {
		return true
	}

	return false
}
