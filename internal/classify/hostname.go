package classify

import (
	"net/url"
	"strings"
)

// Hostname derives the cache key for a URL: the host with a leading "www."
// stripped. Malformed URLs fall back to the raw string so every visit still
// gets a stable key.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
