package domain

import (
	"net/url"
	"strings"
)

// NormalizeURL trims the raw URL and lowercases its scheme and host.
// Values that do not parse as absolute URLs are returned trimmed but otherwise untouched;
// they are still storable, only their domain is empty.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw, nil
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

// DeriveDomain returns the hostname of rawURL without a leading "www.".
// Malformed URLs yield an empty domain.
// Example: "https://www.Example.com/a" -> "example.com"
func DeriveDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
