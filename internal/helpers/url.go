package helpers

import (
	"net/url"
	"strings"
)

// NormalizeURL reduces a URL to a comparison form: scheme, host and path,
// lower-cased, without query string, fragment, default port or trailing slash.
// It never fails. When raw cannot be parsed it falls back to the text before
// the first '?' or '#', and to raw itself when nothing usable remains.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return cutURL(raw, trimmed)
	}

	parsed.RawQuery = ""
	parsed.ForceQuery = false
	parsed.Fragment = ""
	parsed.RawFragment = ""
	parsed.Scheme = strings.ToLower(parsed.Scheme)

	host := strings.ToLower(parsed.Host)
	if h, port, ok := strings.Cut(host, ":"); ok && !strings.Contains(port, ":") {
		if (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443") {
			host = h
		}
	}
	parsed.Host = host

	if len(parsed.Path) > 1 {
		parsed.Path = strings.TrimRight(parsed.Path, "/")
		parsed.RawPath = ""
		if parsed.Path == "" {
			parsed.Path = "/"
		}
	}

	out := strings.ToLower(parsed.String())
	if out == "" {
		return cutURL(raw, trimmed)
	}
	return out
}

func cutURL(raw, trimmed string) string {
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.ToLower(strings.TrimSpace(trimmed))
	if trimmed == "" {
		return raw
	}
	return trimmed
}

// URLDomain returns the lower-cased host of raw without default ports, or "".
func URLDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	return host
}
