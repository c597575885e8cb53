package trust

import (
	"net/url"
	"strings"
)

// NormalizeURL canonicalizes a URL for use as a cache/dedup key: the fragment
// is dropped and a trailing slash is stripped unless it is the root path.
// Normalization is idempotent; an unparseable URL is returned trimmed as-is.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Fragment = ""
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	u.Host = strings.ToLower(u.Host)

	return u.String()
}

// DomainOf extracts the lowercase hostname from a URL, or "" if unparseable.
func DomainOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// BaseDomain reduces a hostname to its registrable second-level form
// (e.g. "docs.github.com" -> "github.com"). Naive two-label reduction is
// enough for allow-list matching against the fixed domain set.
func BaseDomain(host string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSuffix(host, ".")), ".")
	if len(parts) < 2 {
		return host
	}
	return parts[len(parts)-2] + "." + parts[len(parts)-1]
}

// SecondLevelLabel returns the label left of the public suffix
// ("login.paypa1.com" -> "paypa1"), the unit the typosquatting detector
// compares against brand names.
func SecondLevelLabel(host string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSuffix(host, ".")), ".")
	if len(parts) < 2 {
		return strings.ToLower(host)
	}
	return parts[len(parts)-2]
}
