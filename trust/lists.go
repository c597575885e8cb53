package trust

import "strings"

// trustedDomains is the fixed allow-list. A hit short-circuits external
// checks and AI analysis entirely and sets the isKnownSafe flag.
var trustedDomains = map[string]bool{
	"google.com":        true,
	"youtube.com":       true,
	"github.com":        true,
	"microsoft.com":     true,
	"apple.com":         true,
	"amazon.com":        true,
	"wikipedia.org":     true,
	"mozilla.org":       true,
	"cloudflare.com":    true,
	"stackoverflow.com": true,
	"linkedin.com":      true,
	"twitter.com":       true,
	"x.com":             true,
	"facebook.com":      true,
	"reddit.com":        true,
	"medium.com":        true,
	"gitlab.com":        true,
	"golang.org":        true,
	"go.dev":            true,
}

// IsTrustedDomain reports whether host matches the allow-list exactly or by
// base domain.
func IsTrustedDomain(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if trustedDomains[host] {
		return true
	}
	return trustedDomains[BaseDomain(host)]
}
