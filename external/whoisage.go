package external

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	whois "github.com/likexian/whois"
	parser "github.com/likexian/whois-parser"

	"linktrust/trust"
)

//
// WHOIS DOMAIN AGE
//

// Freshly registered domains dominate phishing campaigns; age is a weak but
// cheap signal. Domains younger than this report unsafe at low confidence.
const youngDomainDays = 30

type WhoisAge struct{}

func NewWhoisAge() *WhoisAge { return &WhoisAge{} }

func (p *WhoisAge) Name() string { return "whois_age" }

func (p *WhoisAge) Check(ctx context.Context, rawURL string) trust.ExternalCheckResult {
	domain := trust.DomainOf(rawURL)
	if domain == "" || net.ParseIP(domain) != nil {
		return neutral(p.Name(), "no queryable domain")
	}

	ageDays, err := domainAgeDays(domain)
	if err != nil {
		return neutral(p.Name(), err.Error())
	}

	if ageDays < youngDomainDays {
		return trust.ExternalCheckResult{
			Source:     p.Name(),
			Safe:       false,
			Confidence: 0.55,
			Detail:     fmt.Sprintf("domain registered %d days ago", ageDays),
		}
	}

	return trust.ExternalCheckResult{
		Source:     p.Name(),
		Safe:       true,
		Confidence: 0.6,
		Detail:     fmt.Sprintf("domain is %d days old", ageDays),
	}
}

// domainAgeDays resolves the registration age of a domain, falling back to
// the parent domain when the registry has no record for a subdomain.
func domainAgeDays(domain string) (int, error) {
	raw, err := whois.Whois(domain)
	if err != nil {
		return 0, err
	}

	p, err := parser.Parse(raw)
	if err != nil || p.Domain == nil {
		parts := strings.Split(domain, ".")
		if len(parts) > 2 {
			return domainAgeDays(strings.Join(parts[1:], "."))
		}
		return 0, fmt.Errorf("no whois record for %s", domain)
	}

	created := parseWhoisDate(strings.TrimSpace(p.Domain.CreatedDate))
	if created.IsZero() {
		return 0, fmt.Errorf("no creation date for %s", domain)
	}

	return int(time.Since(created).Hours() / 24), nil
}

// Registries disagree on date formats; try the usual suspects in order.
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
}

func parseWhoisDate(s string) time.Time {
	for _, l := range whoisDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
