package external

import (
	"context"
	"log"
	"net"
	"strings"
	"time"

	"linktrust/trust"
)

//
// DOMAIN RBL FEEDS
//

// domainRBLs are DNS-based URI blocklists queried as <domain>.<rbl>.
// A 127.0.0.x answer means listed; NXDOMAIN means clean.
var domainRBLs = []string{
	"multi.surbl.org",
	"dbl.spamhaus.org",
	"uribl.spameatingmonkey.net",
}

type DomainRBL struct {
	Lists    []string
	Resolver *net.Resolver
}

func NewDomainRBL() *DomainRBL {
	return &DomainRBL{
		Lists: domainRBLs,
		Resolver: &net.Resolver{
			PreferGo: true,
			Dial: func(ctx context.Context, network, address string) (net.Conn, error) {
				d := net.Dialer{Timeout: 2 * time.Second}
				// Public DNS avoids cloud resolvers that rewrite NXDOMAIN.
				return d.DialContext(ctx, "udp", "8.8.8.8:53")
			},
		},
	}
}

func (p *DomainRBL) Name() string { return "domain_rbl" }

func (p *DomainRBL) Check(ctx context.Context, rawURL string) trust.ExternalCheckResult {
	domain := trust.DomainOf(rawURL)
	if domain == "" || net.ParseIP(domain) != nil {
		return neutral(p.Name(), "no queryable domain")
	}
	domain = trust.BaseDomain(domain)

	listed := []string{}
	for _, rbl := range p.Lists {
		query := domain + "." + rbl

		lookupCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		addrs, err := p.Resolver.LookupHost(lookupCtx, query)
		cancel()
		if err != nil || len(addrs) == 0 {
			// Not listed; the normal case.
			continue
		}

		// Only 127.0.0.x counts as a real listing, anything else is a
		// wildcarding resolver.
		for _, addr := range addrs {
			if strings.HasPrefix(addr, "127.0.0.") {
				log.Printf("[RBL] ⚠️ %s LISTED on %s (response: %v)", domain, rbl, addrs)
				listed = append(listed, rbl)
				break
			}
		}
	}

	if len(listed) > 0 {
		conf := 0.6 + 0.15*float64(len(listed))
		if conf > 0.95 {
			conf = 0.95
		}
		return trust.ExternalCheckResult{
			Source:     p.Name(),
			Safe:       false,
			Confidence: conf,
			Detail:     "listed on " + strings.Join(listed, ", "),
		}
	}

	return trust.ExternalCheckResult{
		Source:     p.Name(),
		Safe:       true,
		Confidence: 0.7,
		Detail:     "not listed",
	}
}
