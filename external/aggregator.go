package external

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"linktrust/trust"
)

// Aggregator fans one URL out to every configured provider and reduces the
// answers to a single safety judgment. Providers fail independently; a slow
// or broken source never blocks the rest.
type Aggregator struct {
	Providers []Provider
}

// NewAggregator wires the default provider set.
func NewAggregator() *Aggregator {
	return &Aggregator{
		Providers: []Provider{
			NewSafeBrowsing(),
			NewVirusTotal(),
			NewURLhaus(),
			NewDomainRBL(),
			NewWhoisAge(),
		},
	}
}

// confidentThreshold separates an actual provider opinion from a shrug.
const confidentThreshold = 0.5

// CheckURL queries all providers concurrently and aggregates. A trusted
// allow-list domain short-circuits to a synthetic full-confidence result
// without touching the network.
func (a *Aggregator) CheckURL(ctx context.Context, rawURL string) trust.AggregatedExternalResult {
	if domain := trust.DomainOf(rawURL); domain != "" && trust.IsTrustedDomain(domain) {
		return trust.AggregatedExternalResult{
			Safe:       true,
			Confidence: 1.0,
			Results: []trust.ExternalCheckResult{{
				Source:     "trusted_allowlist",
				Safe:       true,
				Confidence: 1.0,
				Detail:     "domain on trusted allow-list",
			}},
		}
	}

	results := make([]trust.ExternalCheckResult, len(a.Providers))

	g := new(errgroup.Group)
	for i, p := range a.Providers {
		i, p := i, p
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[External] provider %s panicked: %v", p.Name(), r)
					results[i] = neutral(p.Name(), "provider panic")
				}
			}()
			results[i] = p.Check(ctx, rawURL)
			return nil
		})
	}
	_ = g.Wait()

	return reduce(results)
}

// reduce blends the provider answers: a threat is any confident unsafe
// answer; overall confidence mixes the fraction of confident-safe providers
// with a flat bonus when nothing was flagged, capped at 0.95.
func reduce(results []trust.ExternalCheckResult) trust.AggregatedExternalResult {
	agg := trust.AggregatedExternalResult{Results: results}

	confidentSafe := 0
	threatConfidence := 0.0
	for _, r := range results {
		if r.Confidence <= confidentThreshold {
			continue
		}
		if r.Safe {
			confidentSafe++
		} else {
			agg.ThreatCount++
			if r.Confidence > threatConfidence {
				threatConfidence = r.Confidence
			}
		}
	}

	agg.Safe = agg.ThreatCount == 0

	if agg.Safe {
		frac := 0.0
		if len(results) > 0 {
			frac = float64(confidentSafe) / float64(len(results))
		}
		agg.Confidence = 0.6*frac + 0.35
		if agg.Confidence > 0.95 {
			agg.Confidence = 0.95
		}
	} else {
		agg.Confidence = threatConfidence
	}

	return agg
}
