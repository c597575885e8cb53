package external

import (
	"context"

	"linktrust/trust"
)

// Provider is one threat-intelligence source. Check must not fail: missing
// credentials, transport errors and malformed answers all degrade to a
// neutral result.
type Provider interface {
	Name() string
	Check(ctx context.Context, rawURL string) trust.ExternalCheckResult
}

// neutral is the fail-open answer: no opinion, zero confidence.
func neutral(source, reason string) trust.ExternalCheckResult {
	return trust.ExternalCheckResult{
		Source:     source,
		Safe:       true,
		Confidence: 0,
		Err:        reason,
	}
}
