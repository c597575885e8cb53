package external

import (
	"context"
	"errors"
	"testing"
	"time"

	"linktrust/trust"
)

type fakeProvider struct {
	name   string
	result trust.ExternalCheckResult
	delay  time.Duration
	panics bool
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Check(ctx context.Context, rawURL string) trust.ExternalCheckResult {
	if f.panics {
		panic(errors.New("provider blew up"))
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.result.Source = f.name
	return f.result
}

func safeResult(conf float64) trust.ExternalCheckResult {
	return trust.ExternalCheckResult{Safe: true, Confidence: conf}
}

func threatResult(conf float64) trust.ExternalCheckResult {
	return trust.ExternalCheckResult{Safe: false, Confidence: conf}
}

func TestCheckURLAllSafe(t *testing.T) {
	a := &Aggregator{Providers: []Provider{
		&fakeProvider{name: "p1", result: safeResult(0.9)},
		&fakeProvider{name: "p2", result: safeResult(0.8)},
		&fakeProvider{name: "p3", result: safeResult(0.7)},
	}}

	res := a.CheckURL(context.Background(), "https://example.com")
	if !res.Safe {
		t.Error("expected safe")
	}
	if res.ThreatCount != 0 {
		t.Errorf("threat count = %d", res.ThreatCount)
	}
	if res.Confidence <= 0.5 || res.Confidence > 0.95 {
		t.Errorf("confidence = %v", res.Confidence)
	}
	if len(res.Results) != 3 {
		t.Errorf("results = %d", len(res.Results))
	}
}

func TestCheckURLThreatDetected(t *testing.T) {
	a := &Aggregator{Providers: []Provider{
		&fakeProvider{name: "clean", result: safeResult(0.9)},
		&fakeProvider{name: "flagger", result: threatResult(0.85)},
	}}

	res := a.CheckURL(context.Background(), "https://evil.example")
	if res.Safe {
		t.Error("expected unsafe")
	}
	if res.ThreatCount != 1 {
		t.Errorf("threat count = %d, want 1", res.ThreatCount)
	}
	if res.Confidence != 0.85 {
		t.Errorf("confidence = %v, want threat confidence 0.85", res.Confidence)
	}
}

func TestCheckURLLowConfidenceThreatIgnored(t *testing.T) {
	// A threat below the confidence floor is a shrug, not a threat.
	a := &Aggregator{Providers: []Provider{
		&fakeProvider{name: "clean", result: safeResult(0.9)},
		&fakeProvider{name: "unsure", result: threatResult(0.3)},
	}}

	res := a.CheckURL(context.Background(), "https://example.com")
	if !res.Safe {
		t.Error("low-confidence threat must not flip the aggregate")
	}
	if res.ThreatCount != 0 {
		t.Errorf("threat count = %d, want 0", res.ThreatCount)
	}
}

func TestCheckURLProviderPanicDegradesToNeutral(t *testing.T) {
	a := &Aggregator{Providers: []Provider{
		&fakeProvider{name: "ok", result: safeResult(0.9)},
		&fakeProvider{name: "broken", panics: true},
	}}

	res := a.CheckURL(context.Background(), "https://example.com")
	if !res.Safe {
		t.Error("panicking provider must degrade to neutral, not a threat")
	}
	found := false
	for _, r := range res.Results {
		if r.Source == "broken" {
			found = true
			if !r.Safe || r.Confidence != 0 {
				t.Errorf("broken provider result = %+v, want neutral", r)
			}
		}
	}
	if !found {
		t.Error("no result recorded for panicking provider")
	}
}

func TestCheckURLTrustedShortCircuit(t *testing.T) {
	// Providers would all report threats; the allow-list must win without
	// consulting them.
	a := &Aggregator{Providers: []Provider{
		&fakeProvider{name: "p1", result: threatResult(0.95)},
	}}

	res := a.CheckURL(context.Background(), "https://github.com/microsoft")
	if !res.Safe {
		t.Error("trusted domain must be safe")
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", res.Confidence)
	}
	if len(res.Results) != 1 || res.Results[0].Source != "trusted_allowlist" {
		t.Errorf("results = %+v, want single synthetic trusted result", res.Results)
	}
}

func TestCheckURLConfidenceCap(t *testing.T) {
	providers := make([]Provider, 6)
	for i := range providers {
		providers[i] = &fakeProvider{name: "p", result: safeResult(0.95)}
	}
	a := &Aggregator{Providers: providers}

	res := a.CheckURL(context.Background(), "https://example.com")
	if res.Confidence > 0.95 {
		t.Errorf("confidence %v exceeds cap", res.Confidence)
	}
}

func TestNeutralResult(t *testing.T) {
	n := neutral("src", "no key")
	if !n.Safe || n.Confidence != 0 || n.Err != "no key" {
		t.Errorf("neutral = %+v", n)
	}
}
