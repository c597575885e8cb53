package ai

import (
	"context"
	"log"
	"strings"

	"linktrust/trust"
)

// Input is everything the judge grounds its prompt on for one link.
type Input struct {
	URL            string
	LinkText       string
	SourceDomain   string
	SourceContext  string
	Issues         []trust.IssueTag
	HeuristicScore float64 // current 0-1 trust score, basis for fallbacks
}

// VerdictCache persists raw AI verdicts keyed by normalized URL.
type VerdictCache interface {
	GetAIVerdict(ctx context.Context, url string) (trust.AIVerdict, bool, error)
	SaveAIVerdict(ctx context.Context, url string, v trust.AIVerdict) error
}

// Service produces grounded AI judgments for links: fetch the destination,
// prompt the model, parse, normalize, cache. Every failure mode degrades to
// a usable verdict; Analyze only errs when the runtime is gated off.
type Service struct {
	client  *GeminiClient
	health  *HealthTracker
	fetcher *ContentFetcher
	cache   VerdictCache
}

// NewService wires a judge. A nil client disables AI entirely (Available
// reports false); cache may be nil in tests.
func NewService(client *GeminiClient, cache VerdictCache) *Service {
	s := &Service{
		client:  client,
		fetcher: NewContentFetcher(),
		cache:   cache,
	}
	if client != nil {
		s.health = NewHealthTracker(client)
	}
	return s
}

// Available reports whether AI calls should be attempted at all.
func (s *Service) Available() bool {
	return s.client != nil && s.health.Available()
}

const maxFieldLen = 500

// Analyze runs the full judgment pipeline for one link. The model is
// invoked at most once; parse and fetch failures produce degraded verdicts
// derived from the heuristic score instead of errors.
func (s *Service) Analyze(ctx context.Context, in Input) (trust.AIVerdict, error) {
	normalized := trust.NormalizeURL(in.URL)

	if s.cache != nil {
		if cached, ok, err := s.cache.GetAIVerdict(ctx, normalized); err == nil && ok {
			log.Printf("[AI] cache hit for %s", normalized)
			return cached, nil
		}
	}

	content, err := s.fetcher.Fetch(in.URL)
	if err != nil || content == "" {
		log.Printf("[AI] content unavailable for %s: %v", in.URL, err)
		return degradedVerdict(in), nil
	}

	prompt := BuildAnalysisPrompt(in, content)
	// One shot, no retry: a second identical call rarely parses better and
	// doubles the load on the runtime.
	out, err := s.client.Generate(ctx, prompt, SystemPrompt)
	if err != nil {
		log.Printf("[AI] generation failed for %s: %v", in.URL, err)
		return fallbackVerdict(in, "model call failed"), nil
	}

	raw, err := extractVerdict(out)
	if err != nil {
		log.Printf("[AI] unparseable response for %s: %v", in.URL, err)
		return fallbackVerdict(in, "model response could not be parsed"), nil
	}

	v := normalizeVerdict(raw)
	log.Printf("[AI] verdict for %s: rating %.0f (%s)", normalized, v.SafetyRating, ScoreInterpretation(v.SafetyRating))
	s.saveCached(ctx, normalized, v)
	return v, nil
}

// degradedVerdict stands in when the destination could not be fetched:
// the heuristic score minus a flat 20-point penalty, no recommendation.
// Never cached; the next analysis retries the fetch.
func degradedVerdict(in Input) trust.AIVerdict {
	return trust.AIVerdict{
		ContentSummary: "destination content could not be fetched",
		SafetyRating:   clampRating(in.HeuristicScore*100 - 20),
		Reasoning:      "judged without page content; rating reduced accordingly",
		Confidence:     0.3,
	}
}

// fallbackVerdict stands in when the model answered but nothing usable came
// back: conservative, derived from the heuristic score. Never cached; the
// next analysis retries the model.
func fallbackVerdict(in Input, reason string) trust.AIVerdict {
	return trust.AIVerdict{
		ContentSummary: "analysis incomplete",
		Recommendation: trust.RecommendCaution,
		SafetyRating:   clampRating(in.HeuristicScore*100 - 10),
		Reasoning:      reason,
		Confidence:     0.2,
	}
}

func (s *Service) saveCached(ctx context.Context, normalized string, v trust.AIVerdict) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveAIVerdict(ctx, normalized, v); err != nil {
		log.Printf("[AI] cache write failed for %s: %v", normalized, err)
	}
}

// normalizeVerdict clamps and coerces whatever shape the model produced
// into the canonical verdict.
func normalizeVerdict(raw rawVerdict) trust.AIVerdict {
	return trust.AIVerdict{
		ContentSummary: truncate(raw.ContentSummary, maxFieldLen),
		Recommendation: coerceRecommendation(raw.Recommendation),
		ClickBehavior:  truncate(raw.ClickBehavior, maxFieldLen),
		SafetyRating:   clampRating(raw.SafetyRating),
		Reasoning:      truncate(raw.Reasoning, maxFieldLen),
		RiskTags:       raw.RiskTags,
		Confidence:     trust.Clamp01(raw.Confidence),
	}
}

// coerceRecommendation maps loose model phrasing onto the three canonical
// values by substring match; anything unrecognizable stays empty.
func coerceRecommendation(s string) string {
	upper := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case strings.Contains(upper, "AVOID") || strings.Contains(upper, "DANGER") || strings.Contains(upper, "UNSAFE"):
		return trust.RecommendAvoid
	case strings.Contains(upper, "CAUTION"):
		return trust.RecommendCaution
	case strings.Contains(upper, "SAFE"):
		return trust.RecommendSafe
	default:
		return ""
	}
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
