package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"linktrust/trust"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "verdicts.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleVerdict(url string) trust.TrustVerdict {
	return trust.TrustVerdict{
		URL:        url,
		TrustScore: 0.35,
		Category:   trust.CategorySuspicious,
		Issues:     []trust.IssueTag{trust.IssueNoHTTPS, trust.IssueSuspiciousTLD},
	}
}

func TestUpsertAndGetMany(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	url := "http://sketchy.tk/login"
	if err := s.Upsert(ctx, url, sampleVerdict(url), "click here"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	hits, err := s.GetMany(ctx, []string{url, "https://never-seen.example"})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	got, ok := hits[url]
	if !ok {
		t.Fatalf("no hit for %s", url)
	}
	if got.TrustScore != 0.35 || got.Category != trust.CategorySuspicious {
		t.Errorf("verdict = %+v", got)
	}
	if len(got.Issues) != 2 || got.Issues[0] != trust.IssueNoHTTPS {
		t.Errorf("issues = %v", got.Issues)
	}
}

func TestGetManyExpiry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://aging.example/page"

	if err := s.Upsert(ctx, url, sampleVerdict(url), ""); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Move the clock 25h forward: the row is now past its TTL.
	s.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	hits, err := s.GetMany(ctx, []string{url})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("stale row returned: %+v", hits)
	}

	// A fresh write under the same key becomes the live entry again.
	v := sampleVerdict(url)
	v.TrustScore = 0.8
	if err := s.Upsert(ctx, url, v, ""); err != nil {
		t.Fatalf("re-Upsert failed: %v", err)
	}
	hits, err = s.GetMany(ctx, []string{url})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if got, ok := hits[url]; !ok || got.TrustScore != 0.8 {
		t.Fatalf("fresh write not live: %+v", hits)
	}
}

func TestUpsertPreservesAIFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://judged.example"

	withAI := sampleVerdict(url)
	withAI.AIStatus = "done"
	withAI.AISummary = "a login page imitating a bank"
	withAI.AIRecommendation = trust.RecommendAvoid
	withAI.AIConfidence = 0.9
	if err := s.Upsert(ctx, url, withAI, ""); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Heuristic-only rewrite: no AI fields set. The merge must keep the
	// earlier AI judgment.
	plain := sampleVerdict(url)
	plain.TrustScore = 0.3
	if err := s.Upsert(ctx, url, plain, ""); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	hits, err := s.GetMany(ctx, []string{url})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	got := hits[url]
	if got.TrustScore != 0.3 {
		t.Errorf("score = %v, want latest 0.3", got.TrustScore)
	}
	if got.AISummary != "a login page imitating a bank" {
		t.Errorf("AI summary lost: %+v", got)
	}
	if got.AIRecommendation != trust.RecommendAvoid || got.AIConfidence != 0.9 {
		t.Errorf("AI fields lost: %+v", got)
	}
}

func TestUpsertKeepsCreationWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://refined.example/page"
	t0 := time.Now()

	s.now = func() time.Time { return t0 }
	if err := s.Upsert(ctx, url, sampleVerdict(url), ""); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// An AI refinement lands 23h in: still fresh, so the original creation
	// time holds and only updated_at advances.
	s.now = func() time.Time { return t0.Add(23 * time.Hour) }
	refined := sampleVerdict(url)
	refined.AIStatus = "done"
	refined.AISummary = "a harmless blog post"
	if err := s.Upsert(ctx, url, refined, ""); err != nil {
		t.Fatalf("refinement Upsert failed: %v", err)
	}

	hits, err := s.GetMany(ctx, []string{url})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if got, ok := hits[url]; !ok || got.AISummary != "a harmless blog post" {
		t.Fatalf("refined row not live at 23h: %+v", hits)
	}

	// 25h after the original write the row is stale regardless of the
	// refinement; the window is anchored to creation, not last update.
	s.now = func() time.Time { return t0.Add(25 * time.Hour) }
	hits, err = s.GetMany(ctx, []string{url})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("in-TTL update extended the freshness window: %+v", hits)
	}
}

func TestUpsertZeroConfidence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://uncertain.example"

	first := sampleVerdict(url)
	first.AIStatus = "done"
	first.AIConfidence = 0.9
	if err := s.Upsert(ctx, url, first, ""); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// A resolved judgment with confidence exactly 0 is data, not absence:
	// it must replace the earlier value instead of being merged away.
	second := sampleVerdict(url)
	second.AIStatus = "done"
	second.AIConfidence = 0
	if err := s.Upsert(ctx, url, second, ""); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	hits, err := s.GetMany(ctx, []string{url})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if got := hits[url]; got.AIConfidence != 0 {
		t.Errorf("confidence = %v, want 0", got.AIConfidence)
	}
}

func TestUpsertConcurrentSameKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://contended.example"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := sampleVerdict(url)
			v.TrustScore = float64(i) / 10
			if err := s.Upsert(ctx, url, v, ""); err != nil {
				t.Errorf("Upsert failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	hits, err := s.GetMany(ctx, []string{url})
	if err != nil {
		t.Fatalf("GetMany failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want exactly one row", len(hits))
	}
}

func TestAIVerdictRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	url := "https://cached-ai.example"

	v := trust.AIVerdict{
		ContentSummary: "marketing page",
		Recommendation: trust.RecommendSafe,
		SafetyRating:   88,
		RiskTags:       []string{"tracking"},
		Confidence:     0.8,
	}
	if err := s.SaveAIVerdict(ctx, url, v); err != nil {
		t.Fatalf("SaveAIVerdict failed: %v", err)
	}

	got, ok, err := s.GetAIVerdict(ctx, url)
	if err != nil || !ok {
		t.Fatalf("GetAIVerdict = ok %v, err %v", ok, err)
	}
	if got.SafetyRating != 88 || got.Recommendation != trust.RecommendSafe {
		t.Errorf("verdict = %+v", got)
	}

	if _, ok, err := s.GetAIVerdict(ctx, "https://missing.example"); err != nil || ok {
		t.Errorf("miss returned ok=%v err=%v", ok, err)
	}

	// Raw AI verdicts age out on the shorter TTL.
	s.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	if _, ok, _ := s.GetAIVerdict(ctx, url); ok {
		t.Error("stale AI verdict returned")
	}
}
