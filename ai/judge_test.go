package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"linktrust/trust"
)

type memCache struct {
	mu       sync.Mutex
	verdicts map[string]trust.AIVerdict
	saves    int
}

func newMemCache() *memCache {
	return &memCache{verdicts: map[string]trust.AIVerdict{}}
}

func (c *memCache) GetAIVerdict(ctx context.Context, url string) (trust.AIVerdict, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.verdicts[url]
	return v, ok, nil
}

func (c *memCache) SaveAIVerdict(ctx context.Context, url string, v trust.AIVerdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdicts[url] = v
	c.saves++
	return nil
}

// newGeminiStub serves a generateContent endpoint that wraps answer in the
// standard candidates envelope.
func newGeminiStub(t *testing.T, answer string, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if calls != nil {
			*calls++
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"role":  "model",
					"parts": []map[string]string{{"text": answer}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newPageStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
}

func stubClient(baseURL string) *GeminiClient {
	return &GeminiClient{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "test-model",
		HTTPClient:  &http.Client{},
		ProbeClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func stubService(client *GeminiClient, cache VerdictCache) *Service {
	return &Service{client: client, fetcher: NewContentFetcher(), cache: cache}
}

func TestAnalyzeFullPipeline(t *testing.T) {
	page := newPageStub(t, "<html><body><h1>Acme Docs</h1><p>API reference.</p></body></html>")
	defer page.Close()

	calls := 0
	model := newGeminiStub(t, "```json\n"+verdictJSON+"\n```", &calls)
	defer model.Close()

	cache := newMemCache()
	svc := stubService(stubClient(model.URL), cache)

	v, err := svc.Analyze(context.Background(), Input{
		URL:            page.URL + "/docs",
		LinkText:       "API docs",
		SourceDomain:   "acme.example",
		HeuristicScore: 0.8,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if v.Recommendation != trust.RecommendSafe {
		t.Errorf("recommendation = %q", v.Recommendation)
	}
	if v.SafetyRating != 92 {
		t.Errorf("rating = %v", v.SafetyRating)
	}
	if calls != 1 {
		t.Errorf("model called %d times, want 1", calls)
	}
	if cache.saves != 1 {
		t.Errorf("cache saves = %d, want 1", cache.saves)
	}
}

func TestAnalyzeCacheHitSkipsModel(t *testing.T) {
	calls := 0
	model := newGeminiStub(t, verdictJSON, &calls)
	defer model.Close()

	cache := newMemCache()
	rawURL := "https://cached.example/page"
	cache.verdicts[trust.NormalizeURL(rawURL)] = trust.AIVerdict{
		ContentSummary: "previously judged",
		Recommendation: trust.RecommendCaution,
		SafetyRating:   55,
	}

	svc := stubService(stubClient(model.URL), cache)
	v, err := svc.Analyze(context.Background(), Input{URL: rawURL, HeuristicScore: 0.5})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if v.ContentSummary != "previously judged" {
		t.Errorf("verdict = %+v, want cached copy", v)
	}
	if calls != 0 {
		t.Errorf("model called %d times on cache hit", calls)
	}
}

func TestAnalyzeDegradesWhenFetchFails(t *testing.T) {
	model := newGeminiStub(t, verdictJSON, nil)
	defer model.Close()

	cache := newMemCache()
	svc := stubService(stubClient(model.URL), cache)
	// Unroutable destination: the fetch fails, the judge degrades.
	v, err := svc.Analyze(context.Background(), Input{
		URL:            "http://127.0.0.1:1/nope",
		HeuristicScore: 0.6,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if v.Recommendation != "" {
		t.Errorf("degraded verdict has recommendation %q, want none", v.Recommendation)
	}
	if want := 0.6*100 - 20; v.SafetyRating != want {
		t.Errorf("rating = %v, want %v", v.SafetyRating, want)
	}
	if v.Confidence != 0.3 {
		t.Errorf("confidence = %v", v.Confidence)
	}
	if cache.saves != 0 {
		t.Errorf("degraded verdict cached (%d saves); fetch failures must stay retryable", cache.saves)
	}
}

func TestAnalyzeRetriesAfterFetchRecovery(t *testing.T) {
	var failing bool
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing {
			http.Error(w, "temporarily down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Back online</h1></body></html>")
	}))
	defer page.Close()

	calls := 0
	model := newGeminiStub(t, verdictJSON, &calls)
	defer model.Close()

	cache := newMemCache()
	svc := stubService(stubClient(model.URL), cache)
	in := Input{URL: page.URL, HeuristicScore: 0.6}

	failing = true
	v, err := svc.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if v.ContentSummary != "destination content could not be fetched" {
		t.Fatalf("first verdict = %+v, want degraded", v)
	}
	if calls != 0 {
		t.Fatalf("model called %d times without page content", calls)
	}

	// The destination comes back; the next analysis must re-fetch and invoke
	// the model instead of serving the degraded stand-in.
	failing = false
	v, err = svc.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}
	if v.Recommendation != trust.RecommendSafe || v.SafetyRating != 92 {
		t.Errorf("second verdict = %+v, want the model's", v)
	}
	if calls != 1 {
		t.Errorf("model called %d times after recovery, want 1", calls)
	}
	if cache.saves != 1 {
		t.Errorf("cache saves = %d, want only the parsed verdict", cache.saves)
	}
}

func TestAnalyzeFallsBackOnUnparseableResponse(t *testing.T) {
	page := newPageStub(t, "<html><body>hello</body></html>")
	defer page.Close()
	model := newGeminiStub(t, "I refuse to answer in JSON.", nil)
	defer model.Close()

	cache := newMemCache()
	svc := stubService(stubClient(model.URL), cache)
	v, err := svc.Analyze(context.Background(), Input{URL: page.URL, HeuristicScore: 0.5})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if v.Recommendation != trust.RecommendCaution {
		t.Errorf("fallback recommendation = %q", v.Recommendation)
	}
	if want := 0.5*100 - 10; v.SafetyRating != want {
		t.Errorf("rating = %v, want %v", v.SafetyRating, want)
	}
	if cache.saves != 0 {
		t.Errorf("fallback verdict cached (%d saves); parse failures must stay retryable", cache.saves)
	}
}

func TestAnalyzeFallsBackOnModelError(t *testing.T) {
	page := newPageStub(t, "<html><body>hello</body></html>")
	defer page.Close()
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer model.Close()

	svc := stubService(stubClient(model.URL), newMemCache())
	v, err := svc.Analyze(context.Background(), Input{URL: page.URL, HeuristicScore: 0.4})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if v.Recommendation != trust.RecommendCaution || v.Confidence != 0.2 {
		t.Errorf("fallback verdict = %+v", v)
	}
}

func TestAvailableNilClient(t *testing.T) {
	svc := NewService(nil, nil)
	if svc.Available() {
		t.Fatal("nil-client service reports available")
	}
}

func TestHealthTrackerMemoizes(t *testing.T) {
	probes := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/models") {
			probes++
			json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]string{{"name": "models/test-model"}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "ok"}}}},
			},
		})
	}))
	defer srv.Close()

	h := NewHealthTracker(stubClient(srv.URL))
	if !h.Available() {
		t.Fatal("healthy runtime reports unavailable")
	}
	if !h.Available() {
		t.Fatal("second check flipped to unavailable")
	}
	if probes != 1 {
		t.Errorf("probed %d times within the memoization window, want 1", probes)
	}
}
