package external

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"linktrust/trust"
)

//
// GOOGLE SAFE BROWSING
//

const safeBrowsingEndpoint = "https://safebrowsing.googleapis.com/v4/threatMatches:find"

type SafeBrowsing struct {
	Endpoint string
	Client   *http.Client
}

func NewSafeBrowsing() *SafeBrowsing {
	return &SafeBrowsing{
		Endpoint: safeBrowsingEndpoint,
		Client:   &http.Client{Timeout: 6 * time.Second},
	}
}

func (p *SafeBrowsing) Name() string { return "google_safe_browsing" }

func (p *SafeBrowsing) Check(ctx context.Context, rawURL string) trust.ExternalCheckResult {
	apiKey := os.Getenv("GOOGLE_SAFE_BROWSING_KEY")
	if apiKey == "" || strings.HasPrefix(apiKey, "your-") {
		return neutral(p.Name(), "API key missing")
	}

	body := fmt.Sprintf(`
    {
      "client": {
        "clientId": "linktrust",
        "clientVersion": "1.0"
      },
      "threatInfo": {
        "threatTypes": ["MALWARE", "SOCIAL_ENGINEERING", "UNWANTED_SOFTWARE"],
        "platformTypes": ["ANY_PLATFORM"],
        "threatEntryTypes": ["URL"],
        "threatEntries": [{"url": %q}]
      }
    }`, rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint+"?key="+apiKey, strings.NewReader(body))
	if err != nil {
		return neutral(p.Name(), err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return neutral(p.Name(), "API error")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return neutral(p.Name(), resp.Status)
	}

	var result struct {
		Matches []struct {
			ThreatType string `json:"threatType"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return neutral(p.Name(), err.Error())
	}

	if len(result.Matches) > 0 {
		log.Printf("[SafeBrowsing] ⚠️ threat match for %s: %s", rawURL, result.Matches[0].ThreatType)
		return trust.ExternalCheckResult{
			Source:     p.Name(),
			Safe:       false,
			Confidence: 0.95,
			Detail:     "flagged as " + result.Matches[0].ThreatType,
		}
	}

	return trust.ExternalCheckResult{
		Source:     p.Name(),
		Safe:       true,
		Confidence: 0.9,
		Detail:     "no threats",
	}
}
