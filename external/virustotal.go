package external

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"linktrust/trust"
)

//
// VIRUSTOTAL URL REPORT
//

const virusTotalEndpoint = "https://www.virustotal.com/api/v3/urls"

type VirusTotal struct {
	Endpoint string
	Client   *http.Client
}

func NewVirusTotal() *VirusTotal {
	return &VirusTotal{
		Endpoint: virusTotalEndpoint,
		Client:   &http.Client{Timeout: 8 * time.Second},
	}
}

func (p *VirusTotal) Name() string { return "virustotal" }

func (p *VirusTotal) Check(ctx context.Context, rawURL string) trust.ExternalCheckResult {
	apiKey := os.Getenv("VIRUSTOTAL_API_KEY")
	if apiKey == "" || strings.HasPrefix(apiKey, "your-") {
		return neutral(p.Name(), "API key missing")
	}

	// VT addresses URL reports by the unpadded base64url form of the URL.
	id := strings.TrimRight(base64.URLEncoding.EncodeToString([]byte(rawURL)), "=")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint+"/"+id, nil)
	if err != nil {
		return neutral(p.Name(), err.Error())
	}
	req.Header.Set("x-apikey", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return neutral(p.Name(), "API error")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Never scanned before; no opinion either way.
		return neutral(p.Name(), "no report")
	}
	if resp.StatusCode != http.StatusOK {
		return neutral(p.Name(), resp.Status)
	}

	var report struct {
		Data struct {
			Attributes struct {
				LastAnalysisStats struct {
					Malicious  int `json:"malicious"`
					Suspicious int `json:"suspicious"`
					Harmless   int `json:"harmless"`
					Undetected int `json:"undetected"`
				} `json:"last_analysis_stats"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return neutral(p.Name(), err.Error())
	}

	stats := report.Data.Attributes.LastAnalysisStats
	total := stats.Malicious + stats.Suspicious + stats.Harmless + stats.Undetected
	if total == 0 {
		return neutral(p.Name(), "empty report")
	}

	bad := stats.Malicious + stats.Suspicious
	if bad > 0 {
		conf := 0.5 + float64(bad)/float64(total)
		if conf > 0.95 {
			conf = 0.95
		}
		return trust.ExternalCheckResult{
			Source:     p.Name(),
			Safe:       false,
			Confidence: conf,
			Detail:     fmt.Sprintf("%d/%d engines flagged", bad, total),
		}
	}

	return trust.ExternalCheckResult{
		Source:     p.Name(),
		Safe:       true,
		Confidence: 0.85,
		Detail:     fmt.Sprintf("clean across %d engines", total),
	}
}
