package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"linktrust/trust"
)

//
// URLHAUS (abuse.ch)
//

// URLhaus needs no API key; it is the always-available provider.
const urlhausEndpoint = "https://urlhaus-api.abuse.ch/v1/url/"

type URLhaus struct {
	Endpoint string
	Client   *http.Client
}

func NewURLhaus() *URLhaus {
	return &URLhaus{
		Endpoint: urlhausEndpoint,
		Client:   &http.Client{Timeout: 8 * time.Second},
	}
}

func (p *URLhaus) Name() string { return "urlhaus" }

func (p *URLhaus) Check(ctx context.Context, rawURL string) trust.ExternalCheckResult {
	form := url.Values{"url": {rawURL}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return neutral(p.Name(), err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.Client.Do(req)
	if err != nil {
		return neutral(p.Name(), "API error")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return neutral(p.Name(), resp.Status)
	}

	var result struct {
		QueryStatus string `json:"query_status"`
		URLStatus   string `json:"url_status"`
		Threat      string `json:"threat"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return neutral(p.Name(), err.Error())
	}

	switch result.QueryStatus {
	case "ok":
		detail := "listed"
		if result.Threat != "" {
			detail = "listed as " + result.Threat
		}
		conf := 0.9
		if result.URLStatus == "offline" {
			conf = 0.7
		}
		return trust.ExternalCheckResult{
			Source:     p.Name(),
			Safe:       false,
			Confidence: conf,
			Detail:     detail,
		}
	case "no_results":
		return trust.ExternalCheckResult{
			Source:     p.Name(),
			Safe:       true,
			Confidence: 0.8,
			Detail:     "not listed",
		}
	default:
		return neutral(p.Name(), "query status "+result.QueryStatus)
	}
}
