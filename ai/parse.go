package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

//
// MODEL OUTPUT PARSING
//

// rawVerdict mirrors the JSON shape the prompt asks the model for.
type rawVerdict struct {
	ContentSummary string   `json:"content_summary"`
	Recommendation string   `json:"recommendation"`
	ClickBehavior  string   `json:"click_behavior"`
	SafetyRating   float64  `json:"safety_rating"`
	Reasoning      string   `json:"reasoning"`
	RiskTags       []string `json:"risk_tags"`
	Confidence     float64  `json:"confidence"`
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// extractVerdict parses free-form model text through three strategies in
// order: the whole response as JSON, a fenced code block, and finally the
// first-{ to last-} substring. Models decorate their JSON unpredictably;
// all three shapes occur in practice.
func extractVerdict(text string) (rawVerdict, error) {
	text = strings.TrimSpace(text)

	var v rawVerdict
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}

	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &v); err == nil {
			return v, nil
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &v); err == nil {
			return v, nil
		}
	}

	return rawVerdict{}, fmt.Errorf("no parseable JSON in model response")
}
