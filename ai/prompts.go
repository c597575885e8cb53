package ai

import (
	"fmt"
	"strings"
)

// ============================================================================
// SYSTEM PROMPT
// ============================================================================

const SystemPrompt = `You are a link-safety analyst. You receive the context of the page a user is on, the extracted content of a link's destination, and a list of heuristic findings about the link.

YOUR TASK:
1. Judge whether the destination content matches what the link claims to be
2. Assess the risk of following the link (phishing, malware, scam, deception)
3. Weigh relevance: a link to the same domain or an official site of the subject being discussed deserves a higher safety rating

RULES:
- Base your judgment ONLY on the provided content and findings; never invent page content
- Respond with ONLY a JSON object, no prose around it
- Keep free-text fields to one or two sentences`

// ============================================================================
// ANALYSIS PROMPT
// ============================================================================

const maxSourceContextChars = 5000

const analysisPromptFormat = `Analyze this link for safety.

SOURCE PAGE (where the user found the link):
Domain: %s
Context: %s

LINK:
URL: %s
Anchor text: %q

HEURISTIC FINDINGS: %s

DESTINATION CONTENT (extracted):
%s

Respond with ONLY this JSON object:
{
  "content_summary": "what the destination page actually is, one sentence",
  "recommendation": "SAFE_TO_FOLLOW or CAUTION_ADVISED or AVOID",
  "click_behavior": "what happens when the user clicks, one sentence",
  "safety_rating": 0-100,
  "reasoning": "why, one or two sentences",
  "risk_tags": ["short risk keywords, empty if none"],
  "confidence": 0.0-1.0
}

Remember: same-domain links and official sites of the discussed subject are usually safe. A mismatch between anchor text and destination content is a strong warning sign.`

// BuildAnalysisPrompt assembles the grounded prompt for one link.
func BuildAnalysisPrompt(in Input, content string) string {
	sourceContext := strings.TrimSpace(in.SourceContext)
	if len(sourceContext) > maxSourceContextChars {
		sourceContext = sourceContext[:maxSourceContextChars]
	}
	if sourceContext == "" {
		sourceContext = "(no source context available)"
	}

	findings := "none"
	if len(in.Issues) > 0 {
		tags := make([]string, len(in.Issues))
		for i, t := range in.Issues {
			tags[i] = string(t)
		}
		findings = strings.Join(tags, ", ")
	}

	if content == "" {
		content = "(destination content could not be fetched)"
	}

	return fmt.Sprintf(analysisPromptFormat,
		in.SourceDomain, sourceContext, in.URL, in.LinkText, findings, content)
}

// ScoreInterpretation converts a safety rating to a human-readable label.
func ScoreInterpretation(rating float64) string {
	switch {
	case rating >= 80:
		return "Excellent"
	case rating >= 60:
		return "Good"
	case rating >= 40:
		return "Medium"
	case rating >= 20:
		return "Poor"
	default:
		return "Critical"
	}
}
