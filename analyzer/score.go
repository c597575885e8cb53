package analyzer

import (
	"linktrust/heuristics"
	"linktrust/trust"
)

//
// INITIAL TRUST SCORE (pre-AI)
//

// issuePenalties are the fixed per-issue deductions from the 0.5 baseline.
var issuePenalties = map[trust.IssueTag]float64{
	trust.IssueTyposquatting:     0.50,
	trust.IssueDangerousProtocol: 0.50,
	trust.IssueExternalThreat:    0.30,
	trust.IssueNoHTTPS:           0.20,
	trust.IssuePunycode:          0.18,
	trust.IssueSuspiciousTLD:     0.15,
	trust.IssueIPHost:            0.15,
	trust.IssueMalformedURL:      0.15,
	trust.IssueShortURL:          0.10,
	trust.IssueSuspiciousSubdom:  0.10,
	trust.IssueUrgencyText:       0.10,
	trust.IssueEncodingMismatch:  0.08,
	trust.IssueUnusualPort:       0.08,
	trust.IssueDownloadAttr:      0.08,
	trust.IssueLongQuery:         0.05,
	trust.IssueDeepPath:          0.05,
	trust.IssueShortDomain:       0.05,
	trust.IssuePlaceholderText:   0.05,
	trust.IssueBlankNoNoopener:   0.03,
}

// flagBonuses reward positive signals.
var flagBonuses = map[string]float64{
	trust.FlagIsKnownSafe:    0.20,
	trust.FlagHasValidSSL:    0.10,
	trust.FlagHasValidDomain: 0.02,
	trust.FlagHasNoopener:    0.02,
	trust.FlagHasNoreferrer:  0.01,
}

// initialScore combines heuristics and the external aggregate into the
// pre-AI trust score: 0.5 baseline, per-issue penalties, flag bonuses, and
// a 60/40 heuristic/external blend once the external side is confident.
func initialScore(h heuristics.Result, ext *trust.AggregatedExternalResult, th trust.Thresholds) float64 {
	score := 0.5

	for _, issue := range h.Issues {
		score -= issuePenalties[issue]
	}
	for flag, set := range h.Flags {
		if set {
			score += flagBonuses[flag]
		}
	}

	if ext != nil {
		if !ext.Safe {
			score -= issuePenalties[trust.IssueExternalThreat]
		}
		if ext.Confidence > th.ExternalBlendConfMin {
			extScore := ext.Confidence
			if !ext.Safe {
				extScore = 1 - ext.Confidence
			}
			score = 0.6*trust.Clamp01(score) + 0.4*extScore
		}
	}

	return trust.Clamp01(score)
}

// mergedIssues appends the external-threat tag onto the heuristic issues
// when any provider confidently flagged the URL.
func mergedIssues(h heuristics.Result, ext *trust.AggregatedExternalResult) []trust.IssueTag {
	issues := make([]trust.IssueTag, len(h.Issues))
	copy(issues, h.Issues)
	if ext != nil && !ext.Safe {
		issues = append(issues, trust.IssueExternalThreat)
	}
	return issues
}

// applyAIVerdict mutates a verdict with a resolved AI judgment. Each
// recommendation forces its category and constrains the score; an
// unrecognized recommendation blends the AI rating 60/40 with the
// heuristic score instead.
func applyAIVerdict(v *trust.TrustVerdict, ai trust.AIVerdict) {
	switch ai.Recommendation {
	case trust.RecommendSafe:
		if v.TrustScore < 0.7 {
			v.TrustScore = 0.7
		}
	case trust.RecommendAvoid:
		if v.TrustScore > 0.3 {
			v.TrustScore = 0.3
		}
	case trust.RecommendCaution:
		if v.TrustScore < 0.4 {
			v.TrustScore = 0.4
		} else if v.TrustScore > 0.69 {
			v.TrustScore = 0.69
		}
	default:
		v.TrustScore = trust.Clamp01(0.6*(ai.SafetyRating/100) + 0.4*v.TrustScore)
	}
	v.Category = trust.CategoryForScore(v.TrustScore)

	v.AIStatus = trust.AIStatusDone
	v.AISummary = ai.ContentSummary
	v.AIRecommendation = ai.Recommendation
	v.AIRiskTags = ai.RiskTags
	v.AIConfidence = ai.Confidence
}
