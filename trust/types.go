package trust

import "time"

// LinkCandidate is a single link extracted from a page, as delivered by the
// browser-side scanner. It is read-only input for every stage of analysis.
type LinkCandidate struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Rel      string `json:"rel,omitempty"`
	Target   string `json:"target,omitempty"`
	Download bool   `json:"download,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	Domain   string `json:"domain,omitempty"`
}

// IssueTag is a discrete rule-derived signal contributing to the trust score.
type IssueTag string

const (
	IssueNoHTTPS           IssueTag = "no_https"
	IssueShortURL          IssueTag = "short_url"
	IssuePunycode          IssueTag = "punycode"
	IssueSuspiciousTLD     IssueTag = "suspicious_tld"
	IssueIPHost            IssueTag = "ip_address_host"
	IssueSuspiciousSubdom  IssueTag = "suspicious_subdomain"
	IssueLongQuery         IssueTag = "long_query"
	IssueEncodingMismatch  IssueTag = "encoding_mismatch"
	IssueDeepPath          IssueTag = "deep_path"
	IssueUnusualPort       IssueTag = "unusual_port"
	IssueShortDomain       IssueTag = "short_domain"
	IssueTyposquatting     IssueTag = "typosquatting"
	IssueBlankNoNoopener   IssueTag = "blank_no_noopener"
	IssueDownloadAttr      IssueTag = "download_attr"
	IssuePlaceholderText   IssueTag = "placeholder_text"
	IssueUrgencyText       IssueTag = "urgency_text"
	IssueDangerousProtocol IssueTag = "dangerous_protocol"
	IssueMalformedURL      IssueTag = "malformed_url"
	IssueExternalThreat    IssueTag = "external_threat"
)

// Positive flag names set by the heuristic scorer.
const (
	FlagHasNoopener    = "hasNoopener"
	FlagHasNoreferrer  = "hasNoreferrer"
	FlagIsKnownSafe    = "isKnownSafe"
	FlagHasValidDomain = "hasValidDomain"
	FlagHasValidSSL    = "hasValidSSL"
)

// Category buckets a trust score into a user-facing severity.
type Category string

const (
	CategorySafe       Category = "SAFE"
	CategorySuspicious Category = "SUSPICIOUS"
	CategoryDangerous  Category = "DANGEROUS"
)

// CategoryForScore maps a trust score onto its category. The mapping is the
// single source of truth: >=0.7 SAFE, >=0.4 SUSPICIOUS, below DANGEROUS.
func CategoryForScore(score float64) Category {
	switch {
	case score >= 0.7:
		return CategorySafe
	case score >= 0.4:
		return CategorySuspicious
	default:
		return CategoryDangerous
	}
}

// Follow recommendations produced by the AI judgment stage.
const (
	RecommendSafe    = "SAFE_TO_FOLLOW"
	RecommendCaution = "CAUTION_ADVISED"
	RecommendAvoid   = "AVOID"
)

// AIVerdict is the structured judgment parsed from a model response.
type AIVerdict struct {
	ContentSummary string   `json:"content_summary"`
	Recommendation string   `json:"recommendation"`
	ClickBehavior  string   `json:"click_behavior"`
	SafetyRating   float64  `json:"safety_rating"` // 0-100
	Reasoning      string   `json:"reasoning"`
	RiskTags       []string `json:"risk_tags,omitempty"`
	Confidence     float64  `json:"confidence,omitempty"`
}

// ExternalCheckResult is one provider's normalized answer. Raw provider JSON
// never crosses this boundary.
type ExternalCheckResult struct {
	Source     string  `json:"source"`
	Safe       bool    `json:"safe"`
	Confidence float64 `json:"confidence"` // 0-1
	Detail     string  `json:"detail,omitempty"`
	Err        string  `json:"error,omitempty"`
}

// AggregatedExternalResult reduces all provider answers for one URL.
type AggregatedExternalResult struct {
	Safe        bool                  `json:"safe"`
	Confidence  float64               `json:"confidence"`
	Results     []ExternalCheckResult `json:"results"`
	ThreatCount int                   `json:"threat_count"`
}

// AIStatus values recorded on a verdict as AI refinement progresses.
const (
	AIStatusQueued           = "queued"
	AIStatusDone             = "done"
	AIStatusSkippedSafe      = "skipped_safe"
	AIStatusSkippedDangerous = "skipped_dangerous"
	AIStatusUnavailable      = "unavailable"
)

// TrustVerdict is the externally visible result for one link.
type TrustVerdict struct {
	URL        string     `json:"url"`
	TrustScore float64    `json:"trust_score"`
	Category   Category   `json:"category"`
	Issues     []IssueTag `json:"issues"`

	AIStatus         string   `json:"ai_status,omitempty"`
	AISummary        string   `json:"ai_summary,omitempty"`
	AIRecommendation string   `json:"ai_recommendation,omitempty"`
	AIRiskTags       []string `json:"ai_risk_tags,omitempty"`
	AIConfidence     float64  `json:"ai_confidence,omitempty"`
}

// CacheEntry is one durable row of the verdict store.
type CacheEntry struct {
	NormalizedURL string       `json:"normalized_url"`
	Verdict       TrustVerdict `json:"verdict"`
	LinkText      string       `json:"link_text,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Clamp01 bounds a score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
