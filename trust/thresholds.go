package trust

// Thresholds collects every empirically chosen constant of the pipeline so
// they can be recalibrated without touching scoring code. The defaults carry
// over from the original tuning; they have not been validated against a
// labeled corpus yet.
type Thresholds struct {
	// Category boundaries for the trust score.
	SafeMin       float64 `json:"safe_min"`       // >= is SAFE
	SuspiciousMin float64 `json:"suspicious_min"` // >= is SUSPICIOUS

	// Fast-path AI skip rules.
	SkipDangerousBelow   float64 `json:"skip_dangerous_below"`    // score below + external threats
	SkipSafeAbove        float64 `json:"skip_safe_above"`         // score above + zero issues
	SkipSafeConfirmed    float64 `json:"skip_safe_confirmed"`     // score above + external-confirmed
	SkipSafeExtConfMin   float64 `json:"skip_safe_ext_conf_min"`  // external confidence for confirmed skip
	ExternalBlendConfMin float64 `json:"external_blend_conf_min"` // blend external verdict above this

	// Typosquatting similarity bands.
	SimilarityMatch        float64 `json:"similarity_match"`        // outright match above
	SimilarityBorderline   float64 `json:"similarity_borderline"`   // match only with confusion density
	SimilaritySubstitution float64 `json:"similarity_substitution"` // match after pattern substitution
	ConfusionDensity       float64 `json:"confusion_density"`       // fraction of confusable positions

	// Update polling.
	MaxPollAttempts int `json:"max_poll_attempts"`
}

// DefaultThresholds returns the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SafeMin:       0.7,
		SuspiciousMin: 0.4,

		SkipDangerousBelow:   0.2,
		SkipSafeAbove:        0.8,
		SkipSafeConfirmed:    0.85,
		SkipSafeExtConfMin:   0.8,
		ExternalBlendConfMin: 0.7,

		SimilarityMatch:        0.75,
		SimilarityBorderline:   0.65,
		SimilaritySubstitution: 0.9,
		ConfusionDensity:       0.3,

		MaxPollAttempts: 30,
	}
}
