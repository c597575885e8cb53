package heuristics

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/net/idna"

	"linktrust/trust"
)

//
// TYPOSQUATTING DETECTION
//

// DetectTyposquat reports the first brand the candidate host imitates, if
// any. The host's second-level label is compared brand by brand through four
// escalating checks: pattern substitution, edit-distance similarity,
// character-confusion density, and Latin/Cyrillic homoglyphs.
func (s *Scorer) DetectTyposquat(host string) (string, bool) {
	label := trust.SecondLevelLabel(host)
	if label == "" {
		return "", false
	}

	// Punycode labels are decoded first so homoglyph glyphs are visible to
	// the rune-level comparisons.
	if strings.HasPrefix(label, "xn--") {
		if uni, err := idna.Lookup.ToUnicode(label); err == nil {
			label = uni
		}
	}

	for _, brand := range brandTargets {
		if label == brand {
			// It IS the brand, not an imitation.
			continue
		}
		if lenDiff(label, brand) > 3 {
			continue
		}
		if s.matchesBrand(label, brand) {
			return brand, true
		}
	}
	return "", false
}

func (s *Scorer) matchesBrand(label, brand string) bool {
	// 1. Pattern substitution: does a common swap reproduce the brand?
	for _, sub := range substitutionPatterns {
		if !strings.Contains(label, sub[0]) {
			continue
		}
		candidate := strings.ReplaceAll(label, sub[0], sub[1])
		if candidate == brand || Similarity(candidate, brand) >= s.th.SimilaritySubstitution {
			return true
		}
	}
	// Special case for brands like "youtube": a leading "t" standing in for
	// "you" ("toutube", "tube...") survives none of the generic swaps.
	if strings.HasPrefix(brand, "you") && strings.HasPrefix(label, "t") {
		candidate := "you" + strings.TrimPrefix(label, "t")
		if candidate == brand || Similarity(candidate, brand) >= s.th.SimilaritySubstitution {
			return true
		}
	}

	// 2. Normalized edit-distance similarity.
	sim := Similarity(label, brand)
	if sim > s.th.SimilarityMatch {
		return true
	}
	if sim > s.th.SimilarityBorderline && confusionDense(label, brand, s.th.ConfusionDensity) {
		return true
	}

	// 3. Homoglyph spoofing.
	return hasHomoglyphPair(label, brand)
}

// Similarity is the Levenshtein-derived score (maxLen-dist)/maxLen,
// symmetric in its arguments.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

// confusionDense counts positions where the two equal-length strings differ
// by a known confusable glyph pair; dense confusion means a deliberate fake.
func confusionDense(a, b string, threshold float64) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) || len(ra) == 0 {
		return false
	}
	confusions := 0
	for i := range ra {
		if ra[i] == rb[i] {
			continue
		}
		if confusablePairs[[2]rune{ra[i], rb[i]}] || confusablePairs[[2]rune{rb[i], ra[i]}] {
			confusions++
		}
	}
	return float64(confusions) > threshold*float64(len(ra))
}

// hasHomoglyphPair reports whether any differing position of two equal-length
// strings is a Latin/Cyrillic homoglyph swap. One such glyph is enough.
func hasHomoglyphPair(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return false
	}
	for i := range ra {
		if ra[i] == rb[i] {
			continue
		}
		if homoglyphPairs[[2]rune{ra[i], rb[i]}] || homoglyphPairs[[2]rune{rb[i], ra[i]}] {
			return true
		}
	}
	return false
}

func lenDiff(a, b string) int {
	d := len([]rune(a)) - len([]rune(b))
	if d < 0 {
		return -d
	}
	return d
}
