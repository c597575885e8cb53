package heuristics

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"linktrust/trust"
)

// Result is the deterministic output of scoring one link. Issues keep
// detection order; flags are positive signals consumed by the score formula.
type Result struct {
	Issues []trust.IssueTag `json:"issues"`
	Flags  map[string]bool  `json:"flags"`
}

func (r Result) Has(tag trust.IssueTag) bool {
	for _, t := range r.Issues {
		if t == tag {
			return true
		}
	}
	return false
}

// Scorer runs the static link checks. It performs no I/O and never fails:
// malformed input is itself an issue.
type Scorer struct {
	th trust.Thresholds
}

func NewScorer(th trust.Thresholds) *Scorer {
	return &Scorer{th: th}
}

const (
	maxQueryLen  = 200
	maxPathDepth = 5
	minSLDLen    = 3
)

// Score evaluates every static check against one candidate link.
func (s *Scorer) Score(link trust.LinkCandidate) Result {
	res := Result{Flags: map[string]bool{}}
	add := func(tag trust.IssueTag) { res.Issues = append(res.Issues, tag) }

	raw := strings.TrimSpace(link.URL)
	lowerRaw := strings.ToLower(raw)

	// data: and javascript: links execute instead of navigate. Nothing else
	// about them is worth inspecting.
	if strings.HasPrefix(lowerRaw, "javascript:") || strings.HasPrefix(lowerRaw, "data:") || strings.HasPrefix(lowerRaw, "vbscript:") {
		add(trust.IssueDangerousProtocol)
		s.checkText(link, &res)
		s.checkAttributes(link, &res)
		return res
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		add(trust.IssueMalformedURL)
		s.checkText(link, &res)
		s.checkAttributes(link, &res)
		return res
	}

	host := strings.ToLower(u.Hostname())
	res.Flags[trust.FlagHasValidDomain] = strings.Contains(host, ".") || host == "localhost"

	if u.Scheme != "https" {
		add(trust.IssueNoHTTPS)
	} else {
		res.Flags[trust.FlagHasValidSSL] = true
	}

	if shortenerDomains[host] || shortenerDomains[trust.BaseDomain(host)] {
		add(trust.IssueShortURL)
	}

	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, "xn--") {
			add(trust.IssuePunycode)
			break
		}
	}

	if parts := strings.Split(host, "."); len(parts) > 1 {
		if suspiciousTLDs[parts[len(parts)-1]] {
			add(trust.IssueSuspiciousTLD)
		}
	}

	if net.ParseIP(host) != nil {
		add(trust.IssueIPHost)
	}

	if sub := subdomainOf(host); sub != "" {
		for _, prefix := range suspiciousSubdomainPrefixes {
			if strings.HasPrefix(sub, prefix) {
				add(trust.IssueSuspiciousSubdom)
				break
			}
		}
	}

	if len(u.RawQuery) > maxQueryLen {
		add(trust.IssueLongQuery)
	}

	if hasEncodingMismatch(raw) {
		add(trust.IssueEncodingMismatch)
	}

	if pathDepth(u.EscapedPath()) > maxPathDepth {
		add(trust.IssueDeepPath)
	}

	if port := u.Port(); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n < 1024 && n != 80 && n != 443 {
			add(trust.IssueUnusualPort)
		}
	}

	if sld := trust.SecondLevelLabel(host); len(sld) < minSLDLen && net.ParseIP(host) == nil {
		add(trust.IssueShortDomain)
	}

	if trust.IsTrustedDomain(host) {
		res.Flags[trust.FlagIsKnownSafe] = true
	} else if _, ok := s.DetectTyposquat(host); ok {
		add(trust.IssueTyposquatting)
	}

	s.checkAttributes(link, &res)
	s.checkText(link, &res)

	// A download attribute is only alarming in combination with another
	// signal; a clean direct download is routine.
	if link.Download && len(res.Issues) > 0 {
		add(trust.IssueDownloadAttr)
	}

	return res
}

func (s *Scorer) checkAttributes(link trust.LinkCandidate, res *Result) {
	rel := strings.ToLower(link.Rel)
	if strings.Contains(rel, "noopener") {
		res.Flags[trust.FlagHasNoopener] = true
	}
	if strings.Contains(rel, "noreferrer") {
		res.Flags[trust.FlagHasNoreferrer] = true
	}
	if strings.EqualFold(link.Target, "_blank") && !res.Flags[trust.FlagHasNoopener] {
		res.Issues = append(res.Issues, trust.IssueBlankNoNoopener)
	}
}

func (s *Scorer) checkText(link trust.LinkCandidate, res *Result) {
	text := strings.ToLower(strings.TrimSpace(link.Text))
	if text == "" {
		return
	}
	for _, p := range placeholderTexts {
		if strings.Contains(text, p) {
			res.Issues = append(res.Issues, trust.IssuePlaceholderText)
			break
		}
	}
	for _, p := range urgencyPhrases {
		if strings.Contains(text, p) {
			res.Issues = append(res.Issues, trust.IssueUrgencyText)
			break
		}
	}
}

// subdomainOf returns everything left of the registrable domain, or "".
func subdomainOf(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) <= 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-2], ".")
}

func pathDepth(path string) int {
	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

// hasEncodingMismatch reports double-encoded URLs: the raw form decodes to
// something that still carries percent escapes of its own.
func hasEncodingMismatch(raw string) bool {
	decoded, err := url.QueryUnescape(raw)
	if err != nil || decoded == raw {
		return false
	}
	again, err := url.QueryUnescape(decoded)
	return err == nil && again != decoded
}

// IsAnalyzedMarker reports whether link text carries a marker left by a
// previous analysis pass on the same page.
func IsAnalyzedMarker(text string) bool {
	for _, m := range AnalyzedMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
