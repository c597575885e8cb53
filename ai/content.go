package ai

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

//
// DESTINATION CONTENT FETCH
//

const (
	maxRawHTML  = 1 << 20 // 1MB of raw HTML is plenty for a judgment
	contentHead = 10000
	contentTail = 5000

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// ContentFetcher retrieves and extracts readable text from a destination
// page. The client carries no timeout on purpose; slow pages run to the
// transport's own limits rather than being truncated mid-analysis.
type ContentFetcher struct {
	Client *http.Client
}

func NewContentFetcher() *ContentFetcher {
	return &ContentFetcher{Client: &http.Client{}}
}

// Fetch downloads the page and returns its extracted, size-capped text.
// Non-HTML responses are rejected; callers treat any error as "content
// unavailable" and degrade, never fail.
func (f *ContentFetcher) Fetch(rawURL string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "text/html") && !strings.Contains(ct, "application/xhtml") {
		return "", fmt.Errorf("not HTML: %s", ct)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxRawHTML))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	text := ExtractText(string(raw))
	return capContent(text), nil
}

// skipTags carry no readable page content.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"footer":   true,
	"header":   true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
}

// ExtractText strips markup and boilerplate regions from an HTML document
// and collapses the remaining text-node content to single-spaced text.
func ExtractText(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " ")
}

// capContent bounds prompt size: the head carries the page's identity, the
// tail often carries contact/footer signals worth keeping.
func capContent(text string) string {
	if len(text) <= contentHead+contentTail {
		return text
	}
	return text[:contentHead] + "\n...[content truncated]...\n" + text[len(text)-contentTail:]
}
