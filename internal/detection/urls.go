package detection

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/murmurwatch/murmur-backend/internal/types"
)

// urlPattern is deliberately permissive: anything starting with http(s)://
// up to whitespace or characters that commonly terminate a pasted link.
var urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// extractURLs pulls URLs out of post content and normalizes them. Scheme and
// host are lower-cased; path and query are kept verbatim, so links differing
// only in path casing stay distinct. Trailing punctuation picked up by the
// token scan is stripped.
func extractURLs(text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, raw := range urlPattern.FindAllString(text, -1) {
		normalized := normalizeURL(strings.TrimRight(raw, `.,;:!?)'"]`))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}

func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	normalized := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + u.EscapedPath()
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return normalized
}

// findURLSharingPairs indexes posts by normalized URL and emits one pair per
// distinct account pair that shared at least one URL. A pair is emitted at
// most once for this signal regardless of how many URLs the two accounts
// share; the first shared URL becomes the evidence.
func findURLSharingPairs(posts []*types.Post) ([]PairSignal, error) {
	if len(posts) < 2 {
		return nil, nil
	}

	type holder struct {
		postID    string
		accountID string
	}
	urlIndex := make(map[string][]holder)
	for _, p := range posts {
		for _, u := range extractURLs(p.Content) {
			urlIndex[u] = append(urlIndex[u], holder{postID: p.ID, accountID: p.AccountID})
		}
	}

	urls := make([]string, 0, len(urlIndex))
	for u := range urlIndex {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	seenPairs := make(map[[2]string]bool)
	var signals []PairSignal
	for _, u := range urls {
		holders := urlIndex[u]
		if len(holders) < 2 {
			continue
		}
		for i, h1 := range holders {
			for _, h2 := range holders[i+1:] {
				if h1.accountID == h2.accountID {
					continue
				}
				key := orderedPair(h1.accountID, h2.accountID)
				if seenPairs[key] {
					continue
				}
				seenPairs[key] = true
				signals = append(signals, PairSignal{
					AccountA: h1.accountID,
					AccountB: h2.accountID,
					Type:     SignalURLSharing,
					Score:    1.0, // exact match
					Evidence: map[string]any{
						"shared_url": u,
						"post1_id":   h1.postID,
						"post2_id":   h2.postID,
					},
				})
			}
		}
	}
	return signals, nil
}

func orderedPair(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
