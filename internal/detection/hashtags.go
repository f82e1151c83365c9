package detection

import (
	"regexp"
	"sort"
	"strings"

	"github.com/murmurwatch/murmur-backend/internal/types"
)

var hashtagTokenPattern = regexp.MustCompile(`#(\w+)`)

// extractHashtags returns the lower-cased hashtag set of a post, without the
// leading # symbol.
func extractHashtags(text string) map[string]bool {
	if text == "" {
		return nil
	}
	tags := make(map[string]bool)
	for _, m := range hashtagTokenPattern.FindAllStringSubmatch(text, -1) {
		tags[strings.ToLower(m[1])] = true
	}
	return tags
}

// findHashtagOverlapPairs emits a pair for every cross-account post pair
// sharing at least minOverlap hashtags, scored by Jaccard similarity of the
// two hashtag sets.
func findHashtagOverlapPairs(posts []*types.Post, minOverlap int) ([]PairSignal, error) {
	if len(posts) < 2 {
		return nil, nil
	}

	type tagged struct {
		post *types.Post
		tags map[string]bool
	}
	var candidates []tagged
	for _, p := range posts {
		tags := extractHashtags(p.Content)
		if len(tags) >= minOverlap {
			candidates = append(candidates, tagged{post: p, tags: tags})
		}
	}
	if len(candidates) < 2 {
		return nil, nil
	}

	var signals []PairSignal
	for i := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[i].post.AccountID == candidates[j].post.AccountID {
				continue
			}
			shared := intersect(candidates[i].tags, candidates[j].tags)
			if len(shared) < minOverlap {
				continue
			}
			union := len(candidates[i].tags) + len(candidates[j].tags) - len(shared)
			score := 0.0
			if union > 0 {
				score = float64(len(shared)) / float64(union)
			}
			sort.Strings(shared)
			signals = append(signals, PairSignal{
				AccountA: candidates[i].post.AccountID,
				AccountB: candidates[j].post.AccountID,
				Type:     SignalHashtagOverlap,
				Score:    score,
				Evidence: map[string]any{
					"shared_hashtags": shared,
					"overlap_count":   len(shared),
					"post1_id":        candidates[i].post.ID,
					"post2_id":        candidates[j].post.ID,
				},
			})
		}
	}
	return signals, nil
}

func intersect(a, b map[string]bool) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	var shared []string
	for tag := range a {
		if b[tag] {
			shared = append(shared, tag)
		}
	}
	return shared
}
