package detection

import (
	"sort"
	"time"

	"github.com/murmurwatch/murmur-backend/internal/types"
)

// Signal type tags carried on graph edges and persisted with clusters and
// edge evidence.
const (
	SignalSynchronizedPosting = "synchronized_posting"
	SignalURLSharing          = "url"
	SignalTextSimilarity      = "text"
	SignalHashtagOverlap      = "hashtag"
	SignalReplyPattern        = "reply_pattern"
)

// PairSignal is the common extractor output: one coordination signal between
// two distinct accounts, with a similarity score in [0,1] and supporting
// evidence.
type PairSignal struct {
	AccountA string
	AccountB string
	Type     string
	Score    float64
	Evidence map[string]any
}

// findSynchronizedPairs emits a pair for every two posts by different
// accounts created within windowSeconds of each other. Posts are scanned in
// time order and each post's forward scan stops at the first post outside the
// window, which is what makes the quadratic worst case acceptable on real
// traffic.
func findSynchronizedPairs(posts []*types.Post, windowSeconds int) ([]PairSignal, error) {
	if len(posts) < 2 {
		return nil, nil
	}

	sorted := make([]*types.Post, len(posts))
	copy(sorted, posts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	window := time.Duration(windowSeconds) * time.Second

	var signals []PairSignal
	for i, p1 := range sorted {
		for _, p2 := range sorted[i+1:] {
			diff := p2.CreatedAt.Sub(p1.CreatedAt)
			if diff > window {
				break
			}
			if p1.AccountID == p2.AccountID {
				continue
			}
			signals = append(signals, PairSignal{
				AccountA: p1.AccountID,
				AccountB: p2.AccountID,
				Type:     SignalSynchronizedPosting,
				Score:    1.0,
				Evidence: map[string]any{
					"time_diff_seconds": diff.Seconds(),
					"post1_id":          p1.ID,
					"post2_id":          p2.ID,
				},
			})
		}
	}
	return signals, nil
}

// findReplyPatternPairs groups comments by parent post and emits a pair for
// every two distinct accounts commenting under the same parent.
func findReplyPatternPairs(comments []*types.Post) ([]PairSignal, error) {
	byParent := make(map[string][]*types.Post)
	for _, c := range comments {
		if c.ParentID == nil || *c.ParentID == "" {
			continue
		}
		byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
	}

	parents := make([]string, 0, len(byParent))
	for parent := range byParent {
		parents = append(parents, parent)
	}
	sort.Strings(parents)

	var signals []PairSignal
	for _, parent := range parents {
		thread := byParent[parent]
		if len(thread) < 2 {
			continue
		}
		seen := make(map[string]bool, len(thread))
		var accounts []string
		for _, c := range thread {
			if !seen[c.AccountID] {
				seen[c.AccountID] = true
				accounts = append(accounts, c.AccountID)
			}
		}
		sort.Strings(accounts)
		for i, a1 := range accounts {
			for _, a2 := range accounts[i+1:] {
				signals = append(signals, PairSignal{
					AccountA: a1,
					AccountB: a2,
					Type:     SignalReplyPattern,
					Score:    1.0,
					Evidence: map[string]any{
						"parent_id":     parent,
						"comment_count": len(thread),
					},
				})
			}
		}
	}
	return signals, nil
}
