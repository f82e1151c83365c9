package detection

import (
	"github.com/murmurwatch/murmur-backend/internal/types"
)

const textPreviewLen = 100

// findTextSimilarPairs vectorizes the window's posts with a freshly fit
// TF-IDF model and emits a pair for every cross-account post pair whose
// cosine similarity reaches the threshold.
func findTextSimilarPairs(posts []*types.Post, cfg CoordinationConfig) ([]PairSignal, error) {
	if len(posts) < 2 {
		return nil, nil
	}

	type candidate struct {
		post      *types.Post
		processed string
	}
	var candidates []candidate
	for _, p := range posts {
		processed := preprocessText(p.Content)
		if len(processed) >= cfg.MinTextLength {
			candidates = append(candidates, candidate{post: p, processed: processed})
		}
	}
	if len(candidates) < 2 {
		return nil, nil
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.processed
	}
	vecs := newTFIDFVectorizer().FitTransform(docs)

	var signals []PairSignal
	for i := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[i].post.AccountID == candidates[j].post.AccountID {
				continue
			}
			score := cosine(vecs[i], vecs[j])
			if score < cfg.TextSimilarityThreshold {
				continue
			}
			signals = append(signals, PairSignal{
				AccountA: candidates[i].post.AccountID,
				AccountB: candidates[j].post.AccountID,
				Type:     SignalTextSimilarity,
				Score:    score,
				Evidence: map[string]any{
					"post1_id":      candidates[i].post.ID,
					"post2_id":      candidates[j].post.ID,
					"text1_preview": preview(candidates[i].post.Content),
					"text2_preview": preview(candidates[j].post.Content),
				},
			})
		}
	}
	return signals, nil
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= textPreviewLen {
		return s
	}
	return string(runes[:textPreviewLen])
}
