package detection

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	urlTokenPattern = regexp.MustCompile(`(?i)https?://\S+`)
	hashtagPattern  = regexp.MustCompile(`#\w+`)
	mentionPattern  = regexp.MustCompile(`@\w+`)
)

// preprocessText prepares post content for vectorization: lower-case, strip
// URLs, hashtags and mentions, collapse whitespace.
func preprocessText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(text)
	text = urlTokenPattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// stopWords is the common-English filter applied before vectorization.
var stopWords = func() map[string]bool {
	words := strings.Fields(`a about above after again against all am an and any are as at be because been
		before being below between both but by cannot could did do does doing down during each few for from
		further had has have having he her here hers herself him himself his how i if in into is it its itself
		just me more most my myself no nor not now of off on once only or other our ours ourselves out over own
		same she should so some such than that the their theirs them themselves then there these they this those
		through to too under until up very was we were what when where which while who whom why will with you
		your yours yourself yourselves`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

var wordPattern = regexp.MustCompile(`\w+`)

// tokenize splits preprocessed text into stop-word-filtered unigrams plus
// bigrams of adjacent surviving tokens.
func tokenize(text string) []string {
	raw := wordPattern.FindAllString(text, -1)
	unigrams := make([]string, 0, len(raw))
	for _, tok := range raw {
		if !stopWords[tok] {
			unigrams = append(unigrams, tok)
		}
	}
	terms := make([]string, 0, 2*len(unigrams))
	terms = append(terms, unigrams...)
	for i := 0; i+1 < len(unigrams); i++ {
		terms = append(terms, unigrams[i]+" "+unigrams[i+1])
	}
	return terms
}

// sparseVec is an L2-normalized sparse vector with indices sorted ascending.
type sparseVec struct {
	idx []int
	val []float64
}

// tfidfVectorizer builds a vocabulary and inverse-document-frequency table
// from one window's documents. A vectorizer is fit fresh per window and
// discarded afterwards; vocabulary and scale are meaningless across windows.
type tfidfVectorizer struct {
	maxFeatures int
	maxDocRatio float64
}

func newTFIDFVectorizer() *tfidfVectorizer {
	return &tfidfVectorizer{
		maxFeatures: 5000,
		maxDocRatio: 0.95,
	}
}

// FitTransform fits the vocabulary on docs and returns one normalized TF-IDF
// vector per document. Documents whose terms were all pruned come back as
// empty vectors.
func (v *tfidfVectorizer) FitTransform(docs []string) []sparseVec {
	n := len(docs)
	tokenized := make([][]string, n)
	docFreq := make(map[string]int)
	termFreq := make(map[string]int)
	for i, doc := range docs {
		terms := tokenize(doc)
		tokenized[i] = terms
		inDoc := make(map[string]bool, len(terms))
		for _, t := range terms {
			termFreq[t]++
			if !inDoc[t] {
				inDoc[t] = true
				docFreq[t]++
			}
		}
	}

	// Prune terms that appear in more than maxDocRatio of the documents.
	// The cap is the ceiling of ratio*n so tiny windows (where every term
	// trivially appears everywhere) are not pruned to an empty vocabulary.
	maxDoc := int(math.Ceil(v.maxDocRatio * float64(n)))
	if maxDoc < 1 {
		maxDoc = 1
	}
	kept := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df <= maxDoc {
			kept = append(kept, term)
		}
	}

	// Cap the vocabulary at the most frequent terms, term name as tie-break.
	sort.Slice(kept, func(i, j int) bool {
		if termFreq[kept[i]] != termFreq[kept[j]] {
			return termFreq[kept[i]] > termFreq[kept[j]]
		}
		return kept[i] < kept[j]
	})
	if len(kept) > v.maxFeatures {
		kept = kept[:v.maxFeatures]
	}

	vocab := make(map[string]int, len(kept))
	idf := make([]float64, len(kept))
	for i, term := range kept {
		vocab[term] = i
		idf[i] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}

	vecs := make([]sparseVec, n)
	for i, terms := range tokenized {
		counts := make(map[int]float64)
		for _, t := range terms {
			if j, ok := vocab[t]; ok {
				counts[j]++
			}
		}
		if len(counts) == 0 {
			continue
		}
		vec := sparseVec{
			idx: make([]int, 0, len(counts)),
			val: make([]float64, 0, len(counts)),
		}
		for j := range counts {
			vec.idx = append(vec.idx, j)
		}
		sort.Ints(vec.idx)
		var norm float64
		for _, j := range vec.idx {
			w := counts[j] * idf[j]
			vec.val = append(vec.val, w)
			norm += w * w
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for k := range vec.val {
				vec.val[k] /= norm
			}
		}
		vecs[i] = vec
	}
	return vecs
}

// cosine computes the cosine similarity of two normalized sparse vectors via
// a merge-style sparse dot product.
func cosine(a, b sparseVec) float64 {
	var dot float64
	i, j := 0, 0
	for i < len(a.idx) && j < len(b.idx) {
		switch {
		case a.idx[i] == b.idx[j]:
			dot += a.val[i] * b.val[j]
			i++
			j++
		case a.idx[i] < b.idx[j]:
			i++
		default:
			j++
		}
	}
	return dot
}
