package detection

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/murmurwatch/murmur-backend/internal/logger"
	"github.com/murmurwatch/murmur-backend/internal/types"
)

// Detector runs the per-window coordination analysis: signal extraction,
// graph fusion, community detection and scoring. It holds no mutable state
// between windows and never touches storage; callers own persistence. A
// Detector is safe to share as long as windows for the same platform are
// analyzed one at a time.
type Detector struct {
	cfg CoordinationConfig
	log *logger.Logger
}

func NewDetector(cfg CoordinationConfig, log *logger.Logger) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg, log: log.With("component", "Detector")}, nil
}

func (d *Detector) Config() CoordinationConfig { return d.cfg }

// EdgeResult is one fused account pair ready for persistence. AccountA sorts
// before AccountB.
type EdgeResult struct {
	AccountA string                    `json:"account_a"`
	AccountB string                    `json:"account_b"`
	Weight   float64                   `json:"weight"`
	Types    []string                  `json:"types"` // sorted
	Evidence map[string]map[string]any `json:"evidence,omitempty"`
}

// Result is the full outcome of analyzing one (platform, window).
type Result struct {
	Platform    string    `json:"platform"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`

	CoordinationScore float64 `json:"coordination_score"` // 0-100
	TotalPosts        int     `json:"total_posts"`
	CoordinatedPosts  int     `json:"coordinated_posts"`
	OrganicPosts      int     `json:"organic_posts"`

	Clusters  []Cluster    `json:"clusters"`
	Edges     []EdgeResult `json:"edges"`
	EdgeCount int          `json:"edge_count"`

	SyncRate           float64 `json:"sync_rate"`
	URLSharingRate     float64 `json:"url_sharing_rate"`
	TextSimilarityRate float64 `json:"text_similarity_rate"`
}

// AnalyzeWindow runs the whole pipeline over the posts of one closed window.
// posts may contain both originals and comments; only originals become graph
// nodes, comments feed the reply-pattern signal. Windows with too few posts
// or no detected edges come back as a zero-scored result with the post
// counts preserved.
func (d *Detector) AnalyzeWindow(platform string, windowStart, windowEnd time.Time, posts []*types.Post) *Result {
	var originals, comments []*types.Post
	for _, p := range posts {
		if p.IsOriginal() {
			originals = append(originals, p)
		} else {
			comments = append(comments, p)
		}
	}
	total := len(originals)

	if total < d.cfg.MinClusterSize {
		d.log.Info("Not enough posts for analysis", "platform", platform, "window_start", windowStart, "posts", total)
		return d.zeroResult(platform, windowStart, windowEnd, total)
	}

	sg := d.buildGraph(originals, comments)
	if sg.edgeCount() == 0 {
		d.log.Info("No coordination edges detected", "platform", platform, "window_start", windowStart, "posts", total)
		return d.zeroResult(platform, windowStart, windowEnd, total)
	}
	d.log.Info("Built similarity graph", "platform", platform, "nodes", sg.nodeCount(), "edges", sg.edgeCount())

	clusters := d.detectClusters(sg, windowStart)

	return d.calculateMetrics(platform, windowStart, windowEnd, originals, sg, clusters)
}

// buildGraph runs every signal extractor and fuses the results into one
// weighted graph. A single extractor failing is logged and skipped; the
// remaining signals still produce a usable graph.
func (d *Detector) buildGraph(originals, comments []*types.Post) *signalGraph {
	sg := newSignalGraph()
	for _, p := range originals {
		sg.addAccount(p.AccountID)
	}

	extractors := []struct {
		name   string
		weight float64
		run    func() ([]PairSignal, error)
	}{
		{SignalSynchronizedPosting, d.cfg.SyncWeight, func() ([]PairSignal, error) {
			return findSynchronizedPairs(originals, d.cfg.SyncWindowSeconds)
		}},
		{SignalURLSharing, d.cfg.URLWeight, func() ([]PairSignal, error) {
			return findURLSharingPairs(originals)
		}},
		{SignalTextSimilarity, d.cfg.TextWeight, func() ([]PairSignal, error) {
			return findTextSimilarPairs(originals, d.cfg)
		}},
		{SignalHashtagOverlap, d.cfg.HashtagWeight, func() ([]PairSignal, error) {
			return findHashtagOverlapPairs(originals, d.cfg.MinHashtagOverlap)
		}},
		{SignalReplyPattern, d.cfg.ReplyPatternWeight, func() ([]PairSignal, error) {
			return findReplyPatternPairs(comments)
		}},
	}

	for _, ex := range extractors {
		signals, err := runExtractor(ex.run)
		if err != nil {
			d.log.Error("Signal extractor failed, continuing without it", "extractor", ex.name, "error", err)
			continue
		}
		for _, sig := range signals {
			sg.addSignal(sig, ex.weight)
		}
	}
	return sg
}

func runExtractor(run func() ([]PairSignal, error)) (signals []PairSignal, err error) {
	defer func() {
		if r := recover(); r != nil {
			signals = nil
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return run()
}

func (d *Detector) calculateMetrics(platform string, windowStart, windowEnd time.Time, originals []*types.Post, sg *signalGraph, clusters []Cluster) *Result {
	total := len(originals)

	clustered := make(map[string]bool)
	for _, c := range clusters {
		for _, member := range c.Members {
			clustered[member] = true
		}
	}
	coordinated := 0
	for _, p := range originals {
		if clustered[p.AccountID] {
			coordinated++
		}
	}
	organic := total - coordinated

	clusterCoverage := 0.0
	if total > 0 {
		clusterCoverage = float64(coordinated) / float64(total)
	}
	avgDensity := 0.0
	for _, c := range clusters {
		avgDensity += c.Density
	}
	if len(clusters) > 0 {
		avgDensity /= float64(len(clusters))
	}

	// Each edge involves two posts, hence the factor 2. The rates are
	// deliberately uncapped and can exceed 1 on dense graphs.
	syncRate := edgeRate(sg.typeEdgeCount(SignalSynchronizedPosting), total)
	urlRate := edgeRate(sg.typeEdgeCount(SignalURLSharing), total)
	textRate := edgeRate(sg.typeEdgeCount(SignalTextSimilarity), total)

	score := 100 * (clusterCoverage*d.cfg.ClusterCoverageWeight +
		avgDensity*d.cfg.DensityWeight +
		syncRate*d.cfg.SyncRateWeight)
	score = math.Min(score, 100)

	return &Result{
		Platform:           platform,
		WindowStart:        windowStart,
		WindowEnd:          windowEnd,
		CoordinationScore:  score,
		TotalPosts:         total,
		CoordinatedPosts:   coordinated,
		OrganicPosts:       organic,
		Clusters:           clusters,
		Edges:              d.exportEdges(sg),
		EdgeCount:          sg.edgeCount(),
		SyncRate:           syncRate,
		URLSharingRate:     urlRate,
		TextSimilarityRate: textRate,
	}
}

func edgeRate(edges, totalPosts int) float64 {
	if totalPosts == 0 {
		return 0
	}
	return float64(edges*2) / float64(totalPosts)
}

func (d *Detector) exportEdges(sg *signalGraph) []EdgeResult {
	edges := make([]EdgeResult, 0, sg.edgeCount())
	for _, key := range sg.sortedEdgeKeys() {
		attrs := sg.attrs[key]
		a, b := sg.accounts[key[0]], sg.accounts[key[1]]
		if a > b {
			a, b = b, a
		}
		edgeTypes := make([]string, 0, len(attrs.types))
		for t := range attrs.types {
			edgeTypes = append(edgeTypes, t)
		}
		sort.Strings(edgeTypes)
		evidence := make(map[string]map[string]any, len(attrs.evidence))
		for t, ev := range attrs.evidence {
			evidence[t] = ev
		}
		edges = append(edges, EdgeResult{
			AccountA: a,
			AccountB: b,
			Weight:   sg.weight(key),
			Types:    edgeTypes,
			Evidence: evidence,
		})
	}
	return edges
}

func (d *Detector) zeroResult(platform string, windowStart, windowEnd time.Time, totalPosts int) *Result {
	return &Result{
		Platform:     platform,
		WindowStart:  windowStart,
		WindowEnd:    windowEnd,
		TotalPosts:   totalPosts,
		OrganicPosts: totalPosts,
	}
}
