package detection

import (
	"math"
	"testing"
)

func TestSignalGraphAccumulatesWeight(t *testing.T) {
	sg := newSignalGraph()
	sg.addSignal(PairSignal{
		AccountA: "alice", AccountB: "bob",
		Type: SignalSynchronizedPosting, Score: 1.0,
		Evidence: map[string]any{"time_diff_seconds": 12.0},
	}, 1.0)
	sg.addSignal(PairSignal{
		AccountA: "bob", AccountB: "alice", // reversed order, same edge
		Type: SignalURLSharing, Score: 1.0,
		Evidence: map[string]any{"shared_url": "https://example.com/x"},
	}, 1.5)

	if sg.edgeCount() != 1 {
		t.Fatalf("edgeCount = %d, want 1", sg.edgeCount())
	}
	key := newEdgeKey(sg.ids["alice"], sg.ids["bob"])
	if w := sg.weight(key); math.Abs(w-2.5) > 1e-9 {
		t.Errorf("weight = %v, want 2.5", w)
	}
	attrs := sg.attrs[key]
	if !attrs.types[SignalSynchronizedPosting] || !attrs.types[SignalURLSharing] {
		t.Errorf("types = %v, want both signals", attrs.types)
	}
	if attrs.evidence[SignalURLSharing]["shared_url"] != "https://example.com/x" {
		t.Errorf("url evidence = %v", attrs.evidence[SignalURLSharing])
	}
}

func TestSignalGraphEvidenceOverwritePerType(t *testing.T) {
	sg := newSignalGraph()
	sg.addSignal(PairSignal{
		AccountA: "alice", AccountB: "bob",
		Type: SignalTextSimilarity, Score: 0.8,
		Evidence: map[string]any{"post1_id": "old"},
	}, 1.0)
	sg.addSignal(PairSignal{
		AccountA: "alice", AccountB: "bob",
		Type: SignalTextSimilarity, Score: 0.9,
		Evidence: map[string]any{"post1_id": "new"},
	}, 1.0)

	key := newEdgeKey(sg.ids["alice"], sg.ids["bob"])
	if w := sg.weight(key); math.Abs(w-1.7) > 1e-9 {
		t.Errorf("weight = %v, want 1.7 (both signals accumulated)", w)
	}
	if got := sg.attrs[key].evidence[SignalTextSimilarity]["post1_id"]; got != "new" {
		t.Errorf("evidence post1_id = %v, want latest", got)
	}
}

func TestSignalGraphRejectsSelfAndEmpty(t *testing.T) {
	sg := newSignalGraph()
	sg.addSignal(PairSignal{AccountA: "alice", AccountB: "alice", Type: SignalURLSharing, Score: 1}, 1.0)
	sg.addSignal(PairSignal{AccountA: "", AccountB: "bob", Type: SignalURLSharing, Score: 1}, 1.0)
	if sg.edgeCount() != 0 {
		t.Fatalf("edgeCount = %d, want 0", sg.edgeCount())
	}
}

func TestSignalGraphTypeEdgeCount(t *testing.T) {
	sg := newSignalGraph()
	sg.addSignal(PairSignal{AccountA: "a", AccountB: "b", Type: SignalSynchronizedPosting, Score: 1}, 1.0)
	sg.addSignal(PairSignal{AccountA: "a", AccountB: "c", Type: SignalSynchronizedPosting, Score: 1}, 1.0)
	sg.addSignal(PairSignal{AccountA: "a", AccountB: "b", Type: SignalURLSharing, Score: 1}, 1.5)

	if n := sg.typeEdgeCount(SignalSynchronizedPosting); n != 2 {
		t.Errorf("sync edges = %d, want 2", n)
	}
	if n := sg.typeEdgeCount(SignalURLSharing); n != 1 {
		t.Errorf("url edges = %d, want 1", n)
	}
	if n := sg.typeEdgeCount(SignalHashtagOverlap); n != 0 {
		t.Errorf("hashtag edges = %d, want 0", n)
	}
}

func TestSignalGraphSubgraphStats(t *testing.T) {
	sg := newSignalGraph()
	sg.addSignal(PairSignal{AccountA: "a", AccountB: "b", Type: SignalSynchronizedPosting, Score: 1}, 1.0)
	sg.addSignal(PairSignal{AccountA: "b", AccountB: "c", Type: SignalSynchronizedPosting, Score: 1}, 1.0)
	sg.addSignal(PairSignal{AccountA: "a", AccountB: "c", Type: SignalURLSharing, Score: 1}, 1.5)
	sg.addSignal(PairSignal{AccountA: "c", AccountB: "d", Type: SignalSynchronizedPosting, Score: 1}, 1.0)

	members := map[int64]bool{sg.ids["a"]: true, sg.ids["b"]: true, sg.ids["c"]: true}
	edgeCount, typeCounts, degree := sg.subgraphStats(members)
	if edgeCount != 3 {
		t.Errorf("edgeCount = %d, want 3 (edge to d excluded)", edgeCount)
	}
	if typeCounts[SignalSynchronizedPosting] != 2 || typeCounts[SignalURLSharing] != 1 {
		t.Errorf("typeCounts = %v", typeCounts)
	}
	for _, account := range []string{"a", "b", "c"} {
		if degree[sg.ids[account]] != 2 {
			t.Errorf("degree[%s] = %d, want 2", account, degree[sg.ids[account]])
		}
	}
}
