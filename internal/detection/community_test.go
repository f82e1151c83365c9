package detection

import (
	"regexp"
	"testing"
	"time"
)

func TestPrimaryType(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int
		want   string
	}{
		{"empty", nil, "unknown"},
		{"single", map[string]int{SignalURLSharing: 3}, SignalURLSharing},
		{"majority wins", map[string]int{SignalURLSharing: 2, SignalTextSimilarity: 5}, SignalTextSimilarity},
		{"tie breaks lexically", map[string]int{"url": 2, "text": 2}, "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := primaryType(tt.counts); got != tt.want {
				t.Errorf("primaryType(%v) = %q, want %q", tt.counts, got, tt.want)
			}
		})
	}
}

func TestNewClusterID(t *testing.T) {
	start := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	id := newClusterID(start)
	pattern := regexp.MustCompile(`^20250601_1400_cluster_[0-9a-f]{8}$`)
	if !pattern.MatchString(id) {
		t.Errorf("cluster id %q does not match expected shape", id)
	}
	if id == newClusterID(start) {
		t.Error("cluster ids for the same window should differ")
	}
}

func TestDetectClustersClique(t *testing.T) {
	d := newTestDetector(t)
	sg := newSignalGraph()
	// A four-node clique: one community, density 1.
	for _, pair := range [][2]string{{"a", "b"}, {"a", "c"}, {"a", "d"}, {"b", "c"}, {"b", "d"}, {"c", "d"}} {
		sg.addSignal(PairSignal{AccountA: pair[0], AccountB: pair[1], Type: SignalSynchronizedPosting, Score: 1}, 1.0)
	}
	clusters := d.detectClusters(sg, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	c := clusters[0]
	if c.Size != 4 || c.Density != 1.0 || c.EdgeCount != 6 {
		t.Errorf("cluster = %+v, want complete graph of 4", c)
	}
	if c.PrimaryType != SignalSynchronizedPosting {
		t.Errorf("primary type = %q", c.PrimaryType)
	}
	for _, member := range c.Members {
		if c.Centrality[member] != 1.0 {
			t.Errorf("centrality[%s] = %v, want 1.0", member, c.Centrality[member])
		}
	}
}

func TestDetectClustersTooSmallGraph(t *testing.T) {
	d := newTestDetector(t)
	sg := newSignalGraph()
	sg.addSignal(PairSignal{AccountA: "a", AccountB: "b", Type: SignalURLSharing, Score: 1}, 1.5)
	if clusters := d.detectClusters(sg, time.Now()); clusters != nil {
		t.Fatalf("got %d clusters from a two-node graph, want none", len(clusters))
	}
}
