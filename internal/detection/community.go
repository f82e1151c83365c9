package detection

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
)

// Cluster is one detected coordination community surviving the size and
// density filters.
type Cluster struct {
	ClusterID   string             `json:"cluster_id"`
	Members     []string           `json:"members"` // account ids, sorted
	Density     float64            `json:"density"`
	Size        int                `json:"size"`
	EdgeCount   int                `json:"edge_count"`
	PrimaryType string             `json:"primary_type"`
	Centrality  map[string]float64 `json:"centrality"` // account id -> degree centrality in subgraph
}

// detectClusters partitions the signal graph with Louvain modularity
// maximization and keeps communities passing the size and density filters.
// A failure inside community detection degrades to zero clusters; the window
// is still scored.
func (d *Detector) detectClusters(sg *signalGraph, windowStart time.Time) (clusters []Cluster) {
	if sg.nodeCount() < d.cfg.MinClusterSize {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Community detection failed, scoring window without clusters", "panic", r)
			clusters = nil
		}
	}()

	reduced := community.Modularize(sg.g, d.cfg.LouvainResolution, nil)
	communities := reduced.Communities()

	// Order communities by their lexically smallest member so repeated runs
	// over the same window walk them in the same order.
	sort.Slice(communities, func(i, j int) bool {
		return smallestMember(sg, communities[i]) < smallestMember(sg, communities[j])
	})

	for _, comm := range communities {
		size := len(comm)
		if size < d.cfg.MinClusterSize {
			continue
		}

		members := make(map[int64]bool, size)
		accountIDs := make([]string, 0, size)
		for _, node := range comm {
			members[node.ID()] = true
			accountIDs = append(accountIDs, sg.accounts[node.ID()])
		}
		sort.Strings(accountIDs)

		edgeCount, typeCounts, degree := sg.subgraphStats(members)
		possible := size * (size - 1) / 2
		density := 0.0
		if possible > 0 {
			density = float64(edgeCount) / float64(possible)
		}
		if density < d.cfg.MinClusterDensity {
			continue
		}

		centrality := make(map[string]float64, size)
		for id := range members {
			centrality[sg.accounts[id]] = float64(degree[id]) / float64(size-1)
		}

		clusters = append(clusters, Cluster{
			ClusterID:   newClusterID(windowStart),
			Members:     accountIDs,
			Density:     density,
			Size:        size,
			EdgeCount:   edgeCount,
			PrimaryType: primaryType(typeCounts),
			Centrality:  centrality,
		})
	}

	d.log.Debug("Community detection finished", "clusters", len(clusters))
	return clusters
}

func smallestMember(sg *signalGraph, comm []graph.Node) string {
	smallest := ""
	for _, node := range comm {
		account := sg.accounts[node.ID()]
		if smallest == "" || account < smallest {
			smallest = account
		}
	}
	return smallest
}

// newClusterID builds an id from the window start plus a random suffix, so
// ids stay unique across re-runs and backfills of the same window.
func newClusterID(windowStart time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_cluster_%s", windowStart.UTC().Format("20060102_1504"), suffix)
}

// primaryType picks the most frequent edge-type tag, smallest name winning
// ties so the choice is deterministic.
func primaryType(typeCounts map[string]int) string {
	if len(typeCounts) == 0 {
		return "unknown"
	}
	names := make([]string, 0, len(typeCounts))
	for name := range typeCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	best := names[0]
	for _, name := range names[1:] {
		if typeCounts[name] > typeCounts[best] {
			best = name
		}
	}
	return best
}
