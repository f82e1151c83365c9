package detection

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
)

// edgeKey is a canonical (smaller id first) node pair.
type edgeKey [2]int64

func newEdgeKey(u, v int64) edgeKey {
	if u > v {
		u, v = v, u
	}
	return edgeKey{u, v}
}

type edgeAttrs struct {
	types    map[string]bool
	evidence map[string]map[string]any
}

// signalGraph is the weighted undirected account similarity graph for one
// window. The gonum graph carries node ids and accumulated edge weights;
// per-edge signal types and evidence live alongside it keyed by node pair.
type signalGraph struct {
	g        *simple.WeightedUndirectedGraph
	ids      map[string]int64
	accounts map[int64]string
	next     int64
	attrs    map[edgeKey]*edgeAttrs
}

func newSignalGraph() *signalGraph {
	return &signalGraph{
		g:        simple.NewWeightedUndirectedGraph(0, 0),
		ids:      make(map[string]int64),
		accounts: make(map[int64]string),
		attrs:    make(map[edgeKey]*edgeAttrs),
	}
}

func (sg *signalGraph) addAccount(accountID string) int64 {
	if id, ok := sg.ids[accountID]; ok {
		return id
	}
	id := sg.next
	sg.next++
	sg.ids[accountID] = id
	sg.accounts[id] = accountID
	sg.g.AddNode(simple.Node(id))
	return id
}

// addSignal adds or updates the edge for one extractor result. Weight
// accumulates across signals as weight x score; the signal type joins the
// edge's type set and its evidence replaces any earlier evidence recorded
// for the same type.
func (sg *signalGraph) addSignal(sig PairSignal, weight float64) {
	if sig.AccountA == "" || sig.AccountB == "" || sig.AccountA == sig.AccountB {
		return
	}
	u := sg.addAccount(sig.AccountA)
	v := sg.addAccount(sig.AccountB)
	add := weight * sig.Score

	key := newEdgeKey(u, v)
	attrs, ok := sg.attrs[key]
	if !ok {
		attrs = &edgeAttrs{
			types:    make(map[string]bool),
			evidence: make(map[string]map[string]any),
		}
		sg.attrs[key] = attrs
		sg.g.SetWeightedEdge(sg.g.NewWeightedEdge(simple.Node(key[0]), simple.Node(key[1]), add))
	} else {
		current, _ := sg.g.Weight(key[0], key[1])
		sg.g.SetWeightedEdge(sg.g.NewWeightedEdge(simple.Node(key[0]), simple.Node(key[1]), current+add))
	}
	attrs.types[sig.Type] = true
	attrs.evidence[sig.Type] = sig.Evidence
}

func (sg *signalGraph) nodeCount() int { return len(sg.ids) }

func (sg *signalGraph) edgeCount() int { return len(sg.attrs) }

// typeEdgeCount counts edges carrying the given signal type.
func (sg *signalGraph) typeEdgeCount(signalType string) int {
	count := 0
	for _, attrs := range sg.attrs {
		if attrs.types[signalType] {
			count++
		}
	}
	return count
}

func (sg *signalGraph) weight(key edgeKey) float64 {
	w, _ := sg.g.Weight(key[0], key[1])
	return w
}

// sortedEdgeKeys returns the graph's edges ordered by account pair for
// deterministic output.
func (sg *signalGraph) sortedEdgeKeys() []edgeKey {
	keys := make([]edgeKey, 0, len(sg.attrs))
	for key := range sg.attrs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a1, a2 := sg.accounts[keys[i][0]], sg.accounts[keys[i][1]]
		b1, b2 := sg.accounts[keys[j][0]], sg.accounts[keys[j][1]]
		if a1 > a2 {
			a1, a2 = a2, a1
		}
		if b1 > b2 {
			b1, b2 = b2, b1
		}
		if a1 != b1 {
			return a1 < b1
		}
		return a2 < b2
	})
	return keys
}

// subgraphStats computes, for the induced subgraph over members, the edge
// count, per-signal-type edge counts and per-node degree.
func (sg *signalGraph) subgraphStats(members map[int64]bool) (edgeCount int, typeCounts map[string]int, degree map[int64]int) {
	typeCounts = make(map[string]int)
	degree = make(map[int64]int)
	for key, attrs := range sg.attrs {
		if !members[key[0]] || !members[key[1]] {
			continue
		}
		edgeCount++
		degree[key[0]]++
		degree[key[1]]++
		for t := range attrs.types {
			typeCounts[t]++
		}
	}
	return edgeCount, typeCounts, degree
}
