package manca

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// modularity returns Newman's modularity of the assignment over the
// positive-weight edges only; gonum's Q is undefined for negative weights.
// It returns 0 when no positive edge exists.
func modularity(t *topology, assignment []int) float64 {
	g := simple.NewWeightedUndirectedGraph(0, 0)
	for u := range t.neighbors {
		g.AddNode(simple.Node(u))
	}
	positive := false
	for u, nbs := range t.neighbors {
		for i, v := range nbs {
			if u >= v || t.weights[u][i] <= 0 {
				continue
			}
			g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(u), T: simple.Node(v), W: t.weights[u][i]})
			positive = true
		}
	}
	if !positive {
		return 0
	}

	q := community.Q(g, communitiesOf(assignment), 1)
	if math.IsNaN(q) {
		return 0
	}
	return q
}

// communitiesOf groups node positions by cluster id, ordered by id.
func communitiesOf(assignment []int) [][]graph.Node {
	byCluster := make(map[int][]graph.Node)
	for node, c := range assignment {
		byCluster[c] = append(byCluster[c], simple.Node(node))
	}
	ids := make([]int, 0, len(byCluster))
	for c := range byCluster {
		ids = append(ids, c)
	}
	sort.Ints(ids)

	out := make([][]graph.Node, len(ids))
	for i, c := range ids {
		out[i] = byCluster[c]
	}
	return out
}

// componentCount returns the number of connected components.
func componentCount(t *topology) int {
	g := simple.NewUndirectedGraph()
	for u := range t.neighbors {
		g.AddNode(simple.Node(u))
	}
	for u, nbs := range t.neighbors {
		for _, v := range nbs {
			if u < v {
				g.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
			}
		}
	}
	return len(topo.ConnectedComponents(g))
}
