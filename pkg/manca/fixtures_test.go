package manca

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGraph is a named fixture network.
type TestGraph struct {
	Name        string
	Network     *Network
	Description string
}

// twoTriangles builds {a,b,c} and {d,e,f} joined by c-d with the given weight.
func twoTriangles(t testing.TB, bridge float64) *Network {
	t.Helper()
	net := NewNetwork()
	edges := []struct {
		from, to string
		weight   float64
	}{
		{"a", "b", 1}, {"b", "c", 1}, {"a", "c", 1},
		{"d", "e", 1}, {"e", "f", 1}, {"d", "f", 1},
		{"c", "d", bridge},
	}
	for _, e := range edges {
		require.NoError(t, net.AddEdge(e.from, e.to, e.weight))
	}
	return net
}

// pathGraph builds a-b (2) and b-c (3).
func pathGraph(t testing.TB) *Network {
	t.Helper()
	net := NewNetwork()
	require.NoError(t, net.AddEdge("a", "b", 2))
	require.NoError(t, net.AddEdge("b", "c", 3))
	return net
}

func createTestGraphs(t testing.TB) []TestGraph {
	t.Helper()

	single := NewNetwork()
	single.AddNode("n1")

	pair := NewNetwork()
	require.NoError(t, pair.AddEdge("n1", "n2", 1))

	unweighted := NewNetwork()
	require.NoError(t, unweighted.AddUnweightedEdge("n1", "n2"))
	require.NoError(t, unweighted.AddUnweightedEdge("n2", "n3"))

	disjoint := NewNetwork()
	require.NoError(t, disjoint.AddEdge("n1", "n2", 1))
	require.NoError(t, disjoint.AddEdge("n3", "n4", 1))

	return []TestGraph{
		{Name: "SingleNode", Network: single, Description: "one isolated node"},
		{Name: "Pair", Network: pair, Description: "two nodes, one edge"},
		{Name: "Unweighted", Network: unweighted, Description: "path without weight attributes"},
		{Name: "Disjoint", Network: disjoint, Description: "two separate edges"},
		{Name: "Path", Network: pathGraph(t), Description: "weighted path of three nodes"},
		{Name: "TwoTriangles", Network: twoTriangles(t, 1), Description: "two triangles joined by a positive bridge"},
		{Name: "TwoTrianglesNegative", Network: twoTriangles(t, -1), Description: "two triangles joined by a negative bridge"},
	}
}

// topologyOf indexes a network for the unexported helpers.
func topologyOf(t testing.TB, g Graph) (*NodeIndex, *topology) {
	t.Helper()
	idx, err := NewNodeIndex(g.Nodes())
	require.NoError(t, err)
	topo, err := newTopology(g, idx)
	require.NoError(t, err)
	return idx, topo
}
