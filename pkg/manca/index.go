package manca

import (
	"fmt"
)

// NodeIndex maps node ids to dense positions 0..N-1 and back.
// It is built once per run and never rebuilt.
type NodeIndex struct {
	toPosition map[string]int
	toID       []string
}

// NewNodeIndex builds the index from the graph's node ordering.
func NewNodeIndex(ids []string) (*NodeIndex, error) {
	idx := &NodeIndex{
		toPosition: make(map[string]int, len(ids)),
		toID:       make([]string, len(ids)),
	}
	for i, id := range ids {
		if _, dup := idx.toPosition[id]; dup {
			return nil, fmt.Errorf("duplicate node id %q", id)
		}
		idx.toPosition[id] = i
		idx.toID[i] = id
	}
	return idx, nil
}

// Len returns the number of indexed nodes.
func (idx *NodeIndex) Len() int { return len(idx.toID) }

// Position returns the dense position of id.
func (idx *NodeIndex) Position(id string) (int, bool) {
	p, ok := idx.toPosition[id]
	return p, ok
}

// ID returns the node id at position p.
func (idx *NodeIndex) ID(p int) string { return idx.toID[p] }

// topology is the position-indexed adjacency read from a Graph at the start
// of a run. Missing weights are already resolved to 1.0.
type topology struct {
	neighbors [][]int
	weights   [][]float64
	missing   [][2]int // edges without a weight attribute, u < v
}

func newTopology(g Graph, idx *NodeIndex) (*topology, error) {
	n := idx.Len()
	t := &topology{
		neighbors: make([][]int, n),
		weights:   make([][]float64, n),
	}
	for u := 0; u < n; u++ {
		for _, nbID := range g.Neighbors(idx.ID(u)) {
			v, ok := idx.Position(nbID)
			if !ok {
				return nil, fmt.Errorf("%w: %q (neighbor of %q)", ErrUnknownNode, nbID, idx.ID(u))
			}
			w, ok := g.Weight(idx.ID(u), nbID)
			if !ok {
				w = 1.0
				if u < v {
					t.missing = append(t.missing, [2]int{u, v})
				}
			}
			t.neighbors[u] = append(t.neighbors[u], v)
			t.weights[u] = append(t.weights[u], w)
		}
	}
	return t, nil
}

func (t *topology) numNodes() int { return len(t.neighbors) }

func (t *topology) numEdges() int {
	total := 0
	for u, nbs := range t.neighbors {
		for _, v := range nbs {
			if u < v {
				total++
			}
		}
	}
	return total
}
