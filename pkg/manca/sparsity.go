package manca

// sparsity returns the signed cut size of an assignment: every edge whose
// endpoints sit in different clusters adds 1 when its weight is positive and
// subtracts 1 otherwise. Lower is better.
//
// With bothEndpoints set, each cut edge is counted once from each side, which
// doubles the value without changing how two assignments compare.
func sparsity(t *topology, assignment []int, bothEndpoints bool) int {
	total := 0
	for u, nbs := range t.neighbors {
		for i, v := range nbs {
			if assignment[u] == assignment[v] {
				continue
			}
			if !bothEndpoints && u > v {
				continue
			}
			if t.weights[u][i] > 0 {
				total++
			} else {
				total--
			}
		}
	}
	return total
}

// SparsityOf computes the sparsity of a labelled Graph. Nodes missing from
// labels are treated as their own singleton clusters.
func SparsityOf(g Graph, labels map[string]int, bothEndpoints bool) (int, error) {
	idx, err := NewNodeIndex(g.Nodes())
	if err != nil {
		return 0, err
	}
	topo, err := newTopology(g, idx)
	if err != nil {
		return 0, err
	}

	assignment := make([]int, idx.Len())
	next := 0
	for _, c := range labels {
		if c >= next {
			next = c + 1
		}
	}
	for p := 0; p < idx.Len(); p++ {
		if c, ok := labels[idx.ID(p)]; ok {
			assignment[p] = c
			continue
		}
		assignment[p] = next
		next++
	}
	return sparsity(topo, assignment, bothEndpoints), nil
}
