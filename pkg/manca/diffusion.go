package manca

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Affinity is the accumulated pairwise diffusion strength between nodes.
// It only ever grows by addition and stays symmetric.
type Affinity struct {
	m *mat.SymDense
}

// NewAffinity returns an n×n zero matrix.
func NewAffinity(n int) *Affinity {
	return &Affinity{m: mat.NewSymDense(n, nil)}
}

// Add adds v to cell (i, j) and its mirror (j, i). On the diagonal both
// additions land on the same cell.
func (a *Affinity) Add(i, j int, v float64) {
	if i == j {
		a.m.SetSym(i, i, a.m.At(i, i)+2*v)
		return
	}
	a.m.SetSym(i, j, a.m.At(i, j)+v)
}

// At returns cell (i, j).
func (a *Affinity) At(i, j int) float64 { return a.m.At(i, j) }

// Len returns the matrix dimension.
func (a *Affinity) Len() int { return a.m.SymmetricDim() }

// Matrix returns a read-only view for oracles and scorers.
func (a *Affinity) Matrix() mat.Symmetric { return a.m }

// Clone returns an independent copy.
func (a *Affinity) Clone() *Affinity {
	c := mat.NewSymDense(a.Len(), nil)
	c.CopySym(a.m)
	return &Affinity{m: c}
}

// frontierEntry is one propagated contribution of a diffusion wavefront.
type frontierEntry struct {
	node      int
	magnitude float64
}

// Diffuser spreads weight from random seed nodes into an Affinity.
type Diffuser struct {
	topo     *topology
	affinity *Affinity
	rng      *rand.Rand
}

func newDiffuser(topo *topology, affinity *Affinity, rng *rand.Rand) *Diffuser {
	return &Diffuser{topo: topo, affinity: affinity, rng: rng}
}

// Diffuse picks a seed uniformly at random and propagates a unit magnitude
// hops times over the graph. Every contribution reaching a node is added to
// the seed's row and column. Contributions arriving over different paths are
// kept as separate frontier entries.
func (d *Diffuser) Diffuse(hops int) int {
	seed := d.rng.IntN(d.topo.numNodes())

	frontier := []frontierEntry{{node: seed, magnitude: 1.0}}
	for hop := 0; hop < hops; hop++ {
		next := make([]frontierEntry, 0, len(frontier))
		for _, entry := range frontier {
			for i, nb := range d.topo.neighbors[entry.node] {
				propagated := d.topo.weights[entry.node][i] * entry.magnitude
				d.affinity.Add(seed, nb, propagated)
				next = append(next, frontierEntry{node: nb, magnitude: propagated})
			}
		}
		frontier = next
	}
	return seed
}
