package manca

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrEmptyGraph is returned when a graph has no nodes to cluster.
	ErrEmptyGraph = errors.New("graph has no nodes")

	// ErrUnknownNode is returned when an edge or lookup refers to a node the graph does not hold.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned when adding an edge from a node to itself.
	ErrSelfLoop = errors.New("self-loops are not supported")
)

// Graph is the view of an undirected weighted network that the clustering
// loop reads from and labels at completion.
type Graph interface {
	// Nodes returns every node id in a stable order.
	Nodes() []string

	// Neighbors returns the ids adjacent to id. Direction is ignored.
	Neighbors(id string) []string

	// Weight returns the weight of the edge between u and v. ok is false when
	// the edge carries no weight attribute.
	Weight(u, v string) (w float64, ok bool)

	// SetLabel attaches the cluster id to a node.
	SetLabel(id string, cluster int)
}

// Network is a weighted undirected graph with string node ids and per-node
// attributes, stored in a gonum simple.WeightedUndirectedGraph.
type Network struct {
	g          *simple.WeightedUndirectedGraph
	ids        []string
	index      map[string]int64
	unweighted map[[2]int64]bool
	attrs      map[int64]map[string]interface{}
	labelAttr  string
}

// NewNetwork creates an empty network that writes labels to the Cluster attribute.
func NewNetwork() *Network {
	return &Network{
		g:          simple.NewWeightedUndirectedGraph(0, math.NaN()),
		index:      make(map[string]int64),
		unweighted: make(map[[2]int64]bool),
		attrs:      make(map[int64]map[string]interface{}),
		labelAttr:  DefaultLabelAttribute,
	}
}

// WithLabelAttribute changes the attribute SetLabel writes to.
func (n *Network) WithLabelAttribute(name string) *Network {
	if name != "" {
		n.labelAttr = name
	}
	return n
}

// AddNode adds a node if it is not already present.
func (n *Network) AddNode(id string) {
	if _, exists := n.index[id]; exists {
		return
	}
	gid := int64(len(n.ids))
	n.g.AddNode(simple.Node(gid))
	n.index[id] = gid
	n.ids = append(n.ids, id)
	n.attrs[gid] = make(map[string]interface{})
}

// AddEdge adds or replaces an undirected weighted edge, creating missing nodes.
func (n *Network) AddEdge(from, to string, weight float64) error {
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfLoop, from)
	}
	n.AddNode(from)
	n.AddNode(to)
	u, v := n.index[from], n.index[to]
	n.g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(u), T: simple.Node(v), W: weight})
	delete(n.unweighted, edgeKey(u, v))
	return nil
}

// AddUnweightedEdge adds an edge that carries no weight attribute.
// Weight reports it as missing and the clustering loop falls back to 1.0.
func (n *Network) AddUnweightedEdge(from, to string) error {
	if err := n.AddEdge(from, to, 1.0); err != nil {
		return err
	}
	n.unweighted[edgeKey(n.index[from], n.index[to])] = true
	return nil
}

// Nodes returns node ids in insertion order.
func (n *Network) Nodes() []string {
	out := make([]string, len(n.ids))
	copy(out, n.ids)
	return out
}

// Neighbors returns the neighbors of id in insertion order.
func (n *Network) Neighbors(id string) []string {
	gid, ok := n.index[id]
	if !ok {
		return nil
	}
	nbs := graph.NodesOf(n.g.From(gid))
	sort.Slice(nbs, func(i, j int) bool { return nbs[i].ID() < nbs[j].ID() })

	out := make([]string, len(nbs))
	for i, nb := range nbs {
		out[i] = n.ids[nb.ID()]
	}
	return out
}

// Weight returns the edge weight between u and v.
func (n *Network) Weight(u, v string) (float64, bool) {
	uid, okU := n.index[u]
	vid, okV := n.index[v]
	if !okU || !okV {
		return 0, false
	}
	e := n.g.WeightedEdge(uid, vid)
	if e == nil || n.unweighted[edgeKey(uid, vid)] {
		return 0, false
	}
	return e.Weight(), true
}

// HasEdge reports whether u and v are adjacent.
func (n *Network) HasEdge(u, v string) bool {
	uid, okU := n.index[u]
	vid, okV := n.index[v]
	return okU && okV && n.g.HasEdgeBetween(uid, vid)
}

// SetLabel writes the cluster id to the label attribute of id.
func (n *Network) SetLabel(id string, cluster int) {
	n.SetAttribute(id, n.labelAttr, cluster)
}

// Label returns the cluster id written by SetLabel.
func (n *Network) Label(id string) (int, bool) {
	v, ok := n.Attribute(id, n.labelAttr)
	if !ok {
		return 0, false
	}
	cluster, ok := v.(int)
	return cluster, ok
}

// SetAttribute sets an arbitrary node attribute. Unknown ids are ignored.
func (n *Network) SetAttribute(id, key string, value interface{}) {
	gid, ok := n.index[id]
	if !ok {
		return
	}
	n.attrs[gid][key] = value
}

// Attribute returns a node attribute.
func (n *Network) Attribute(id, key string) (interface{}, bool) {
	gid, ok := n.index[id]
	if !ok {
		return nil, false
	}
	v, ok := n.attrs[gid][key]
	return v, ok
}

// Attributes returns a copy of all attributes of a node.
func (n *Network) Attributes(id string) map[string]interface{} {
	gid, ok := n.index[id]
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(n.attrs[gid]))
	for k, v := range n.attrs[gid] {
		out[k] = v
	}
	return out
}

// LabelAttribute returns the attribute name SetLabel writes to.
func (n *Network) LabelAttribute() string { return n.labelAttr }

// NumNodes returns the number of nodes.
func (n *Network) NumNodes() int { return len(n.ids) }

// NumEdges returns the number of undirected edges.
func (n *Network) NumEdges() int { return n.g.Edges().Len() }

// Edge is an undirected edge in insertion order of its endpoints.
type Edge struct {
	From     string
	To       string
	Weight   float64
	Weighted bool
}

// Edges returns all edges ordered by endpoint insertion order.
func (n *Network) Edges() []Edge {
	edges := make([]Edge, 0, n.NumEdges())
	for u := range n.ids {
		for _, nb := range n.Neighbors(n.ids[u]) {
			v := n.index[nb]
			if int64(u) > v {
				continue
			}
			w, ok := n.Weight(n.ids[u], nb)
			if !ok {
				w = 1.0
			}
			edges = append(edges, Edge{From: n.ids[u], To: nb, Weight: w, Weighted: ok})
		}
	}
	return edges
}

// Gonum returns the underlying gonum graph. Node ids are insertion positions.
func (n *Network) Gonum() *simple.WeightedUndirectedGraph { return n.g }

// ID returns the string id of a gonum node id.
func (n *Network) ID(gid int64) (string, bool) {
	if gid < 0 || gid >= int64(len(n.ids)) {
		return "", false
	}
	return n.ids[gid], true
}

// Validate checks that the network has nodes and no non-finite weights.
func (n *Network) Validate() error {
	if len(n.ids) == 0 {
		return ErrEmptyGraph
	}
	for _, e := range n.Edges() {
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return fmt.Errorf("non-finite weight %f on edge %s-%s", e.Weight, e.From, e.To)
		}
	}
	return nil
}

// FromGonum converts any gonum undirected graph into a Network. Node ids are
// the decimal gonum ids, visited in ascending order; weights are taken from
// graph.Weighted graphs and left missing otherwise.
func FromGonum(g graph.Undirected) (*Network, error) {
	if g == nil {
		return nil, fmt.Errorf("gonum graph is nil")
	}
	nodes := graph.NodesOf(g.Nodes())
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })

	net := NewNetwork()
	for _, node := range nodes {
		net.AddNode(strconv.FormatInt(node.ID(), 10))
	}

	weighted, isWeighted := g.(graph.Weighted)
	for _, node := range nodes {
		uid := node.ID()
		for _, nb := range graph.NodesOf(g.From(uid)) {
			vid := nb.ID()
			if vid <= uid {
				continue
			}
			from, to := strconv.FormatInt(uid, 10), strconv.FormatInt(vid, 10)
			if isWeighted {
				w, _ := weighted.Weight(uid, vid)
				if err := net.AddEdge(from, to, w); err != nil {
					return nil, err
				}
				continue
			}
			if err := net.AddUnweightedEdge(from, to); err != nil {
				return nil, err
			}
		}
	}
	return net, nil
}

func edgeKey(u, v int64) [2]int64 {
	if u > v {
		u, v = v, u
	}
	return [2]int64{u, v}
}
