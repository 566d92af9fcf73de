package netio

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/manca/pkg/manca"
)

// WeightAttribute is the DOT edge attribute holding the edge weight.
const WeightAttribute = "weight"

// dotNode carries a DOT id and its attributes through gonum's codec.
type dotNode struct {
	id    int64
	name  string
	attrs []encoding.Attribute
}

func (n *dotNode) ID() int64          { return n.id }
func (n *dotNode) DOTID() string      { return n.name }
func (n *dotNode) SetDOTID(id string) { n.name = id }

func (n *dotNode) Attributes() []encoding.Attribute { return n.attrs }

func (n *dotNode) SetAttribute(attr encoding.Attribute) error {
	n.attrs = setAttr(n.attrs, attr)
	return nil
}

type dotEdge struct {
	from, to graph.Node
	attrs    []encoding.Attribute
}

func (e *dotEdge) From() graph.Node { return e.from }
func (e *dotEdge) To() graph.Node   { return e.to }

func (e *dotEdge) ReversedEdge() graph.Edge {
	return &dotEdge{from: e.to, to: e.from, attrs: e.attrs}
}

func (e *dotEdge) Attributes() []encoding.Attribute { return e.attrs }

func (e *dotEdge) SetAttribute(attr encoding.Attribute) error {
	e.attrs = setAttr(e.attrs, attr)
	return nil
}

func (e *dotEdge) attr(key string) (string, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func setAttr(attrs []encoding.Attribute, attr encoding.Attribute) []encoding.Attribute {
	for i := range attrs {
		if attrs[i].Key == attr.Key {
			attrs[i].Value = attr.Value
			return attrs
		}
	}
	return append(attrs, attr)
}

// dotBuilder receives a decoded DOT graph. Direction is dropped and
// self-loops are skipped.
type dotBuilder struct {
	*simple.UndirectedGraph
}

func (b *dotBuilder) NewNode() graph.Node {
	return &dotNode{id: b.UndirectedGraph.NewNode().ID()}
}

func (b *dotBuilder) NewEdge(from, to graph.Node) graph.Edge {
	return &dotEdge{from: from, to: to}
}

func (b *dotBuilder) SetEdge(e graph.Edge) {
	if e.From().ID() == e.To().ID() {
		return
	}
	b.UndirectedGraph.SetEdge(e)
}

// ReadDOT decodes a DOT graph into a Network. Node attributes are kept;
// the "weight" edge attribute becomes the edge weight and edges without it
// are left unweighted.
func ReadDOT(r io.Reader) (*manca.Network, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading dot: %w", err)
	}

	b := &dotBuilder{UndirectedGraph: simple.NewUndirectedGraph()}
	if err := dot.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("failed to decode dot: %w", err)
	}

	nodes := graph.NodesOf(b.Nodes())
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })

	net := manca.NewNetwork()
	for _, n := range nodes {
		dn := n.(*dotNode)
		net.AddNode(dn.name)
		for _, a := range dn.attrs {
			net.SetAttribute(dn.name, a.Key, a.Value)
		}
	}

	for _, n := range nodes {
		u := n.(*dotNode)
		nbs := graph.NodesOf(b.From(u.id))
		sort.Slice(nbs, func(i, j int) bool { return nbs[i].ID() < nbs[j].ID() })
		for _, nb := range nbs {
			v := nb.(*dotNode)
			if v.id < u.id {
				continue
			}
			e := b.Edge(u.id, v.id).(*dotEdge)
			raw, ok := e.attr(WeightAttribute)
			if !ok {
				if err := net.AddUnweightedEdge(u.name, v.name); err != nil {
					return nil, err
				}
				continue
			}
			w, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("edge %s--%s: invalid weight %q: %w", u.name, v.name, raw, err)
			}
			if err := net.AddEdge(u.name, v.name, w); err != nil {
				return nil, err
			}
		}
	}
	return net, nil
}

// WriteDOT encodes net as an undirected DOT graph including every node
// attribute (so the cluster label) and the weight of weighted edges.
func WriteDOT(w io.Writer, net *manca.Network, name string) error {
	g := simple.NewUndirectedGraph()
	byID := make(map[string]*dotNode, net.NumNodes())

	for i, id := range net.Nodes() {
		attrs := net.Attributes(id)
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		n := &dotNode{id: int64(i), name: id}
		for _, k := range keys {
			n.attrs = append(n.attrs, encoding.Attribute{Key: k, Value: fmt.Sprint(attrs[k])})
		}
		g.AddNode(n)
		byID[id] = n
	}

	for _, e := range net.Edges() {
		de := &dotEdge{from: byID[e.From], to: byID[e.To]}
		if e.Weighted {
			de.attrs = []encoding.Attribute{{
				Key:   WeightAttribute,
				Value: strconv.FormatFloat(e.Weight, 'g', -1, 64),
			}}
		}
		g.SetEdge(de)
	}

	data, err := dot.Marshal(g, name, "", "\t")
	if err != nil {
		return fmt.Errorf("failed to encode dot: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return nil
}
