package netio

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/manca/pkg/manca"
)

func labelledNetwork(t *testing.T) *manca.Network {
	t.Helper()
	net := manca.NewNetwork()
	require.NoError(t, net.AddEdge("otu1", "otu2", 0.8))
	require.NoError(t, net.AddEdge("otu2", "otu3", -0.35))
	require.NoError(t, net.AddUnweightedEdge("otu3", "otu4"))
	net.AddNode("otu5")
	for i, id := range net.Nodes() {
		net.SetLabel(id, i%2)
	}
	return net
}

func TestReadEdgeList(t *testing.T) {
	input := `# co-occurrence network
otu1 otu2 0.8
otu2	otu3  -0.35

otu3 otu4
otu4 otu4 1.0
otu5
`
	net, err := ReadEdgeList(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"otu1", "otu2", "otu3", "otu4", "otu5"}, net.Nodes())
	assert.Equal(t, 3, net.NumEdges(), "self-loop is skipped")

	w, ok := net.Weight("otu3", "otu2")
	require.True(t, ok)
	assert.Equal(t, -0.35, w)

	_, ok = net.Weight("otu3", "otu4")
	assert.False(t, ok, "two-column lines leave the weight unset")
	assert.Empty(t, net.Neighbors("otu5"))
}

func TestReadEdgeListInvalidWeight(t *testing.T) {
	_, err := ReadEdgeList(strings.NewReader("a b 1.0\nb c heavy\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestEdgeListRoundTrip(t *testing.T) {
	original := labelledNetwork(t)

	var buf bytes.Buffer
	require.NoError(t, WriteEdgeList(&buf, original))

	decoded, err := ReadEdgeList(&buf)
	require.NoError(t, err)
	assert.Equal(t, original.Nodes(), decoded.Nodes())
	assert.Equal(t, original.Edges(), decoded.Edges())
}

func TestReadDOT(t *testing.T) {
	input := `graph sample {
	a [taxon=Bacteroides];
	a -- b [weight=2.5];
	b -- c;
	c -- c [weight=9];
}`
	net, err := ReadDOT(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, net.Nodes())
	assert.Equal(t, 2, net.NumEdges())

	w, ok := net.Weight("b", "a")
	require.True(t, ok)
	assert.Equal(t, 2.5, w)

	_, ok = net.Weight("b", "c")
	assert.False(t, ok)

	taxon, ok := net.Attribute("a", "taxon")
	require.True(t, ok)
	assert.Equal(t, "Bacteroides", taxon)
}

func TestReadDOTDirected(t *testing.T) {
	net, err := ReadDOT(strings.NewReader(`digraph { x -> y [weight=-1]; }`))
	require.NoError(t, err)

	w, ok := net.Weight("y", "x")
	require.True(t, ok, "direction is ignored")
	assert.Equal(t, -1.0, w)
}

func TestReadDOTInvalid(t *testing.T) {
	_, err := ReadDOT(strings.NewReader(`graph { a -- b [weight=strong]; }`))
	assert.Error(t, err)

	_, err = ReadDOT(strings.NewReader(`graph {`))
	assert.Error(t, err)
}

func TestDOTRoundTrip(t *testing.T) {
	original := labelledNetwork(t)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, original, "network"))
	assert.Contains(t, buf.String(), "graph network {")

	decoded, err := ReadDOT(&buf)
	require.NoError(t, err)

	assert.Equal(t, original.Nodes(), decoded.Nodes())
	assert.Equal(t, original.Edges(), decoded.Edges())

	cluster, ok := decoded.Attribute("otu2", manca.DefaultLabelAttribute)
	require.True(t, ok)
	assert.Equal(t, "1", cluster)
}

func TestWriteMapping(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMapping(&buf, labelledNetwork(t)))

	assert.Equal(t, "otu1 0\notu3 0\notu5 0\notu2 1\notu4 1\n", buf.String())
}

func TestWriteMappingUnlabelled(t *testing.T) {
	net := manca.NewNetwork()
	net.AddNode("solo")

	var buf bytes.Buffer
	assert.Error(t, WriteMapping(&buf, net))
}

func TestFormats(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"dot", FormatDOT, true},
		{"GV", FormatDOT, true},
		{"edgelist", FormatEdgeList, true},
		{" txt ", FormatEdgeList, true},
		{"graphml", "", false},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	f, err := DetectFormat("data/network.dot")
	require.NoError(t, err)
	assert.Equal(t, FormatDOT, f)

	_, err = DetectFormat("network")
	assert.Error(t, err)
}

func TestWriteFileEdgeList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "labelled.txt")

	require.NoError(t, WriteFile(path, labelledNetwork(t), FormatEdgeList))

	mapping, err := os.ReadFile(filepath.Join(dir, "out", "labelled.mapping"))
	require.NoError(t, err)
	assert.Contains(t, string(mapping), "otu2 1\n")

	net, err := ReadFile(path, FormatEdgeList)
	require.NoError(t, err)
	assert.Equal(t, 5, net.NumNodes())
}

func TestWriteFileDOT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my-network.dot")
	require.NoError(t, WriteFile(path, labelledNetwork(t), FormatDOT))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "graph my_network {")

	net, err := ReadFile(path, FormatDOT)
	require.NoError(t, err)
	assert.Equal(t, 3, net.NumEdges())
}

func TestReportRoundTrip(t *testing.T) {
	result := &manca.Result{
		RunID:       "run-1",
		State:       manca.Converged,
		Assignment:  map[string]int{"b": 0, "a": 0, "c": 1},
		NumClusters: 2,
		Sparsity:    1,
		Delay:       3,
		Iterations:  4,
		Modularity:  0.25,
		Rounds: []manca.RoundStats{
			{Round: 1, BestCount: 2, Adopted: true, Sparsity: 1},
		},
		Statistics: manca.Statistics{Nodes: 3, Edges: 2},
	}
	opts := manca.NewConfig().Options()

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, NewReport("in.dot", FormatDOT, opts, result)))
	assert.Contains(t, buf.String(), "state: converged")

	report, err := ReadReport(&buf)
	require.NoError(t, err)
	assert.Equal(t, FormatDOT, report.Format)
	assert.Equal(t, manca.Converged, report.Result.State)
	assert.Equal(t, result.Assignment, report.Result.Assignment)
	assert.Equal(t, map[int][]string{0: {"a", "b"}, 1: {"c"}}, report.Clusters)
	assert.Equal(t, []ReportRound{{Round: 1, BestCount: 2, Adopted: true, Sparsity: 1}}, report.Rounds)
	assert.Equal(t, opts.Limit, report.Parameters.Limit)
}
