package netio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/gilchrisn/manca/pkg/manca"
)

// WriteMapping writes one "node cluster" line per node, grouped by cluster
// and ordered by node position within each cluster.
func WriteMapping(w io.Writer, net *manca.Network) error {
	type entry struct {
		id      string
		cluster int
		pos     int
	}

	nodes := net.Nodes()
	entries := make([]entry, 0, len(nodes))
	for pos, id := range nodes {
		cluster, ok := net.Label(id)
		if !ok {
			return fmt.Errorf("node %s has no %s label", id, net.LabelAttribute())
		}
		entries = append(entries, entry{id: id, cluster: cluster, pos: pos})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].cluster != entries[j].cluster {
			return entries[i].cluster < entries[j].cluster
		}
		return entries[i].pos < entries[j].pos
	})

	bw := bufio.NewWriter(w)
	for _, e := range entries {
		fmt.Fprintf(bw, "%s %d\n", e.id, e.cluster)
	}
	return bw.Flush()
}

// WriteMappingFile writes the cluster mapping to path.
func WriteMappingFile(path string, net *manca.Network) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create mapping file: %w", err)
	}
	defer file.Close()

	return WriteMapping(file, net)
}
