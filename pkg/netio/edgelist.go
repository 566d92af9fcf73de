package netio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gilchrisn/manca/pkg/manca"
)

// ReadEdgeList parses a whitespace separated edge list.
// Expected format: "from to weight" or "from to" (weight left unset).
// A line with a single id declares an isolated node. Blank lines and lines
// starting with # are ignored, as are self-loops.
func ReadEdgeList(r io.Reader) (*manca.Network, error) {
	net := manca.NewNetwork()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) == 1 {
			net.AddNode(parts[0])
			continue
		}

		from, to := parts[0], parts[1]
		if from == to {
			continue
		}

		if len(parts) == 2 {
			if err := net.AddUnweightedEdge(from, to); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		weight, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid weight %q: %w", lineNo, parts[2], err)
		}
		if err := net.AddEdge(from, to, weight); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading edge list: %w", err)
	}
	return net, nil
}

// WriteEdgeList writes one "from to weight" line per edge, then one line per
// isolated node. Edges without a weight are written with two columns.
func WriteEdgeList(w io.Writer, net *manca.Network) error {
	bw := bufio.NewWriter(w)
	connected := make(map[string]bool, net.NumNodes())

	for _, e := range net.Edges() {
		connected[e.From] = true
		connected[e.To] = true
		if e.Weighted {
			fmt.Fprintf(bw, "%s %s %s\n", e.From, e.To, strconv.FormatFloat(e.Weight, 'g', -1, 64))
		} else {
			fmt.Fprintf(bw, "%s %s\n", e.From, e.To)
		}
	}
	for _, id := range net.Nodes() {
		if !connected[id] {
			fmt.Fprintf(bw, "%s\n", id)
		}
	}
	return bw.Flush()
}

// ParseEdgeList opens and parses an edge list file.
func ParseEdgeList(filename string) (*manca.Network, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadEdgeList(file)
}
