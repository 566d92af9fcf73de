// Package netio reads and writes networks for the clustering CLI: weighted
// edge lists, DOT graphs, cluster mapping files and YAML run reports.
package netio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gilchrisn/manca/pkg/manca"
)

// Format names a supported graph file format.
type Format string

const (
	FormatDOT      Format = "dot"
	FormatEdgeList Format = "edgelist"
)

// ParseFormat accepts a format name or a common alias.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dot", "gv":
		return FormatDOT, nil
	case "edgelist", "edges", "txt":
		return FormatEdgeList, nil
	default:
		return "", fmt.Errorf("unsupported format %q (expected dot or edgelist)", name)
	}
}

// DetectFormat guesses the format from a file extension.
func DetectFormat(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot detect format of %s: no extension", path)
	}
	return ParseFormat(ext)
}

// ReadFile loads a network in the given format.
func ReadFile(path string, format Format) (*manca.Network, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatDOT:
		return ReadDOT(file)
	case FormatEdgeList:
		return ReadEdgeList(file)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// WriteFile stores a network in the given format. Edge lists cannot carry
// node attributes, so the cluster labels go to a sibling .mapping file.
func WriteFile(path string, net *manca.Network, format Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatDOT:
		return WriteDOT(file, net, graphName(path))
	case FormatEdgeList:
		if err := WriteEdgeList(file, net); err != nil {
			return err
		}
		return WriteMappingFile(MappingPath(path), net)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// MappingPath returns the mapping file that accompanies an edge list output.
func MappingPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".mapping"
}

// graphName derives a bare DOT identifier from a file name.
func graphName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
