package netio

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/manca/pkg/manca"
)

// Report is the YAML summary of one clustering run.
type Report struct {
	Input       string           `yaml:"input"`
	Format      Format           `yaml:"format"`
	GeneratedAt time.Time        `yaml:"generated_at"`
	Parameters  ReportParameters `yaml:"parameters"`
	Result      *manca.Result    `yaml:"result"`
	Clusters    map[int][]string `yaml:"clusters"`
	Rounds      []ReportRound    `yaml:"rounds,omitempty"`
}

// ReportParameters records the settings the run used.
type ReportParameters struct {
	Limit          int   `yaml:"limit"`
	DiffusionRange int   `yaml:"diffusion_range"`
	MaxClusters    int   `yaml:"max_clusters"`
	Iterations     int   `yaml:"iterations"`
	RandomSeed     int64 `yaml:"random_seed"`
}

// ReportRound is a compact per-round line of the report.
type ReportRound struct {
	Round     int  `yaml:"round"`
	BestCount int  `yaml:"best_count"`
	Adopted   bool `yaml:"adopted"`
	Sparsity  int  `yaml:"sparsity"`
	Delay     int  `yaml:"delay"`
}

// NewReport assembles a report from a finished run.
func NewReport(input string, format Format, opts manca.Options, result *manca.Result) *Report {
	clusters := make(map[int][]string)
	for id, c := range result.Assignment {
		clusters[c] = append(clusters[c], id)
	}
	for c := range clusters {
		sort.Strings(clusters[c])
	}

	rounds := make([]ReportRound, len(result.Rounds))
	for i, r := range result.Rounds {
		rounds[i] = ReportRound{
			Round:     r.Round,
			BestCount: r.BestCount,
			Adopted:   r.Adopted,
			Sparsity:  r.Sparsity,
			Delay:     r.Delay,
		}
	}

	return &Report{
		Input:       input,
		Format:      format,
		GeneratedAt: time.Now().UTC(),
		Parameters: ReportParameters{
			Limit:          opts.Limit,
			DiffusionRange: opts.DiffusionRange,
			MaxClusters:    opts.MaxClusters,
			Iterations:     opts.Iterations,
			RandomSeed:     opts.RandomSeed,
		},
		Result:   result,
		Clusters: clusters,
		Rounds:   rounds,
	}
}

// WriteReport encodes the report as YAML.
func WriteReport(w io.Writer, report *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// WriteReportFile writes the report to path.
func WriteReportFile(path string, report *Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	return WriteReport(file, report)
}

// ReadReport decodes a YAML report.
func ReadReport(r io.Reader) (*Report, error) {
	var report Report
	if err := yaml.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
