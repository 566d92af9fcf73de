package manca

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDegenerateLabels is returned by a QualityScorer when the labels do
	// not describe at least two groups it can compare.
	ErrDegenerateLabels = errors.New("degenerate labels")

	// ErrInfeasibleK is returned by a ClusterOracle that cannot produce k groups.
	ErrInfeasibleK = errors.New("infeasible cluster count")
)

// ClusterOracle partitions the rows of data into k groups.
type ClusterOracle interface {
	FitPredict(data mat.Matrix, k int, src rand.Source) ([]int, error)
}

// QualityScorer scores a labelling of the rows of data; higher is better.
// It fails with ErrDegenerateLabels when fewer than two labels are present.
type QualityScorer interface {
	Score(data mat.Matrix, labels []int) (float64, error)
}

// Selection is the outcome of one cluster-count evaluation.
type Selection struct {
	Scores     []float64 // index 0 is the random baseline, index c the c-cluster candidate
	BestCount  int       // argmax of Scores, 0 when the baseline wins
	Assignment []int     // nil when no assignment should be adopted
	Forced     bool      // baseline won but a candidate was adopted because nothing was held
}

// Selector evaluates candidate cluster counts against a random baseline.
type Selector struct {
	oracle     ClusterOracle
	scorer     QualityScorer
	rng        *rand.Rand
	parallel   bool
	numWorkers int
	logger     zerolog.Logger
}

type candidate struct {
	labels []int
	score  float64
	ok     bool
}

// Select scores a random binary baseline and every count in 1..maxClusters.
// When held is false and the baseline wins, the best feasible candidate is
// adopted anyway so that the run always has an assignment.
func (s *Selector) Select(ctx context.Context, affinity *Affinity, maxClusters int, held bool) (Selection, error) {
	data := affinity.Matrix()
	n := affinity.Len()

	scores := make([]float64, maxClusters+1)

	baseline := make([]int, n)
	for i := range baseline {
		baseline[i] = s.rng.IntN(2)
	}
	scores[0] = s.score(data, baseline)

	// Oracle seeds are drawn in candidate order before any fan-out.
	seeds := make([][2]uint64, maxClusters+1)
	for c := 1; c <= maxClusters; c++ {
		seeds[c] = [2]uint64{s.rng.Uint64(), s.rng.Uint64()}
	}

	candidates := make([]candidate, maxClusters+1)
	evaluate := func(c int) {
		labels, err := s.oracle.FitPredict(data, c, rand.NewPCG(seeds[c][0], seeds[c][1]))
		if err != nil {
			s.logger.Debug().Err(err).Int("k", c).Msg("Clustering oracle failed, scoring candidate as 0")
			return
		}
		candidates[c] = candidate{labels: labels, score: s.score(data, labels), ok: true}
	}

	if s.parallel && maxClusters > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.numWorkers)
		for c := 1; c <= maxClusters; c++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				evaluate(c)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Selection{}, err
		}
	} else {
		for c := 1; c <= maxClusters; c++ {
			if err := ctx.Err(); err != nil {
				return Selection{}, err
			}
			evaluate(c)
		}
	}

	for c := 1; c <= maxClusters; c++ {
		scores[c] = candidates[c].score
	}

	sel := Selection{Scores: scores, BestCount: argmax(scores)}
	if sel.BestCount > 0 && candidates[sel.BestCount].ok {
		sel.Assignment = candidates[sel.BestCount].labels
		return sel, nil
	}

	if !held {
		best := -1
		for c := 1; c <= maxClusters; c++ {
			if !candidates[c].ok {
				continue
			}
			if best < 0 || candidates[c].score > candidates[best].score {
				best = c
			}
		}
		if best > 0 {
			sel.Assignment = candidates[best].labels
			sel.Forced = true
		}
	}
	return sel, nil
}

func (s *Selector) score(data mat.Matrix, labels []int) float64 {
	score, err := s.scorer.Score(data, labels)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Quality scorer failed, using 0")
		return 0
	}
	return score
}

// argmax returns the index of the first maximum.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
