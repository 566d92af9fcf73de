package manca

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Silhouette is the default QualityScorer: the mean silhouette coefficient
// over all rows using euclidean distance.
type Silhouette struct{}

// Score returns a value in [-1, 1]. It requires 2 <= distinct labels <= n-1.
func (Silhouette) Score(data mat.Matrix, labels []int) (float64, error) {
	n, _ := data.Dims()
	if len(labels) != n {
		return 0, fmt.Errorf("labels length %d does not match %d rows", len(labels), n)
	}

	// Relabel to 0..k-1 in order of first appearance.
	dense := make([]int, n)
	remap := make(map[int]int)
	for i, l := range labels {
		c, ok := remap[l]
		if !ok {
			c = len(remap)
			remap[l] = c
		}
		dense[i] = c
	}
	k := len(remap)
	if k < 2 || k > n-1 {
		return 0, fmt.Errorf("%w: %d distinct labels for %d samples", ErrDegenerateLabels, k, n)
	}

	points := make([][]float64, n)
	for i := range points {
		points[i] = mat.Row(nil, i, data)
	}
	sizes := make([]int, k)
	for _, c := range dense {
		sizes[c]++
	}

	total := 0.0
	sums := make([]float64, k)
	for i := 0; i < n; i++ {
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sums[dense[j]] += floats.Distance(points[i], points[j], 2)
		}

		own := dense[i]
		if sizes[own] == 1 {
			// Singletons contribute 0.
			continue
		}
		a := sums[own] / float64(sizes[own]-1)
		b := -1.0
		for c := 0; c < k; c++ {
			if c == own {
				continue
			}
			mean := sums[c] / float64(sizes[c])
			if b < 0 || mean < b {
				b = mean
			}
		}

		denom := a
		if b > denom {
			denom = b
		}
		if denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n), nil
}
