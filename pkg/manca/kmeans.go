package manca

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KMeans is the default ClusterOracle: k-means++ seeding followed by Lloyd
// iterations, keeping the lowest-inertia result of NInit restarts.
type KMeans struct {
	NInit         int
	MaxIterations int
	Tolerance     float64
}

// NewKMeans creates a KMeans oracle with the usual defaults.
func NewKMeans() *KMeans {
	return &KMeans{NInit: 10, MaxIterations: 300, Tolerance: 1e-4}
}

// FitPredict clusters the rows of data into k groups. Labels are 0..k-1.
func (km *KMeans) FitPredict(data mat.Matrix, k int, src rand.Source) ([]int, error) {
	rows, _ := data.Dims()
	if k < 1 || k > rows {
		return nil, fmt.Errorf("%w: k=%d with %d samples", ErrInfeasibleK, k, rows)
	}

	points := make([][]float64, rows)
	for i := range points {
		points[i] = mat.Row(nil, i, data)
	}

	rng := rand.New(src)
	nInit := km.NInit
	if nInit < 1 {
		nInit = 1
	}

	var best []int
	bestInertia := math.Inf(1)
	for run := 0; run < nInit; run++ {
		labels, inertia := km.lloyd(points, k, rng)
		if best == nil || inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}
	return best, nil
}

// lloyd runs one k-means fit and returns labels with their inertia.
func (km *KMeans) lloyd(points [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centers := seedPlusPlus(points, k, rng)
	labels := make([]int, len(points))
	dims := len(points[0])

	maxIter := km.MaxIterations
	if maxIter < 1 {
		maxIter = 1
	}

	for iter := 0; iter < maxIter; iter++ {
		for i, p := range points {
			labels[i] = nearest(centers, p)
		}

		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, p := range points {
			floats.Add(next[labels[i]], p)
			counts[labels[i]]++
		}

		shift := 0.0
		for c := range next {
			if counts[c] == 0 {
				// Empty cluster: restart it on the point farthest from its center.
				far := farthest(points, labels, centers)
				copy(next[c], points[far])
				labels[far] = c
			} else {
				floats.Scale(1/float64(counts[c]), next[c])
			}
			shift += sqDist(centers[c], next[c])
		}
		centers = next

		if shift <= km.Tolerance {
			break
		}
	}

	inertia := 0.0
	for i, p := range points {
		labels[i] = nearest(centers, p)
		inertia += sqDist(p, centers[labels[i]])
	}
	return labels, inertia
}

// seedPlusPlus picks k initial centers with D² weighting.
func seedPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	first := points[rng.IntN(len(points))]
	centers = append(centers, append([]float64(nil), first...))

	dist := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			dist[i] = sqDist(p, centers[nearest(centers, p)])
			total += dist[i]
		}

		pick := rng.IntN(len(points))
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range dist {
				if d == 0 {
					continue
				}
				// Rounding can leave target above zero after the last point.
				pick = i
				target -= d
				if target <= 0 {
					break
				}
			}
		}
		centers = append(centers, append([]float64(nil), points[pick]...))
	}
	return centers
}

func nearest(centers [][]float64, p []float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, center := range centers {
		if d := sqDist(p, center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func farthest(points [][]float64, labels []int, centers [][]float64) int {
	far, farDist := 0, -1.0
	for i, p := range points {
		if d := sqDist(p, centers[labels[i]]); d > farDist {
			far, farDist = i, d
		}
	}
	return far
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
