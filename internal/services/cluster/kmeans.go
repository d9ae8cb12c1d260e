package cluster

import (
	"errors"
	"math"
	"math/rand"
)

var ErrCluster = errors.New("invalid clustering configuration")

// KMeans assigns points to k clusters via Lloyd iterations with randomly
// seeded centroids. A nil rng falls back to the global source, so callers
// wanting reproducible runs inject their own.
type KMeans struct {
	K        int
	MaxIters int
	Rand     *rand.Rand
}

func NewKMeans(k, maxIters int) *KMeans {
	return &KMeans{K: k, MaxIters: maxIters}
}

// Cluster returns a label in [0, k) for every input vector.
func (km *KMeans) Cluster(data [][]float64) ([]int, error) {
	n := len(data)
	if km.K < 1 || km.MaxIters < 1 {
		return nil, ErrCluster
	}
	if n == 0 {
		return nil, ErrCluster
	}
	if km.K > n {
		return nil, ErrCluster
	}
	dims := len(data[0])
	for _, p := range data {
		if len(p) != dims {
			return nil, ErrCluster
		}
	}

	perm := rand.Perm(n)
	if km.Rand != nil {
		perm = km.Rand.Perm(n)
	}

	// Seed each centroid from a distinct point so clusters cannot collapse
	// before the first assignment.
	centroids := make([][]float64, km.K)
	for i := range centroids {
		centroids[i] = append([]float64(nil), data[perm[i]]...)
	}

	labels := make([]int, n)
	for iter := 0; iter < km.MaxIters; iter++ {
		for i, p := range data {
			best := math.Inf(1)
			for j, c := range centroids {
				if d := euclidean(p, c); d < best {
					best = d
					labels[i] = j
				}
			}
		}

		sums := make([][]float64, km.K)
		counts := make([]int, km.K)
		for j := range sums {
			sums[j] = make([]float64, dims)
		}
		for i, p := range data {
			counts[labels[i]]++
			for d, v := range p {
				sums[labels[i]][d] += v
			}
		}
		for j := range centroids {
			if counts[j] == 0 {
				continue // empty cluster keeps its previous centroid
			}
			for d := range centroids[j] {
				centroids[j][d] = sums[j][d] / float64(counts[j])
			}
		}
	}
	return labels, nil
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
