package svm

import (
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/kernelmachine/core/features"
	"gonum.org/v1/gonum/mat"
)

// separableClusters returns 20 points around (-2,-2) labelled 0 and their
// mirror images around (2,2) labelled 1. The closest pair across classes is
// unique.
func separableClusters(t *testing.T) (*features.DenseSet, features.Labels) {
	t.Helper()
	var rows [][]float64
	var labels []float64
	for _, dx := range []float64{-0.3, -0.1, 0.1, 0.3} {
		for _, dy := range []float64{-0.4, -0.2, 0, 0.2, 0.4} {
			rows = append(rows, []float64{-2 + dx, -2 + dy})
			labels = append(labels, 0)
		}
	}
	for i := 0; i < 20; i++ {
		rows = append(rows, []float64{-rows[i][0], -rows[i][1]})
		labels = append(labels, 1)
	}
	X, err := features.FromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	return X, features.NewLabels(labels)
}

// blobs draws perCenter Gaussian points around each center; the label is the
// center's position in centers.
func blobs(t *testing.T, centers [][]float64, perCenter int, spread float64, seed uint64) (*features.DenseSet, features.Labels) {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	dim := len(centers[0])
	n := len(centers) * perCenter
	data := make([]float64, 0, n*dim)
	labels := make([]float64, 0, n)
	for i := 0; i < perCenter; i++ {
		for c, center := range centers {
			for d := 0; d < dim; d++ {
				data = append(data, center[d]+spread*rng.NormFloat64())
			}
			labels = append(labels, float64(c))
		}
	}
	return features.NewDenseSet(mat.NewDense(n, dim, data)), features.NewLabels(labels)
}

// overlapping returns 200 points from two heavily overlapping classes.
func overlapping(t *testing.T) (*features.DenseSet, features.Labels) {
	t.Helper()
	return blobs(t, [][]float64{{-0.5, 0}, {0.5, 0}}, 100, 1.0, 7)
}

func agreement(a, b []float64) float64 {
	same := 0
	for i := range a {
		if a[i] == b[i] {
			same++
		}
	}
	return float64(same) / float64(len(a))
}

func zeroVectors(t *testing.T) (*features.DenseSet, features.Labels) {
	t.Helper()
	return features.NewDenseSet(mat.NewDense(4, 2, nil)), features.NewLabels([]float64{0, 0, 1, 1})
}
