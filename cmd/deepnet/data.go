package main

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

func source(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// clusters draws m samples from two unit-variance Gaussian blobs centred at
// -1 and +1 on every feature. Samples alternate between the blobs; the label
// is 1 for the positive blob.
//
// Returns X [features, m] and Y [1, m].
func clusters(features, m int, seed uint64) (*mat.Dense, *mat.Dense) {
	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: source(seed)}

	x := mat.NewDense(features, m, nil)
	y := mat.NewDense(1, m, nil)
	for j := 0; j < m; j++ {
		centre := -1.0
		if j%2 == 1 {
			centre = 1
			y.Set(0, j, 1)
		}
		for i := 0; i < features; i++ {
			x.Set(i, j, centre+noise.Rand())
		}
	}
	return x, y
}
