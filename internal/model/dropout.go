package model

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MaskSampler draws dropout masks.
type MaskSampler interface {
	// Sample returns a rows x cols matrix of independent 0/1 entries with
	// P(1) = keepProb.
	Sample(rows, cols int, keepProb float64) *mat.Dense
}

// BernoulliSampler draws masks from a Bernoulli(keepProb) distribution.
type BernoulliSampler struct {
	src rand.Source
}

// NewBernoulliSampler creates a sampler over src. A nil src uses the global
// random source; pass a seeded source for reproducible masks.
func NewBernoulliSampler(src rand.Source) *BernoulliSampler {
	return &BernoulliSampler{src: src}
}

// Sample implements MaskSampler.
func (s *BernoulliSampler) Sample(rows, cols int, keepProb float64) *mat.Dense {
	dist := distuv.Bernoulli{P: keepProb, Src: s.src}

	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data)
}

// applyMask returns a ⊙ d / keepProb in a new matrix.
func applyMask(a, d *mat.Dense, keepProb float64) *mat.Dense {
	out := new(mat.Dense)
	out.MulElem(a, d)
	out.Scale(1/keepProb, out)
	return out
}
