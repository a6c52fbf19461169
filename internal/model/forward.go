package model

import (
	"fmt"

	"github.com/born-ml/deepnet/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// Forward runs X through all L layers: ReLU for layers 1..L-1, sigmoid for
// layer L.
//
// Parameters:
//   - x: Input matrix [n_0, m]
//   - params: Parameter set with L layers
//
// Returns AL [1, m] and one cache per layer, caches[L-1] being the output
// layer's. Returns an error if params is malformed. Panics if x does not have
// n_0 rows.
func (e *Engine) Forward(x *mat.Dense, params *nn.Parameters) (*mat.Dense, []nn.Cache, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, fmt.Errorf("forward: %w", err)
	}

	al, caches := e.forward(x, params, nil)
	return al, caches, nil
}

// ForwardDropout is Forward with inverted dropout on every hidden layer.
//
// After each ReLU activation A_l a mask D_l of the same shape is drawn with
// P(1) = keepProb, and A_l is replaced by A_l ⊙ D_l / keepProb. The output
// layer is never masked. A nil sampler draws from the global random source.
//
// Returns AL, the caches and the L-1 masks in layer order. The masks must be
// passed unchanged to BackwardDropout.
func (e *Engine) ForwardDropout(
	x *mat.Dense,
	params *nn.Parameters,
	keepProb float64,
	sampler MaskSampler,
) (*mat.Dense, []nn.Cache, []*mat.Dense, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("forward dropout: %w", err)
	}
	if err := checkKeepProb(keepProb); err != nil {
		return nil, nil, nil, fmt.Errorf("forward dropout: %w", err)
	}
	if sampler == nil {
		sampler = NewBernoulliSampler(nil)
	}

	masks := make([]*mat.Dense, 0, params.NumLayers()-1)
	al, caches := e.forward(x, params, func(a *mat.Dense) *mat.Dense {
		r, c := a.Dims()
		d := sampler.Sample(r, c, keepProb)
		masks = append(masks, d)
		return applyMask(a, d, keepProb)
	})

	return al, caches, masks, nil
}

// forward is the layer loop shared by both forward variants. drop, if not
// nil, replaces each hidden activation before the next layer consumes it.
func (e *Engine) forward(x *mat.Dense, params *nn.Parameters, drop func(*mat.Dense) *mat.Dense) (*mat.Dense, []nn.Cache) {
	numLayers := params.NumLayers()
	caches := make([]nn.Cache, 0, numLayers)

	a := x
	for l := 1; l < numLayers; l++ {
		lp := params.Layer(l)
		var cache nn.Cache
		a, cache = e.prim.Forward(a, lp.W, lp.B, nn.ReLU)
		caches = append(caches, cache)

		if drop != nil {
			a = drop(a)
		}
	}

	out := params.Layer(numLayers)
	al, cache := e.prim.Forward(a, out.W, out.B, nn.Sigmoid)
	caches = append(caches, cache)

	return al, caches
}
