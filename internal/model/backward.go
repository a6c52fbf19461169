package model

import (
	"fmt"

	"github.com/born-ml/deepnet/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// Backward computes the gradients of the binary cross-entropy cost.
//
// Y is reshaped to AL's shape, then:
//
//	dAL = -(Y/AL - (1-Y)/(1-AL))
//
// Layer L is differentiated as sigmoid on caches[L-1]; layers L-1..1 as
// ReLU on caches[l-1], each consuming the dA produced by the layer above.
//
// AL is clamped to [ε, 1-ε] for dAL only (see Config.Epsilon). Without the
// clamp an AL of exactly 0 or 1 makes dAL non-finite.
func (e *Engine) Backward(al *mat.Dense, y mat.Matrix, caches []nn.Cache) (*nn.Gradients, error) {
	grads, err := e.backward(al, y, caches, backwardHooks{})
	if err != nil {
		return nil, fmt.Errorf("backward: %w", err)
	}
	return grads, nil
}

// BackwardL2 is Backward with L2 regularization of strength lambd applied to
// each layer's dW_l and db_l right after they are computed. The formula is
// chosen by Config.L2Mode; m is AL's sample count. With lambd = 0 the result
// equals Backward in every mode.
func (e *Engine) BackwardL2(al *mat.Dense, y mat.Matrix, caches []nn.Cache, lambd float64) (*nn.Gradients, error) {
	_, m := al.Dims()
	scale := lambd / float64(m)
	mode := e.cfg.L2Mode

	grads, err := e.backward(al, y, caches, backwardHooks{
		regularize: func(cache nn.Cache, dW, db *mat.Dense) {
			var penalty mat.Dense
			switch mode {
			case L2WeightDecay:
				penalty.Scale(scale, cache.W)
				dW.Add(dW, &penalty)
			default:
				penalty.Scale(scale, dW)
				dW.Add(dW, &penalty)

				penalty.Reset()
				penalty.Scale(scale, db)
				db.Add(db, &penalty)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("backward L2: %w", err)
	}
	return grads, nil
}

// BackwardDropout is Backward for a pass produced by ForwardDropout.
//
// masks must hold the L-1 hidden-layer masks in layer order, D_1..D_{L-1}.
// Masked gradients are multiplied by their mask and divided by keepProb
// before they are stored and before the next shallower layer consumes them.
// Config.DropoutMode decides which gradient each mask is applied to:
//
//	DropoutByLayer:      dA_{l-1} ⊙ D_l, l = L-1..1
//	DropoutByActivation: dA_l ⊙ D_l,     l = L-1..1
//
// Returns ErrMaskShape, before any work is done, if a mask does not have the
// shape of the gradient it is paired with.
func (e *Engine) BackwardDropout(
	al *mat.Dense,
	y mat.Matrix,
	caches []nn.Cache,
	masks []*mat.Dense,
	keepProb float64,
) (*nn.Gradients, error) {
	if err := checkKeepProb(keepProb); err != nil {
		return nil, fmt.Errorf("backward dropout: %w", err)
	}
	if len(caches) > 0 && len(masks) != len(caches)-1 {
		return nil, fmt.Errorf("backward dropout: %w: %d masks for %d layers",
			ErrMaskCount, len(masks), len(caches))
	}

	// maskFor returns the mask applied to dA_{l-1}, the gradient produced
	// by layer l, or nil.
	maskFor := func(l int) *mat.Dense {
		switch {
		case e.cfg.DropoutMode == DropoutByActivation && l > 1:
			return masks[l-2]
		case e.cfg.DropoutMode != DropoutByActivation && l < len(caches):
			return masks[l-1]
		default:
			return nil
		}
	}

	for l := 1; l <= len(caches); l++ {
		d := maskFor(l)
		if d == nil {
			continue
		}
		// dA_{l-1} has the shape of layer l's input.
		gr, gc := caches[l-1].APrev.Dims()
		if dr, dc := d.Dims(); dr != gr || dc != gc {
			return nil, fmt.Errorf("backward dropout: %w: %s mode pairs a [%d, %d] mask with dA%d [%d, %d]",
				ErrMaskShape, e.cfg.DropoutMode, dr, dc, l-1, gr, gc)
		}
	}

	grads, err := e.backward(al, y, caches, backwardHooks{
		mask: func(l int, dAPrev *mat.Dense) *mat.Dense {
			if d := maskFor(l); d != nil {
				return applyMask(dAPrev, d, keepProb)
			}
			return dAPrev
		},
	})
	if err != nil {
		return nil, fmt.Errorf("backward dropout: %w", err)
	}
	return grads, nil
}

// backwardHooks customize the shared backward loop.
type backwardHooks struct {
	// regularize adjusts dW and db in place right after a layer's
	// backward step.
	regularize func(cache nn.Cache, dW, db *mat.Dense)

	// mask replaces dA_{l-1}, the gradient produced by layer l (1-based),
	// before it is stored and propagated.
	mask func(l int, dAPrev *mat.Dense) *mat.Dense
}

func (e *Engine) backward(al *mat.Dense, y mat.Matrix, caches []nn.Cache, h backwardHooks) (*nn.Gradients, error) {
	numLayers := len(caches)
	if numLayers == 0 {
		return nil, ErrNoCaches
	}

	labels, err := ReshapeLabels(y, al)
	if err != nil {
		return nil, err
	}

	grads := nn.NewGradients(numLayers)
	dA := e.outputGradient(al, labels)

	for l := numLayers; l >= 1; l-- {
		kind := nn.ReLU
		if l == numLayers {
			kind = nn.Sigmoid
		}

		cache := caches[l-1]
		dAPrev, dW, db := e.prim.Backward(dA, cache, kind)

		if h.regularize != nil {
			h.regularize(cache, dW, db)
		}
		if h.mask != nil {
			dAPrev = h.mask(l, dAPrev)
		}

		grads.Layers[l-1] = nn.LayerGrads{DW: dW, DB: db}
		grads.DA[l-1] = dAPrev
		dA = dAPrev
	}

	return grads, nil
}

// outputGradient computes dAL, the derivative of the cross-entropy cost
// with respect to AL.
func (e *Engine) outputGradient(al, y *mat.Dense) *mat.Dense {
	eps := e.cfg.Epsilon

	dAL := new(mat.Dense)
	dAL.Apply(func(i, j int, a float64) float64 {
		if eps > 0 {
			a = min(max(a, eps), 1-eps)
		}
		t := y.At(i, j)
		return -(t/a - (1-t)/(1-a))
	}, al)
	return dAL
}
