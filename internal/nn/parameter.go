package nn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrMalformedParameters is returned when a parameter set does not
	// describe a valid chain of layers.
	ErrMalformedParameters = errors.New("nn: malformed parameter set")

	// ErrLayerMismatch is returned when two per-layer collections that must
	// line up (parameters, gradients, caches) have different lengths.
	ErrLayerMismatch = errors.New("nn: layer count mismatch")
)

// LayerParams holds the trainable weight and bias of one layer.
type LayerParams struct {
	W *mat.Dense // [n_l, n_{l-1}]
	B *mat.Dense // [n_l, 1], broadcast across samples
}

// Parameters is the ordered set of per-layer weights and biases.
//
// Layer l of the network (1-based, as in the math) is stored at Layers[l-1].
// The layer count is len(Layers); it is never derived from anything else.
//
// Parameters is updated in place by the optimizer. After an update the
// caller must treat the returned pointer as the only valid reference.
type Parameters struct {
	Layers []LayerParams
}

// NewParameters creates a parameter set from the given layers, first to last.
func NewParameters(layers ...LayerParams) *Parameters {
	return &Parameters{Layers: layers}
}

// NumLayers returns L.
func (p *Parameters) NumLayers() int {
	return len(p.Layers)
}

// Layer returns the parameters of layer l, 1-based.
func (p *Parameters) Layer(l int) LayerParams {
	return p.Layers[l-1]
}

// InputDim returns n_0, the feature count the first layer expects.
func (p *Parameters) InputDim() int {
	_, c := p.Layers[0].W.Dims()
	return c
}

// Dims returns the unit count of every layer, starting with the input.
func (p *Parameters) Dims() []int {
	dims := make([]int, 0, len(p.Layers)+1)
	dims = append(dims, p.InputDim())
	for _, lp := range p.Layers {
		r, _ := lp.W.Dims()
		dims = append(dims, r)
	}
	return dims
}

// Validate checks that the set describes a binary classifier: at least one
// layer, a column bias per layer, chained weight shapes, and a single output
// unit.
func (p *Parameters) Validate() error {
	if p == nil || len(p.Layers) == 0 {
		return fmt.Errorf("%w: no layers", ErrMalformedParameters)
	}

	prevRows := -1
	for i, lp := range p.Layers {
		l := i + 1
		if lp.W == nil || lp.B == nil {
			return fmt.Errorf("%w: layer %d is missing W or b", ErrMalformedParameters, l)
		}

		wr, wc := lp.W.Dims()
		br, bc := lp.B.Dims()
		if bc != 1 || br != wr {
			return fmt.Errorf("%w: layer %d bias shape [%d, %d], want [%d, 1]",
				ErrMalformedParameters, l, br, bc, wr)
		}
		if prevRows >= 0 && wc != prevRows {
			return fmt.Errorf("%w: layer %d weight has %d columns, previous layer has %d units",
				ErrMalformedParameters, l, wc, prevRows)
		}
		prevRows = wr
	}

	if prevRows != 1 {
		return fmt.Errorf("%w: output layer has %d units, want 1", ErrMalformedParameters, prevRows)
	}

	return nil
}

// Clone returns a deep copy of the parameter set.
func (p *Parameters) Clone() *Parameters {
	layers := make([]LayerParams, len(p.Layers))
	for i, lp := range p.Layers {
		layers[i] = LayerParams{
			W: mat.DenseCopyOf(lp.W),
			B: mat.DenseCopyOf(lp.B),
		}
	}
	return &Parameters{Layers: layers}
}
