package nn

import (
	"gonum.org/v1/gonum/mat"
)

// LayerGrads holds the gradients of one layer's parameters.
type LayerGrads struct {
	DW *mat.Dense // Same shape as LayerParams.W
	DB *mat.Dense // Same shape as LayerParams.B
}

// Gradients is the result of one backward pass.
//
// Layers[l-1] holds dW_l and db_l for l = 1..L. DA[l] holds dA_l, the
// gradient of the cost with respect to the activation of layer l, for
// l = 0..L-1 (DA[0] is the gradient with respect to the input X).
type Gradients struct {
	Layers []LayerGrads
	DA     []*mat.Dense
}

// NewGradients allocates an empty gradient set for L layers.
func NewGradients(numLayers int) *Gradients {
	return &Gradients{
		Layers: make([]LayerGrads, numLayers),
		DA:     make([]*mat.Dense, numLayers),
	}
}

// NumLayers returns L.
func (g *Gradients) NumLayers() int {
	return len(g.Layers)
}

// Layer returns dW_l and db_l, 1-based.
func (g *Gradients) Layer(l int) LayerGrads {
	return g.Layers[l-1]
}

// Len counts the populated entries. A complete backward pass over L layers
// yields 3L: dW and db per layer plus dA_0..dA_{L-1}.
func (g *Gradients) Len() int {
	n := 0
	for _, lg := range g.Layers {
		if lg.DW != nil {
			n++
		}
		if lg.DB != nil {
			n++
		}
	}
	for _, da := range g.DA {
		if da != nil {
			n++
		}
	}
	return n
}
