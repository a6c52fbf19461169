package nn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// InitDeep creates parameters for a network with the given unit counts,
// layerDims[0] being the input feature count and the last entry the output
// unit count.
//
// Weights use He initialization, N(0, 2/n_{l-1}), which suits ReLU hidden
// layers. Biases start at zero. A nil src draws from the global source.
//
// Example:
//
//	params, err := nn.InitDeep([]int{12288, 20, 7, 5, 1}, rand.NewPCG(1, 2))
func InitDeep(layerDims []int, src rand.Source) (*Parameters, error) {
	if len(layerDims) < 2 {
		return nil, fmt.Errorf("nn: need at least input and output dims, got %v", layerDims)
	}
	for i, d := range layerDims {
		if d < 1 {
			return nil, fmt.Errorf("nn: layer %d has %d units", i, d)
		}
	}

	layers := make([]LayerParams, len(layerDims)-1)
	for l := 1; l < len(layerDims); l++ {
		fanIn, fanOut := layerDims[l-1], layerDims[l]

		dist := distuv.Normal{Mu: 0, Sigma: math.Sqrt(2.0 / float64(fanIn)), Src: src}
		data := make([]float64, fanOut*fanIn)
		for i := range data {
			data[i] = dist.Rand()
		}

		layers[l-1] = LayerParams{
			W: mat.NewDense(fanOut, fanIn, data),
			B: mat.NewDense(fanOut, 1, nil),
		}
	}

	return &Parameters{Layers: layers}, nil
}
