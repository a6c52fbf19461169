package optim

import (
	"fmt"

	"github.com/born-ml/deepnet/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// SGD implements plain gradient descent.
//
// Update rule:
//
//	param = param - lr * gradient
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//	params, err := optimizer.Step(params, grads)
type SGD struct {
	lr float64
}

var _ Optimizer = (*SGD)(nil)

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR float64 // Learning rate (default: 0.01)
}

// NewSGD creates a new SGD optimizer. A zero LR selects the default; use
// SetLR to run with a learning rate of exactly 0.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD{lr: config.LR}
}

// Step performs a single gradient descent step on every layer.
//
// Returns an error if params and grads disagree on the layer count or a
// layer gradient is missing. Panics (from gonum) if a gradient does not have
// its parameter's shape.
func (s *SGD) Step(params *nn.Parameters, grads *nn.Gradients) (*nn.Parameters, error) {
	if params.NumLayers() != grads.NumLayers() {
		return nil, fmt.Errorf("sgd: %w: %d parameter layers, %d gradient layers",
			nn.ErrLayerMismatch, params.NumLayers(), grads.NumLayers())
	}

	for i, lg := range grads.Layers {
		if lg.DW == nil || lg.DB == nil {
			return nil, fmt.Errorf("sgd: missing gradient for layer %d", i+1)
		}
	}

	for i := range params.Layers {
		lp, lg := params.Layers[i], grads.Layers[i]
		s.updateParameter(lp.W, lg.DW)
		s.updateParameter(lp.B, lg.DB)
	}

	return params, nil
}

// updateParameter performs param -= lr * grad in place.
func (s *SGD) updateParameter(param, grad *mat.Dense) {
	var scaled mat.Dense
	scaled.Scale(s.lr, grad)
	param.Sub(param, &scaled)
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}

// UpdateParameters applies one gradient descent step with the given
// learning rate and returns the updated (same) parameter set.
func UpdateParameters(params *nn.Parameters, grads *nn.Gradients, learningRate float64) (*nn.Parameters, error) {
	sgd := &SGD{lr: learningRate}
	return sgd.Step(params, grads)
}
