// Package optim implements the parameter update step of training.
//
// Only plain gradient descent is provided:
//
//	W_l = W_l - lr * dW_l
//	b_l = b_l - lr * db_l
//
// Example usage:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.0075})
//
//	for i := range iterations {
//	    al, caches, _ := engine.Forward(x, params)
//	    grads, _ := engine.Backward(al, y, caches)
//	    params, _ = optimizer.Step(params, grads)
//	}
package optim

import (
	"github.com/born-ml/deepnet/internal/nn"
)

// Optimizer updates a parameter set from the gradients of one backward pass.
type Optimizer interface {
	// Step applies the gradients to params in place and returns params.
	//
	// The returned pointer is the only valid reference afterwards; no other
	// reader may observe the set during the update.
	Step(params *nn.Parameters, grads *nn.Gradients) (*nn.Parameters, error)

	// GetLR returns the current learning rate.
	GetLR() float64
}

