// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/optim"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD (Stochastic Gradient Descent)

// SGD represents the plain gradient descent optimizer.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.0075})
//	params, err := optimizer.Step(params, grads)
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}

// UpdateParameters applies W_l -= learningRate * dW_l and
// b_l -= learningRate * db_l for every layer and returns params.
func UpdateParameters(params *nn.Parameters, grads *nn.Gradients, learningRate float64) (*nn.Parameters, error) {
	return optim.UpdateParameters(params, grads, learningRate)
}
