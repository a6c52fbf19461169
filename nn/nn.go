// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/parallel"
	"github.com/born-ml/deepnet/internal/serialization"
	"gonum.org/v1/gonum/mat"
)

// Activations

// Kind identifies an activation function.
type Kind = nn.Kind

// Supported activations.
const (
	ReLU    = nn.ReLU
	Sigmoid = nn.Sigmoid
)

// ParseKind returns the activation named by s ("relu" or "sigmoid").
func ParseKind(s string) (Kind, error) {
	return nn.ParseKind(s)
}

// Layer primitive

// ParallelConfig controls how LinearActivation splits row work across
// goroutines.
type ParallelConfig = parallel.Config

// DefaultParallelConfig returns a ParallelConfig sized to the CPU count.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// Cache holds the values one forward step keeps for its backward step.
type Cache = nn.Cache

// Primitive computes one LINEAR -> ACTIVATION step and its gradients.
type Primitive = nn.Primitive

// LinearActivation is the dense Primitive.
type LinearActivation = nn.LinearActivation

// NewLinearActivation creates the dense primitive.
//
// Example:
//
//	prim := nn.NewLinearActivation(nn.DefaultParallelConfig())
//	a, cache := prim.Forward(x, w, b, nn.ReLU)
func NewLinearActivation(cfg ParallelConfig) *LinearActivation {
	return nn.NewLinearActivation(cfg)
}

// Parameters

// Errors returned by parameter and gradient validation.
var (
	ErrMalformedParameters = nn.ErrMalformedParameters
	ErrLayerMismatch       = nn.ErrLayerMismatch
)

// LayerParams holds the weights and bias of one layer.
type LayerParams = nn.LayerParams

// Parameters is an ordered set of layer parameters.
type Parameters = nn.Parameters

// NewParameters creates a parameter set from layers 1..L in order.
func NewParameters(layers ...LayerParams) *Parameters {
	return nn.NewParameters(layers...)
}

// LayerGrads holds the gradients of one layer.
type LayerGrads = nn.LayerGrads

// Gradients holds dW, db and dA for every layer.
type Gradients = nn.Gradients

// NewGradients creates an empty gradient set for numLayers layers.
func NewGradients(numLayers int) *Gradients {
	return nn.NewGradients(numLayers)
}

// InitDeep creates parameters for the given layer sizes with He normal
// weights and zero biases. A nil src uses the global random source.
//
// Example:
//
//	params, err := nn.InitDeep([]int{5, 4, 3, 1}, rand.NewPCG(1, 2))
func InitDeep(layerDims []int, src rand.Source) (*Parameters, error) {
	return nn.InitDeep(layerDims, src)
}

// Costs

// CrossEntropyCost returns the binary cross-entropy cost of AL against Y.
func CrossEntropyCost(al, y mat.Matrix) float64 {
	return nn.CrossEntropyCost(al, y)
}

// CrossEntropyCostL2 returns the cross-entropy cost plus the L2 penalty
// (lambd/2m)·Σ‖W_l‖².
func CrossEntropyCostL2(al, y mat.Matrix, params *Parameters, lambd float64) float64 {
	return nn.CrossEntropyCostL2(al, y, params, lambd)
}

// Checkpoints

// SaveParameters writes params to a SafeTensors file. metadata is stored in
// the header next to the layer count and a SHA-256 of the tensor data.
//
// Example:
//
//	err := nn.SaveParameters("model.safetensors", params, map[string]string{"epoch": "2500"})
func SaveParameters(path string, params *Parameters, metadata map[string]string) error {
	return serialization.SaveParameters(path, params, metadata)
}

// LoadParameters reads a parameter set written by SaveParameters and returns
// it with the header metadata.
func LoadParameters(path string) (*Parameters, map[string]string, error) {
	return serialization.LoadParameters(path)
}
