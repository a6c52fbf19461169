// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layer primitive, parameter sets and cost functions
// of a feed-forward binary classifier.
//
// # Overview
//
// This package contains:
//   - Primitive: one LINEAR -> ACTIVATION step, forward and backward
//   - Activations: ReLU, Sigmoid
//   - Parameters and Gradients: per-layer W, b and dW, db, dA
//   - Initialization: InitDeep (He normal weights, zero biases)
//   - Costs: CrossEntropyCost, CrossEntropyCostL2
//   - Checkpoints: SaveParameters, LoadParameters (SafeTensors, F64)
//
// # Basic Usage
//
//	import (
//	    "log"
//	    "math/rand/v2"
//
//	    "github.com/born-ml/deepnet/nn"
//	)
//
//	func main() {
//	    params, err := nn.InitDeep([]int{12288, 20, 7, 5, 1}, rand.NewPCG(1, 2))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // ... forward pass with the model package ...
//	    cost := nn.CrossEntropyCost(al, y)
//	}
//
// # Shapes
//
// Matrices are gonum *mat.Dense. Samples are columns: X is [n_0, m],
// W_l is [n_l, n_{l-1}], b_l is [n_l, 1] and the output layer has one unit.
package nn
