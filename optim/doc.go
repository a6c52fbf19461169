// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the gradient descent update for training the
// classifier.
//
// # Overview
//
// This package contains:
//   - SGD: plain gradient descent, W = W - lr * dW and b = b - lr * db
//   - UpdateParameters: a one-shot SGD step with an explicit learning rate
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/deepnet/model"
//	    "github.com/born-ml/deepnet/optim"
//	)
//
//	func main() {
//	    engine := model.NewEngine(nil, model.DefaultConfig())
//	    optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.0075})
//
//	    for i := 0; i < 3000; i++ {
//	        al, caches, _ := engine.Forward(x, params)
//	        grads, _ := engine.Backward(al, y, caches)
//	        params, _ = optimizer.Step(params, grads)
//	    }
//	}
//
// Updates happen in place. The returned parameter set is the same pointer
// that was passed in.
package optim
