// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model runs an L-layer feed-forward binary classifier:
// [LINEAR -> RELU] x (L-1) -> LINEAR -> SIGMOID.
//
// # Overview
//
// This package contains:
//   - Engine: forward propagation, plain or with inverted dropout
//   - Engine: backward propagation, plain, L2-regularized or dropout-masked
//   - Predictor: thresholded classification with an accuracy report
//   - Trainer: the full gradient descent loop with cost logging
//
// # Basic Usage
//
//	import (
//	    "log"
//	    "math/rand/v2"
//	    "os"
//
//	    "github.com/born-ml/deepnet/model"
//	    "github.com/born-ml/deepnet/nn"
//	)
//
//	func main() {
//	    params, _ := nn.InitDeep([]int{12288, 20, 7, 5, 1}, rand.NewPCG(1, 2))
//
//	    trainer, err := model.NewTrainer(nil, model.TrainConfig{
//	        Iterations:   2500,
//	        LearningRate: 0.0075,
//	    }, os.Stdout)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    params, costs, err := trainer.Run(trainX, trainY, params)
//
//	    predictor := model.NewPredictor(nil, os.Stdout)
//	    _, err = predictor.Predict(testX, testY, params, false)
//	}
//
// # Regularization
//
// Dropout (TrainConfig.KeepProb < 1) and L2 (TrainConfig.Lambda > 0) are
// mutually exclusive. Config.L2Mode selects the L2 gradient formula and
// Config.DropoutMode which gradients the dropout masks scale. The default
// DropoutByLayer only accepts hidden layers as wide as their input; use
// DropoutByActivation for other shapes.
package model
