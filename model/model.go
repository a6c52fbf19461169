// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package model

import (
	"io"
	"math/rand/v2"

	"github.com/born-ml/deepnet/internal/model"
	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/train"
	"gonum.org/v1/gonum/mat"
)

// Errors returned by the engine and trainer.
var (
	ErrNoCaches                  = model.ErrNoCaches
	ErrLabelShape                = model.ErrLabelShape
	ErrKeepProb                  = model.ErrKeepProb
	ErrMaskCount                 = model.ErrMaskCount
	ErrMaskShape                 = model.ErrMaskShape
	ErrConflictingRegularization = train.ErrConflictingRegularization
)

// Engine

// Engine runs forward and backward propagation.
type Engine = model.Engine

// Config holds configuration for the propagation engine.
type Config = model.Config

// L2Mode selects how BackwardL2 adds the regularization term.
type L2Mode = model.L2Mode

// L2 gradient formulas.
const (
	L2GradientScale = model.L2GradientScale
	L2WeightDecay   = model.L2WeightDecay
)

// DropoutMode selects which gradients BackwardDropout masks.
type DropoutMode = model.DropoutMode

// Dropout gradient masking.
const (
	DropoutByLayer      = model.DropoutByLayer
	DropoutByActivation = model.DropoutByActivation
)

// ParseDropoutMode returns the mode named by s ("layer" or "activation").
func ParseDropoutMode(s string) (DropoutMode, error) {
	return model.ParseDropoutMode(s)
}

// DefaultEpsilon is the default clamp applied to AL in the output gradient.
const DefaultEpsilon = model.DefaultEpsilon

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return model.DefaultConfig()
}

// NewEngine creates an engine. A nil prim selects the dense primitive.
//
// Example:
//
//	engine := model.NewEngine(nil, model.DefaultConfig())
//	al, caches, err := engine.Forward(x, params)
//	grads, err := engine.Backward(al, y, caches)
func NewEngine(prim nn.Primitive, cfg Config) *Engine {
	return model.NewEngine(prim, cfg)
}

// Dropout

// MaskSampler draws dropout masks.
type MaskSampler = model.MaskSampler

// BernoulliSampler draws masks with independent Bernoulli entries.
type BernoulliSampler = model.BernoulliSampler

// NewBernoulliSampler creates a mask sampler over src. A nil src uses the
// global random source.
func NewBernoulliSampler(src rand.Source) *BernoulliSampler {
	return model.NewBernoulliSampler(src)
}

// Prediction

// Threshold is the probability above which a sample is classified as 1.
const Threshold = model.Threshold

// Predictor classifies samples and reports accuracy.
type Predictor = model.Predictor

// NewPredictor creates a predictor writing its reports to out.
func NewPredictor(engine *Engine, out io.Writer) *Predictor {
	return model.NewPredictor(engine, out)
}

// Classify maps probabilities to 0/1 predictions.
func Classify(probas *mat.Dense) *mat.Dense {
	return model.Classify(probas)
}

// Accuracy returns the fraction of predictions equal to the labels.
func Accuracy(pred *mat.Dense, y mat.Matrix) (float64, error) {
	return model.Accuracy(pred, y)
}

// Training

// Trainer runs the gradient descent loop.
type Trainer = train.Trainer

// TrainConfig holds the training hyperparameters.
type TrainConfig = train.Config

// DefaultTrainConfig returns the default hyperparameters.
func DefaultTrainConfig() TrainConfig {
	return train.DefaultConfig()
}

// NewTrainer creates a trainer logging its cost history to out.
//
// Example:
//
//	trainer, err := model.NewTrainer(nil, model.TrainConfig{Lambda: 0.7}, os.Stdout)
//	params, costs, err := trainer.Run(x, y, params)
func NewTrainer(engine *Engine, cfg TrainConfig, out io.Writer) (*Trainer, error) {
	return train.New(engine, cfg, out)
}
