// Package train runs the gradient descent loop over the propagation engine:
// forward, cost, backward, update, repeated for a fixed number of
// iterations.
package train

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/born-ml/deepnet/internal/model"
	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/optim"
	"gonum.org/v1/gonum/mat"
)

// ErrConflictingRegularization is returned when both L2 regularization and
// dropout are requested. At most one regularizer runs per training.
var ErrConflictingRegularization = errors.New("train: L2 and dropout cannot be combined")

// Config holds the training hyperparameters.
type Config struct {
	Iterations   int     // Gradient steps (default: 3000)
	LearningRate float64 // Step size (default: 0.0075)
	Lambda       float64 // L2 strength, 0 disables L2
	KeepProb     float64 // Dropout keep probability, 0 or 1 disables dropout
	PrintEvery   int     // Log and record the cost every N iterations (default: 100, negative: never)
	Seed         uint64  // Seed of the dropout mask source
}

// DefaultConfig returns the default hyperparameters.
func DefaultConfig() Config {
	return Config{
		Iterations:   3000,
		LearningRate: 0.0075,
		KeepProb:     1,
		PrintEvery:   100,
	}
}

// Trainer fits a parameter set to labelled data.
type Trainer struct {
	engine    *model.Engine
	optimizer *optim.SGD
	sampler   model.MaskSampler
	cfg       Config
	out       io.Writer
}

// New creates a trainer. Zero fields of cfg take their defaults. A nil
// engine uses model.DefaultConfig; a nil out logs to os.Stdout.
//
// Returns an error if the configuration is out of range or combines L2 with
// dropout.
func New(engine *model.Engine, cfg Config, out io.Writer) (*Trainer, error) {
	def := DefaultConfig()
	if cfg.Iterations == 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.KeepProb == 0 {
		cfg.KeepProb = def.KeepProb
	}
	if cfg.PrintEvery == 0 {
		cfg.PrintEvery = def.PrintEvery
	}

	switch {
	case cfg.Iterations < 0:
		return nil, fmt.Errorf("train: negative iteration count %d", cfg.Iterations)
	case cfg.Lambda < 0:
		return nil, fmt.Errorf("train: negative L2 strength %v", cfg.Lambda)
	case cfg.KeepProb < 0 || cfg.KeepProb > 1:
		return nil, fmt.Errorf("train: %w: got %v", model.ErrKeepProb, cfg.KeepProb)
	case cfg.Lambda > 0 && cfg.KeepProb < 1:
		return nil, ErrConflictingRegularization
	}

	if engine == nil {
		engine = model.NewEngine(nil, model.DefaultConfig())
	}
	if out == nil {
		out = os.Stdout
	}

	return &Trainer{
		engine:    engine,
		optimizer: optim.NewSGD(optim.SGDConfig{LR: cfg.LearningRate}),
		sampler:   model.NewBernoulliSampler(rand.NewPCG(cfg.Seed, cfg.Seed+1)),
		cfg:       cfg,
		out:       out,
	}, nil
}

// Run trains params in place on x [n_0, m] and labels y (m elements).
//
// Every PrintEvery iterations, and on the last one, the cost is logged as
//
//	Cost after iteration 100: 0.672765
//
// and appended to the returned cost history.
func (t *Trainer) Run(x *mat.Dense, y mat.Matrix, params *nn.Parameters) (*nn.Parameters, []float64, error) {
	var costs []float64

	for i := 0; i < t.cfg.Iterations; i++ {
		grads, cost, err := t.step(x, y, params, t.shouldLog(i))
		if err != nil {
			return nil, costs, fmt.Errorf("train: iteration %d: %w", i, err)
		}

		params, err = t.optimizer.Step(params, grads)
		if err != nil {
			return nil, costs, fmt.Errorf("train: iteration %d: %w", i, err)
		}

		if t.shouldLog(i) {
			fmt.Fprintf(t.out, "Cost after iteration %d: %f\n", i, cost)
			costs = append(costs, cost)
		}
	}

	return params, costs, nil
}

func (t *Trainer) shouldLog(i int) bool {
	if t.cfg.PrintEvery < 0 {
		return false
	}
	return i%t.cfg.PrintEvery == 0 || i == t.cfg.Iterations-1
}

// step runs one forward and backward pass with the configured regularizer.
// The cost is only computed when withCost is set.
func (t *Trainer) step(x *mat.Dense, y mat.Matrix, params *nn.Parameters, withCost bool) (*nn.Gradients, float64, error) {
	var (
		al     *mat.Dense
		caches []nn.Cache
		masks  []*mat.Dense
		err    error
	)

	dropout := t.cfg.KeepProb < 1
	if dropout {
		al, caches, masks, err = t.engine.ForwardDropout(x, params, t.cfg.KeepProb, t.sampler)
	} else {
		al, caches, err = t.engine.Forward(x, params)
	}
	if err != nil {
		return nil, 0, err
	}

	var cost float64
	if withCost {
		labels, err := model.ReshapeLabels(y, al)
		if err != nil {
			return nil, 0, err
		}
		if t.cfg.Lambda > 0 {
			cost = nn.CrossEntropyCostL2(al, labels, params, t.cfg.Lambda)
		} else {
			cost = nn.CrossEntropyCost(al, labels)
		}
	}

	var grads *nn.Gradients
	switch {
	case dropout:
		grads, err = t.engine.BackwardDropout(al, y, caches, masks, t.cfg.KeepProb)
	case t.cfg.Lambda > 0:
		grads, err = t.engine.BackwardL2(al, y, caches, t.cfg.Lambda)
	default:
		grads, err = t.engine.Backward(al, y, caches)
	}
	if err != nil {
		return nil, 0, err
	}

	return grads, cost, nil
}
