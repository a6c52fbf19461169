// Package model drives an L-layer feed-forward binary classifier:
// [LINEAR -> RELU] x (L-1) -> LINEAR -> SIGMOID.
//
// The Engine runs forward and backward propagation layer by layer through an
// nn.Primitive, keeping the manually derived gradient chain explicit. Three
// backward variants exist: plain, L2-regularized and dropout-masked.
//
// Basic usage:
//
//	engine := model.NewEngine(nil, model.DefaultConfig())
//
//	al, caches, err := engine.Forward(x, params)
//	grads, err := engine.Backward(al, y, caches)
//	params, err = optim.UpdateParameters(params, grads, 0.0075)
//
// Layers never run concurrently; only the elementwise work inside one layer
// may be split across goroutines (see Config.Parallel).
package model

import (
	"errors"
	"fmt"

	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/parallel"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoCaches is returned when backward propagation receives no caches.
	ErrNoCaches = errors.New("model: no layer caches")

	// ErrLabelShape is returned when labels cannot be reshaped to the
	// predictions' shape.
	ErrLabelShape = errors.New("model: labels do not match predictions")

	// ErrKeepProb is returned when keep_prob is outside (0, 1].
	ErrKeepProb = errors.New("model: keep_prob must be in (0, 1]")

	// ErrMaskCount is returned when the dropout mask list does not hold one
	// mask per hidden layer.
	ErrMaskCount = errors.New("model: dropout mask count mismatch")

	// ErrMaskShape is returned when a dropout mask cannot be applied to the
	// gradient the DropoutMode pairs it with.
	ErrMaskShape = errors.New("model: dropout mask shape mismatch")
)

// L2Mode selects how BackwardL2 adds the regularization term.
type L2Mode int

const (
	// L2GradientScale adds (lambd/m)·dW_l to dW_l and (lambd/m)·db_l to db_l.
	// It is the default so existing training runs keep their numbers, even
	// though it is not the gradient of the (lambd/2m)·‖W‖² penalty.
	L2GradientScale L2Mode = iota

	// L2WeightDecay adds (lambd/m)·W_l to dW_l and leaves db_l untouched,
	// which is the gradient of the (lambd/2m)·‖W‖² penalty.
	L2WeightDecay
)

// String returns the mode name.
func (m L2Mode) String() string {
	switch m {
	case L2GradientScale:
		return "gradient-scale"
	case L2WeightDecay:
		return "weight-decay"
	default:
		return fmt.Sprintf("L2Mode(%d)", int(m))
	}
}

// DropoutMode selects which gradients BackwardDropout masks.
type DropoutMode int

const (
	// DropoutByLayer masks the gradient leaving each hidden layer: after
	// layer l (l = L-1..1) is differentiated, dA_{l-1} is multiplied by D_l,
	// the mask drawn for that layer's activation, and divided by keep_prob.
	// dA_{L-1} is never masked. The shapes only agree when n_{l-1} = n_l, so
	// any other network is rejected with ErrMaskShape.
	DropoutByLayer DropoutMode = iota

	// DropoutByActivation masks the gradient of each dropped activation:
	// dA_l (l = L-1..1) is multiplied by D_l and divided by keep_prob, and
	// dA_0 is never masked. This is the gradient of the dropout forward pass
	// for any layer widths.
	DropoutByActivation
)

// String returns the mode name.
func (m DropoutMode) String() string {
	switch m {
	case DropoutByLayer:
		return "layer"
	case DropoutByActivation:
		return "activation"
	default:
		return fmt.Sprintf("DropoutMode(%d)", int(m))
	}
}

// ParseDropoutMode returns the mode named by s ("layer" or "activation").
func ParseDropoutMode(s string) (DropoutMode, error) {
	switch s {
	case "layer":
		return DropoutByLayer, nil
	case "activation":
		return DropoutByActivation, nil
	default:
		return 0, fmt.Errorf("model: unknown dropout mode %q", s)
	}
}

// DefaultEpsilon is the default clamp applied to AL before the
// cross-entropy gradient divides by AL and 1-AL.
const DefaultEpsilon = 1e-12

// Config holds configuration for the propagation engine.
type Config struct {
	// Epsilon clamps AL into [Epsilon, 1-Epsilon] when computing dAL.
	// Zero selects DefaultEpsilon. A negative value disables the clamp, so an
	// AL of exactly 0 or 1 produces non-finite gradients.
	Epsilon float64

	// L2Mode selects the BackwardL2 formula (default: L2GradientScale).
	L2Mode L2Mode

	// DropoutMode selects the BackwardDropout masking (default:
	// DropoutByLayer).
	DropoutMode DropoutMode

	// Parallel configures the default primitive's intra-layer parallelism.
	// Ignored when a primitive is supplied to NewEngine.
	Parallel parallel.Config
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Epsilon:     DefaultEpsilon,
		L2Mode:      L2GradientScale,
		DropoutMode: DropoutByLayer,
		Parallel:    parallel.DefaultConfig(),
	}
}

// Engine runs forward and backward propagation. It holds no per-pass state
// and is safe to reuse across training iterations.
type Engine struct {
	prim nn.Primitive
	cfg  Config
}

// NewEngine creates an engine over the given layer primitive. A nil prim
// selects nn.LinearActivation configured with cfg.Parallel.
func NewEngine(prim nn.Primitive, cfg Config) *Engine {
	if cfg.Epsilon == 0 {
		cfg.Epsilon = DefaultEpsilon
	}
	if prim == nil {
		prim = nn.NewLinearActivation(cfg.Parallel)
	}

	return &Engine{prim: prim, cfg: cfg}
}

// Config returns the engine configuration after defaults were applied.
func (e *Engine) Config() Config {
	return e.cfg
}

func checkKeepProb(keepProb float64) error {
	if !(keepProb > 0 && keepProb <= 1) {
		return fmt.Errorf("%w: got %v", ErrKeepProb, keepProb)
	}
	return nil
}

// ReshapeLabels copies y into a new matrix of al's shape, row-major.
// y must hold exactly as many elements as al; a [m, 1] column of labels is
// accepted for [1, m] predictions.
func ReshapeLabels(y mat.Matrix, al *mat.Dense) (*mat.Dense, error) {
	yr, yc := y.Dims()
	ar, ac := al.Dims()
	if yr*yc != ar*ac {
		return nil, fmt.Errorf("%w: labels [%d, %d], predictions [%d, %d]", ErrLabelShape, yr, yc, ar, ac)
	}

	data := mat.DenseCopyOf(y).RawMatrix().Data
	return mat.NewDense(ar, ac, data), nil
}
