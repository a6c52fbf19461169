package nn

import (
	"fmt"
	"math"
)

// Kind selects the nonlinearity applied after a layer's linear transform.
type Kind int

const (
	// ReLU applies f(z) = max(0, z). Used by every hidden layer.
	ReLU Kind = iota

	// Sigmoid applies σ(z) = 1 / (1 + exp(-z)). Used by the output layer,
	// so the network emits probabilities in (0, 1).
	Sigmoid
)

// String returns the activation tag ("relu" or "sigmoid").
func (k Kind) String() string {
	switch k {
	case ReLU:
		return "relu"
	case Sigmoid:
		return "sigmoid"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps an activation tag back to its Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "relu":
		return ReLU, nil
	case "sigmoid":
		return Sigmoid, nil
	default:
		return 0, fmt.Errorf("nn: unknown activation %q", s)
	}
}

// Activate computes the activation of a single pre-activation value.
func (k Kind) Activate(z float64) float64 {
	switch k {
	case ReLU:
		if z > 0 {
			return z
		}
		return 0
	case Sigmoid:
		return sigmoid(z)
	default:
		panic(fmt.Sprintf("nn: unsupported activation %v", k))
	}
}

// Derivative computes dA/dZ at z.
//
// ReLU is treated as flat at z == 0.
func (k Kind) Derivative(z float64) float64 {
	switch k {
	case ReLU:
		if z > 0 {
			return 1
		}
		return 0
	case Sigmoid:
		s := sigmoid(z)
		return s * (1 - s)
	default:
		panic(fmt.Sprintf("nn: unsupported activation %v", k))
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
