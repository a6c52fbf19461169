package nn

import (
	"fmt"

	"github.com/born-ml/deepnet/internal/parallel"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Cache holds what a layer's forward step saved for its backward step.
//
// The matrices are shared with the forward pass and must not be mutated
// until the matching backward step has consumed the cache.
type Cache struct {
	APrev *mat.Dense // Input activation, shape [n_{l-1}, m]
	W     *mat.Dense // Weight, shape [n_l, n_{l-1}]
	B     *mat.Dense // Bias, shape [n_l, 1]
	Z     *mat.Dense // Pre-activation, shape [n_l, m]
	Kind  Kind
}

// Primitive computes one layer's linear transform plus activation, and the
// gradients of that step.
//
// The propagation engine drives L layers through this interface only, which
// lets tests substitute fixed outputs for the real arithmetic.
type Primitive interface {
	// Forward computes Z = W·aPrev + b and A = kind(Z).
	Forward(aPrev, w, b *mat.Dense, kind Kind) (*mat.Dense, Cache)

	// Backward computes, with m the sample count:
	//
	//	dZ     = dA ⊙ kind'(Z)
	//	dW     = dZ·aPrevᵀ / m
	//	db     = rowsum(dZ) / m
	//	dAPrev = Wᵀ·dZ
	Backward(dA *mat.Dense, cache Cache, kind Kind) (dAPrev, dW, db *mat.Dense)
}

// LinearActivation is the default Primitive on top of gonum dense matrices.
//
// Matrix products go through gonum's BLAS. Elementwise activation work is
// split by rows according to the parallel config.
//
// Example:
//
//	prim := nn.NewLinearActivation(parallel.DefaultConfig())
//	a1, cache := prim.Forward(x, w1, b1, nn.ReLU)
type LinearActivation struct {
	cfg parallel.Config
}

// NewLinearActivation creates the default layer primitive.
func NewLinearActivation(cfg parallel.Config) *LinearActivation {
	return &LinearActivation{cfg: cfg}
}

// Forward implements Primitive.
//
// Panics if the shapes of aPrev, w and b are incompatible.
func (la *LinearActivation) Forward(aPrev, w, b *mat.Dense, kind Kind) (*mat.Dense, Cache) {
	rows, _ := w.Dims()
	_, m := aPrev.Dims()
	if br, bc := b.Dims(); br != rows || bc != 1 {
		panic(fmt.Sprintf("LinearActivation.Forward: bias shape [%d, %d], want [%d, 1]", br, bc, rows))
	}

	z := mat.NewDense(rows, m, nil)
	z.Mul(w, aPrev)
	a := mat.NewDense(rows, m, nil)
	parallel.Rows(z, la.cfg, func(i int, zi []float64) {
		floats.AddConst(b.At(i, 0), zi)
		ai := a.RawRowView(i)
		for j, v := range zi {
			ai[j] = kind.Activate(v)
		}
	})

	return a, Cache{APrev: aPrev, W: w, B: b, Z: z, Kind: kind}
}

// Backward implements Primitive.
//
// Panics if dA does not have the shape of the cached pre-activation.
func (la *LinearActivation) Backward(dA *mat.Dense, cache Cache, kind Kind) (dAPrev, dW, db *mat.Dense) {
	rows, m := cache.Z.Dims()

	grad := mat.NewDense(rows, m, nil)
	parallel.Rows(grad, la.cfg, func(i int, gi []float64) {
		for j, v := range cache.Z.RawRowView(i) {
			gi[j] = kind.Derivative(v)
		}
	})

	dZ := mat.NewDense(rows, m, nil)
	dZ.MulElem(dA, grad)

	scale := 1 / float64(m)

	dW = new(mat.Dense)
	dW.Mul(dZ, cache.APrev.T())
	dW.Scale(scale, dW)

	db = mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		db.Set(i, 0, floats.Sum(dZ.RawRowView(i))*scale)
	}

	dAPrev = new(mat.Dense)
	dAPrev.Mul(cache.W.T(), dZ)

	return dAPrev, dW, db
}
