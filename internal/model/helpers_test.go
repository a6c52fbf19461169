package model

import (
	"math/rand/v2"
	"testing"

	"github.com/born-ml/deepnet/internal/nn"
	"github.com/born-ml/deepnet/internal/parallel"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testEngine() *Engine {
	return dropoutEngine(DefaultConfig().DropoutMode)
}

func dropoutEngine(mode DropoutMode) *Engine {
	cfg := DefaultConfig()
	cfg.Parallel = parallel.Sequential()
	cfg.DropoutMode = mode
	return NewEngine(nil, cfg)
}

// randomNet builds parameters for dims with He weights, plus an input of m
// samples and alternating binary labels.
func randomNet(t testing.TB, dims []int, m int, seed uint64) (*nn.Parameters, *mat.Dense, *mat.Dense) {
	t.Helper()

	params, err := nn.InitDeep(dims, rand.NewPCG(seed, seed+1))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(seed+2, seed+3))
	x := mat.NewDense(dims[0], m, nil)
	for i := 0; i < dims[0]; i++ {
		for j := 0; j < m; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}

	y := mat.NewDense(1, m, nil)
	for j := 0; j < m; j++ {
		y.Set(0, j, float64(j%2))
	}

	return params, x, y
}

// flattenParams concatenates W_1, b_1, ..., W_L, b_L in row-major order.
func flattenParams(p *nn.Parameters) []float64 {
	var theta []float64
	for _, lp := range p.Layers {
		theta = append(theta, mat.DenseCopyOf(lp.W).RawMatrix().Data...)
		theta = append(theta, mat.DenseCopyOf(lp.B).RawMatrix().Data...)
	}
	return theta
}

// loadParams writes theta back into p in flattenParams order.
func loadParams(p *nn.Parameters, theta []float64) {
	off := 0
	for _, lp := range p.Layers {
		for _, m := range []*mat.Dense{lp.W, lp.B} {
			r, c := m.Dims()
			for i := 0; i < r; i++ {
				for j := 0; j < c; j++ {
					m.Set(i, j, theta[off])
					off++
				}
			}
		}
	}
}

// flattenGrads concatenates dW_1, db_1, ..., dW_L, db_L in row-major order.
func flattenGrads(g *nn.Gradients) []float64 {
	var out []float64
	for _, lg := range g.Layers {
		out = append(out, mat.DenseCopyOf(lg.DW).RawMatrix().Data...)
		out = append(out, mat.DenseCopyOf(lg.DB).RawMatrix().Data...)
	}
	return out
}

// forcedPrimitive returns a fixed AL from the sigmoid layer and echoes dA
// from Backward, so tests can observe dAL directly.
type forcedPrimitive struct {
	al *mat.Dense
}

func (f forcedPrimitive) Forward(aPrev, w, b *mat.Dense, kind nn.Kind) (*mat.Dense, nn.Cache) {
	cache := nn.Cache{APrev: aPrev, W: w, B: b, Z: f.al, Kind: kind}
	if kind == nn.Sigmoid {
		return mat.DenseCopyOf(f.al), cache
	}
	return aPrev, cache
}

func (f forcedPrimitive) Backward(dA *mat.Dense, _ nn.Cache, _ nn.Kind) (dAPrev, dW, db *mat.Dense) {
	return mat.DenseCopyOf(dA), mat.DenseCopyOf(dA), mat.DenseCopyOf(dA)
}

// replaySampler hands out a fixed list of masks in a cycle, so repeated
// forward passes see the same masks.
type replaySampler struct {
	masks []*mat.Dense
	next  int
}

func (s *replaySampler) Sample(rows, cols int, _ float64) *mat.Dense {
	d := s.masks[s.next%len(s.masks)]
	s.next++
	if r, c := d.Dims(); r != rows || c != cols {
		panic("replaySampler: mask shape does not match the activation")
	}
	return d
}

// oneLayer returns a valid single-layer parameter set over n inputs.
func oneLayer(n int) *nn.Parameters {
	return nn.NewParameters(nn.LayerParams{
		W: mat.NewDense(1, n, nil),
		B: mat.NewDense(1, 1, nil),
	})
}
