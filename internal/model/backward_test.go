package model

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/born-ml/deepnet/internal/nn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestBackwardShapes(t *testing.T) {
	engine := testEngine()
	for i, dims := range [][]int{{4, 1}, {3, 4, 1}, {6, 5, 3, 1}, {8, 6, 5, 3, 1}} {
		params, x, y := randomNet(t, dims, 6, uint64(100+i))

		al, caches, err := engine.Forward(x, params)
		require.NoError(t, err)
		grads, err := engine.Backward(al, y, caches)
		require.NoError(t, err)

		numLayers := params.NumLayers()
		assert.Equal(t, numLayers, grads.NumLayers())
		assert.Equal(t, 3*numLayers, grads.Len(), "dW, db per layer plus dA_0..dA_{L-1}")

		for l := 1; l <= numLayers; l++ {
			wr, wc := params.Layer(l).W.Dims()
			gr, gc := grads.Layer(l).DW.Dims()
			assert.Equal(t, []int{wr, wc}, []int{gr, gc}, "dW%d shape", l)

			br, bc := params.Layer(l).B.Dims()
			dr, dc := grads.Layer(l).DB.Dims()
			assert.Equal(t, []int{br, bc}, []int{dr, dc}, "db%d shape", l)
		}

		xr, xc := x.Dims()
		dr, dc := grads.DA[0].Dims()
		assert.Equal(t, []int{xr, xc}, []int{dr, dc}, "dA0 matches X")
	}
}

// costGradient returns the finite-difference gradient of cost with respect
// to the flattened parameters.
func costGradient(params *nn.Parameters, cost func(*nn.Parameters) float64) []float64 {
	shifted := params.Clone()
	theta := flattenParams(params)
	return fd.Gradient(nil, func(v []float64) float64 {
		loadParams(shifted, v)
		return cost(shifted)
	}, theta, &fd.Settings{Formula: fd.Central})
}

func TestBackwardMatchesFiniteDifferences(t *testing.T) {
	engine := testEngine()
	params, x, y := randomNet(t, []int{4, 5, 3, 1}, 6, 31)

	al, caches, err := engine.Forward(x, params)
	require.NoError(t, err)
	grads, err := engine.Backward(al, y, caches)
	require.NoError(t, err)

	numeric := costGradient(params, func(p *nn.Parameters) float64 {
		out, _, err := engine.Forward(x, p)
		require.NoError(t, err)
		return nn.CrossEntropyCost(out, y)
	})

	analytic := flattenGrads(grads)
	require.Len(t, analytic, len(numeric))
	assert.True(t, floats.EqualApprox(numeric, analytic, 1e-6),
		"analytic %v\nnumeric  %v", analytic, numeric)
}

func TestBackwardL2ZeroLambdaMatchesBackward(t *testing.T) {
	for _, mode := range []L2Mode{L2GradientScale, L2WeightDecay} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := testEngine().Config()
			cfg.L2Mode = mode
			engine := NewEngine(nil, cfg)

			params, x, y := randomNet(t, []int{5, 4, 3, 1}, 7, 41)
			al, caches, err := engine.Forward(x, params)
			require.NoError(t, err)

			plain, err := engine.Backward(al, y, caches)
			require.NoError(t, err)
			reg, err := engine.BackwardL2(al, y, caches, 0)
			require.NoError(t, err)

			for l := 1; l <= params.NumLayers(); l++ {
				assert.True(t, mat.Equal(plain.Layer(l).DW, reg.Layer(l).DW), "dW%d", l)
				assert.True(t, mat.Equal(plain.Layer(l).DB, reg.Layer(l).DB), "db%d", l)
			}
			for l := range plain.DA {
				assert.True(t, mat.Equal(plain.DA[l], reg.DA[l]), "dA%d", l)
			}
		})
	}
}

// TestBackwardL2GradientScale pins the reference formula:
// dW_l + (lambd/m)·dW_l and db_l + (lambd/m)·db_l.
func TestBackwardL2GradientScale(t *testing.T) {
	engine := testEngine()
	params, x, y := randomNet(t, []int{5, 4, 1}, 8, 43)
	const lambd = 0.7
	factor := 1 + lambd/8

	al, caches, err := engine.Forward(x, params)
	require.NoError(t, err)
	plain, err := engine.Backward(al, y, caches)
	require.NoError(t, err)
	reg, err := engine.BackwardL2(al, y, caches, lambd)
	require.NoError(t, err)

	for l := 1; l <= params.NumLayers(); l++ {
		var want mat.Dense
		want.Scale(factor, plain.Layer(l).DW)
		assert.True(t, mat.EqualApprox(&want, reg.Layer(l).DW, 1e-12), "dW%d", l)

		want.Reset()
		want.Scale(factor, plain.Layer(l).DB)
		assert.True(t, mat.EqualApprox(&want, reg.Layer(l).DB, 1e-12), "db%d", l)
	}
}

// TestBackwardL2WeightDecayMatchesFiniteDifferences checks the corrected
// mode against the gradient of the L2-penalized cost.
func TestBackwardL2WeightDecayMatchesFiniteDifferences(t *testing.T) {
	cfg := testEngine().Config()
	cfg.L2Mode = L2WeightDecay
	engine := NewEngine(nil, cfg)

	params, x, y := randomNet(t, []int{4, 5, 3, 1}, 6, 47)
	const lambd = 0.3

	al, caches, err := engine.Forward(x, params)
	require.NoError(t, err)
	grads, err := engine.BackwardL2(al, y, caches, lambd)
	require.NoError(t, err)

	numeric := costGradient(params, func(p *nn.Parameters) float64 {
		out, _, err := engine.Forward(x, p)
		require.NoError(t, err)
		return nn.CrossEntropyCostL2(out, y, p, lambd)
	})

	assert.True(t, floats.EqualApprox(numeric, flattenGrads(grads), 1e-6))
}

// TestBackwardDropoutMatchesFiniteDifferences replays fixed masks so the
// dropout forward pass is a deterministic function of the parameters.
func TestBackwardDropoutMatchesFiniteDifferences(t *testing.T) {
	engine := dropoutEngine(DropoutByActivation)
	params, x, y := randomNet(t, []int{4, 5, 3, 1}, 6, 53)
	const keepProb = 0.7

	draw := NewBernoulliSampler(rand.NewPCG(9, 10))
	sampler := &replaySampler{masks: []*mat.Dense{
		draw.Sample(5, 6, keepProb),
		draw.Sample(3, 6, keepProb),
	}}

	al, caches, masks, err := engine.ForwardDropout(x, params, keepProb, sampler)
	require.NoError(t, err)
	grads, err := engine.BackwardDropout(al, y, caches, masks, keepProb)
	require.NoError(t, err)

	numeric := costGradient(params, func(p *nn.Parameters) float64 {
		out, _, _, err := engine.ForwardDropout(x, p, keepProb, sampler)
		require.NoError(t, err)
		return nn.CrossEntropyCost(out, y)
	})

	assert.True(t, floats.EqualApprox(numeric, flattenGrads(grads), 1e-6))
	assert.Equal(t, 9, grads.Len())
}

func TestBackwardDropoutKeepAllMatchesBackward(t *testing.T) {
	for _, mode := range []DropoutMode{DropoutByLayer, DropoutByActivation} {
		t.Run(mode.String(), func(t *testing.T) {
			engine := dropoutEngine(mode)
			params, x, y := randomNet(t, []int{4, 4, 4, 1}, 5, 59)

			al, caches, masks, err := engine.ForwardDropout(x, params, 1, nil)
			require.NoError(t, err)

			plain, err := engine.Backward(al, y, caches)
			require.NoError(t, err)
			drop, err := engine.BackwardDropout(al, y, caches, masks, 1)
			require.NoError(t, err)

			assert.Equal(t, flattenGrads(plain), flattenGrads(drop))
			for l := range plain.DA {
				assert.True(t, mat.Equal(plain.DA[l], drop.DA[l]), "dA%d", l)
			}
		})
	}
}

// TestBackwardDropoutByLayer rebuilds the per-layer masking step by step on
// an equal-width network: dA_{L-1} is left alone and each dA_{l-1} produced
// by hidden layer l is multiplied by D_l and divided by keep_prob.
func TestBackwardDropoutByLayer(t *testing.T) {
	engine := dropoutEngine(DropoutByLayer)
	params, x, y := randomNet(t, []int{4, 4, 4, 1}, 6, 83)
	const keepProb = 0.5

	al, caches, masks, err := engine.ForwardDropout(x, params, keepProb, NewBernoulliSampler(rand.NewPCG(13, 14)))
	require.NoError(t, err)
	grads, err := engine.BackwardDropout(al, y, caches, masks, keepProb)
	require.NoError(t, err)

	labels, err := ReshapeLabels(y, al)
	require.NoError(t, err)
	prim := nn.NewLinearActivation(engine.Config().Parallel)

	dA, dW, db := prim.Backward(engine.outputGradient(al, labels), caches[2], nn.Sigmoid)
	assert.True(t, mat.Equal(dA, grads.DA[2]), "dA2 is not masked")
	assert.True(t, mat.Equal(dW, grads.Layer(3).DW))
	assert.True(t, mat.Equal(db, grads.Layer(3).DB))

	for l := 2; l >= 1; l-- {
		dA, dW, db = prim.Backward(dA, caches[l-1], nn.ReLU)
		dA.MulElem(dA, masks[l-1])
		dA.Scale(1/keepProb, dA)

		assert.True(t, mat.EqualApprox(dA, grads.DA[l-1], 1e-12), "dA%d", l-1)
		assert.True(t, mat.EqualApprox(dW, grads.Layer(l).DW, 1e-12), "dW%d", l)
		assert.True(t, mat.EqualApprox(db, grads.Layer(l).DB, 1e-12), "db%d", l)
	}

	// dA_0 is zero wherever the first hidden layer's mask dropped a unit.
	r, c := masks[0].Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if masks[0].At(i, j) == 0 {
				assert.Zero(t, grads.DA[0].At(i, j), "dA0[%d, %d]", i, j)
			}
		}
	}
}

// TestBackwardDropoutModesDiffer checks the two modes mask different
// gradients on the same pass.
func TestBackwardDropoutModesDiffer(t *testing.T) {
	params, x, y := randomNet(t, []int{4, 4, 4, 1}, 6, 89)
	const keepProb = 0.5

	al, caches, masks, err := testEngine().ForwardDropout(x, params, keepProb, NewBernoulliSampler(rand.NewPCG(15, 16)))
	require.NoError(t, err)

	byLayer, err := dropoutEngine(DropoutByLayer).BackwardDropout(al, y, caches, masks, keepProb)
	require.NoError(t, err)
	byActivation, err := dropoutEngine(DropoutByActivation).BackwardDropout(al, y, caches, masks, keepProb)
	require.NoError(t, err)

	assert.False(t, mat.Equal(byLayer.DA[2], byActivation.DA[2]), "only the activation mode masks dA2")
	assert.True(t, mat.Equal(byLayer.Layer(3).DW, byActivation.Layer(3).DW), "output layer gradients agree")
}

func TestBackwardDropoutMaskShape(t *testing.T) {
	params, x, y := randomNet(t, []int{3, 4, 1}, 5, 97)
	al, caches, masks, err := testEngine().ForwardDropout(x, params, 0.8, nil)
	require.NoError(t, err)

	_, err = dropoutEngine(DropoutByLayer).BackwardDropout(al, y, caches, masks, 0.8)
	assert.ErrorIs(t, err, ErrMaskShape, "D_1 is [4, 5] but dA0 is [3, 5]")

	_, err = dropoutEngine(DropoutByActivation).BackwardDropout(al, y, caches, masks, 0.8)
	assert.NoError(t, err)

	_, err = dropoutEngine(DropoutByActivation).BackwardDropout(al, y, caches, []*mat.Dense{mat.NewDense(2, 5, nil)}, 0.8)
	assert.ErrorIs(t, err, ErrMaskShape)
}

func TestParseDropoutMode(t *testing.T) {
	for _, mode := range []DropoutMode{DropoutByLayer, DropoutByActivation} {
		got, err := ParseDropoutMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}

	_, err := ParseDropoutMode("inverted")
	assert.Error(t, err)
	assert.Equal(t, "DropoutMode(7)", DropoutMode(7).String())
}

func TestBackwardErrors(t *testing.T) {
	engine := testEngine()
	params, x, y := randomNet(t, []int{3, 4, 1}, 5, 61)
	al, caches, masks, err := engine.ForwardDropout(x, params, 0.8, nil)
	require.NoError(t, err)

	_, err = engine.Backward(al, y, nil)
	assert.ErrorIs(t, err, ErrNoCaches)

	_, err = engine.Backward(al, mat.NewDense(1, 4, nil), caches)
	assert.ErrorIs(t, err, ErrLabelShape)

	_, err = engine.BackwardDropout(al, y, caches, nil, 0.8)
	assert.ErrorIs(t, err, ErrMaskCount)

	_, err = engine.BackwardDropout(al, y, caches, masks, 0)
	assert.ErrorIs(t, err, ErrKeepProb)
}

// TestBackwardReshapesLabels accepts a column of labels for a row of
// predictions.
func TestBackwardReshapesLabels(t *testing.T) {
	engine := testEngine()
	params, x, y := randomNet(t, []int{3, 4, 1}, 5, 67)
	al, caches, err := engine.Forward(x, params)
	require.NoError(t, err)

	row, err := engine.Backward(al, y, caches)
	require.NoError(t, err)
	col, err := engine.Backward(al, mat.NewDense(5, 1, mat.DenseCopyOf(y).RawMatrix().Data), caches)
	require.NoError(t, err)

	assert.Equal(t, flattenGrads(row), flattenGrads(col))
}

func TestOutputGradientClamp(t *testing.T) {
	al := mat.NewDense(1, 3, []float64{1, 0, 0.25})
	y := mat.NewDense(1, 3, []float64{0, 1, 1})

	clamped := NewEngine(forcedPrimitive{al: al}, Config{})
	grads, err := clamped.Backward(al, y, []nn.Cache{{}})
	require.NoError(t, err)
	dAL := grads.DA[0]
	for j := 0; j < 3; j++ {
		assert.False(t, math.IsInf(dAL.At(0, j), 0) || math.IsNaN(dAL.At(0, j)), "dAL[%d] = %v", j, dAL.At(0, j))
	}
	assert.InDelta(t, -4, dAL.At(0, 2), 1e-9, "interior values are not clamped")

	raw := NewEngine(forcedPrimitive{al: al}, Config{Epsilon: -1})
	grads, err = raw.Backward(al, y, []nn.Cache{{}})
	require.NoError(t, err)
	assert.True(t, math.IsInf(grads.DA[0].At(0, 0), 1), "AL = 1, Y = 0 diverges without the clamp")
	assert.True(t, math.IsInf(grads.DA[0].At(0, 1), -1), "AL = 0, Y = 1 diverges without the clamp")
}

func BenchmarkForwardBackward(b *testing.B) {
	params, x, y := randomNet(b, []int{256, 128, 64, 1}, 512, 71)
	engine := NewEngine(nil, DefaultConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		al, caches, err := engine.Forward(x, params)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := engine.Backward(al, y, caches); err != nil {
			b.Fatal(err)
		}
	}
}
