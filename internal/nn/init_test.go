package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestInitDeepShapes(t *testing.T) {
	dims := []int{7, 5, 3, 1}
	p, err := InitDeep(dims, testSource())
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	for l := 1; l < len(dims); l++ {
		wr, wc := p.Layer(l).W.Dims()
		br, bc := p.Layer(l).B.Dims()
		assert.Equal(t, dims[l], wr)
		assert.Equal(t, dims[l-1], wc)
		assert.Equal(t, dims[l], br)
		assert.Equal(t, 1, bc)
		assert.Equal(t, 0.0, mat.Sum(p.Layer(l).B), "biases start at zero")
	}
}

// TestInitDeepScale checks the He standard deviation on a wide layer.
func TestInitDeepScale(t *testing.T) {
	p, err := InitDeep([]int{200, 300, 1}, testSource())
	require.NoError(t, err)

	w := p.Layer(1).W.RawMatrix().Data
	mean, std := stat.MeanStdDev(w, nil)
	assert.InDelta(t, 0, mean, 0.01)
	assert.InDelta(t, math.Sqrt(2.0/200), std, 0.005)
}

func TestInitDeepDeterministic(t *testing.T) {
	a, err := InitDeep([]int{4, 3, 1}, testSource())
	require.NoError(t, err)
	b, err := InitDeep([]int{4, 3, 1}, testSource())
	require.NoError(t, err)

	assert.True(t, mat.Equal(a.Layer(1).W, b.Layer(1).W))
	assert.True(t, mat.Equal(a.Layer(2).W, b.Layer(2).W))
}

func TestInitDeepInvalid(t *testing.T) {
	_, err := InitDeep([]int{3}, nil)
	assert.Error(t, err)

	_, err = InitDeep([]int{3, 0, 1}, nil)
	assert.Error(t, err)
}
