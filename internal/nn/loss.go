package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CrossEntropyCost computes the binary cross-entropy of predictions al
// against labels y, both of shape [1, m]:
//
//	J = -(1/m) Σ [y·log(al) + (1-y)·log(1-al)]
//
// Predictions of exactly 0 or 1 on a mismatching label yield +Inf.
func CrossEntropyCost(al, y mat.Matrix) float64 {
	r, m := al.Dims()
	if yr, yc := y.Dims(); yr != r || yc != m {
		panic(fmt.Sprintf("CrossEntropyCost: labels shape [%d, %d], predictions [%d, %d]", yr, yc, r, m))
	}

	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < m; j++ {
			a, t := al.At(i, j), y.At(i, j)
			// Skip the zero-weighted term so 0·log(0) does not turn into NaN.
			if t != 0 {
				sum += t * math.Log(a)
			}
			if t != 1 {
				sum += (1 - t) * math.Log(1-a)
			}
		}
	}

	return -sum / float64(m)
}

// CrossEntropyCostL2 adds the L2 penalty (lambd/2m)·Σ_l ‖W_l‖²_F to the
// cross-entropy cost.
func CrossEntropyCostL2(al, y mat.Matrix, params *Parameters, lambd float64) float64 {
	_, m := al.Dims()

	var penalty float64
	for _, lp := range params.Layers {
		n := mat.Norm(lp.W, 2)
		penalty += n * n
	}

	return CrossEntropyCost(al, y) + lambd/(2*float64(m))*penalty
}
