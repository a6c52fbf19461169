package model

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/deepnet/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// Threshold is the probability above which a sample is classified as 1.
// A probability of exactly Threshold is classified as 0.
const Threshold = 0.5

// Predictor classifies samples with a trained parameter set and reports
// accuracy against known labels.
type Predictor struct {
	engine *Engine
	out    io.Writer
}

// NewPredictor creates a predictor. A nil engine uses the default engine;
// a nil out writes reports to os.Stdout.
func NewPredictor(engine *Engine, out io.Writer) *Predictor {
	if engine == nil {
		engine = NewEngine(nil, DefaultConfig())
	}
	if out == nil {
		out = os.Stdout
	}
	return &Predictor{engine: engine, out: out}
}

// Predict runs a forward pass over x, classifies each probability with
// Classify and writes one accuracy line against y:
//
//	Training Accuracy: 0.75
//
// Whole values keep one decimal, so a perfect score prints as 1.0.
//
// trainingSet only selects the "Training" or "Validation" label.
//
// Returns the [1, m] prediction matrix of 0/1 values.
func (p *Predictor) Predict(x *mat.Dense, y mat.Matrix, params *nn.Parameters, trainingSet bool) (*mat.Dense, error) {
	probas, _, err := p.engine.Forward(x, params)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	pred := Classify(probas)
	acc, err := Accuracy(pred, y)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	name := "Validation"
	if trainingSet {
		name = "Training"
	}
	fmt.Fprintf(p.out, "%s Accuracy: %s\n", name, formatAccuracy(acc))

	return pred, nil
}

// Classify maps each probability to 1 if it is above Threshold and to 0
// otherwise.
func Classify(probas *mat.Dense) *mat.Dense {
	pred := new(mat.Dense)
	pred.Apply(func(_, _ int, v float64) float64 {
		if v > Threshold {
			return 1
		}
		return 0
	}, probas)
	return pred
}

// Accuracy returns the fraction of predictions equal to the labels. y is
// reshaped to pred's shape first.
func Accuracy(pred *mat.Dense, y mat.Matrix) (float64, error) {
	labels, err := ReshapeLabels(y, pred)
	if err != nil {
		return 0, err
	}

	r, c := pred.Dims()
	correct := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if pred.At(i, j) == labels.At(i, j) {
				correct++
			}
		}
	}
	return float64(correct) / float64(r*c), nil
}

// formatAccuracy prints v with the fewest digits that round-trip. Whole
// values get a ".0" suffix and magnitudes below 1e-4 use an exponent.
func formatAccuracy(v float64) string {
	if v != 0 && math.Abs(v) < 1e-4 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
