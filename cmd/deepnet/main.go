// Package main trains the deep classifier on a synthetic two-cluster
// problem and reports its accuracy.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/born-ml/deepnet/model"
	"github.com/born-ml/deepnet/nn"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("deepnet %s\n", version)
		return
	}

	hidden := flag.String("hidden", "20,7,5", "Comma separated hidden layer sizes")
	features := flag.Int("features", 4, "Input features per sample")
	samples := flag.Int("samples", 400, "Samples per split")
	iterations := flag.Int("iterations", 2500, "Gradient descent iterations")
	lr := flag.Float64("lr", 0.0075, "Learning rate")
	lambda := flag.Float64("lambda", 0, "L2 regularization strength (0 = off)")
	keepProb := flag.Float64("keep-prob", 1, "Dropout keep probability (1 = off)")
	weightDecay := flag.Bool("weight-decay", false, "Use the weight decay L2 gradient")
	dropoutMode := flag.String("dropout-mode", "activation", "Dropout gradient masking: layer or activation")
	seed := flag.Uint64("seed", 1, "Random seed for data, initialization and dropout")
	load := flag.String("load", "", "Start from parameters saved in this SafeTensors file")
	save := flag.String("save", "", "Save the trained parameters to this SafeTensors file")
	flag.Parse()

	dims, err := layerDims(*features, *hidden)
	if err != nil {
		log.Fatalf("invalid -hidden: %v", err)
	}

	trainX, trainY := clusters(*features, *samples, *seed)
	testX, testY := clusters(*features, *samples, *seed+1)
	fmt.Printf("Train: %d samples, Test: %d samples, layers %v\n", *samples, *samples, dims)

	params, err := initParams(dims, *load, *seed)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	cfg := model.DefaultConfig()
	if *weightDecay {
		cfg.L2Mode = model.L2WeightDecay
	}
	if cfg.DropoutMode, err = model.ParseDropoutMode(*dropoutMode); err != nil {
		log.Fatalf("invalid -dropout-mode: %v", err)
	}
	engine := model.NewEngine(nil, cfg)

	trainer, err := model.NewTrainer(engine, model.TrainConfig{
		Iterations:   *iterations,
		LearningRate: *lr,
		Lambda:       *lambda,
		KeepProb:     *keepProb,
		Seed:         *seed,
	}, os.Stdout)
	if err != nil {
		log.Fatalf("trainer: %v", err)
	}

	params, _, err = trainer.Run(trainX, trainY, params)
	if err != nil {
		log.Fatalf("train: %v", err)
	}

	if *save != "" {
		meta := map[string]string{"iterations": strconv.Itoa(*iterations)}
		if err := nn.SaveParameters(*save, params, meta); err != nil {
			log.Fatalf("save: %v", err)
		}
		fmt.Printf("Saved parameters to %s\n", *save)
	}

	predictor := model.NewPredictor(engine, os.Stdout)
	if _, err := predictor.Predict(trainX, trainY, params, true); err != nil {
		log.Fatalf("predict: %v", err)
	}
	if _, err := predictor.Predict(testX, testY, params, false); err != nil {
		log.Fatalf("predict: %v", err)
	}
}

// initParams loads parameters from path, or draws new ones when path is
// empty. Loaded parameters must match dims.
func initParams(dims []int, path string, seed uint64) (*nn.Parameters, error) {
	if path == "" {
		return nn.InitDeep(dims, source(seed))
	}

	params, _, err := nn.LoadParameters(path)
	if err != nil {
		return nil, err
	}
	if got := params.Dims(); !slices.Equal(got, dims) {
		return nil, fmt.Errorf("%s has layers %v, want %v", path, got, dims)
	}
	return params, nil
}

// layerDims parses "20,7,5" into [features, 20, 7, 5, 1].
func layerDims(features int, hidden string) ([]int, error) {
	dims := []int{features}
	if hidden != "" {
		for _, f := range strings.Split(hidden, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, err
			}
			if n < 1 {
				return nil, fmt.Errorf("layer size %d", n)
			}
			dims = append(dims, n)
		}
	}
	return append(dims, 1), nil
}
