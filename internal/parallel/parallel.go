// Package parallel splits row-wise matrix work across goroutines.
//
// Only work inside a single layer is split. Callers never run two layers
// concurrently, so the forward and backward ordering stays sequential.
package parallel

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Config controls how rows are split.
type Config struct {
	Workers int // Maximum goroutines per call; below 2 runs inline.
	MinRows int // Minimum rows per block, so narrow layers stay inline.
}

// DefaultConfig uses one worker per schedulable CPU.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.GOMAXPROCS(0),
		MinRows: 64,
	}
}

// Sequential returns a config that never spawns goroutines.
func Sequential() Config {
	return Config{Workers: 1}
}

// Block is a half-open row range [Lo, Hi).
type Block struct {
	Lo, Hi int
}

// Blocks partitions n rows into at most cfg.Workers contiguous blocks of at
// least cfg.MinRows rows each. The blocks cover [0, n) in order.
func Blocks(n int, cfg Config) []Block {
	if n <= 0 {
		return nil
	}

	workers := max(cfg.Workers, 1)
	size := max((n+workers-1)/workers, cfg.MinRows, 1)

	blocks := make([]Block, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		blocks = append(blocks, Block{Lo: lo, Hi: min(lo+size, n)})
	}
	return blocks
}

// Rows calls f(i, row) for every row of m, row being m's backing slice for
// row i. f may write to row but must not touch other rows.
func Rows(m *mat.Dense, cfg Config, f func(i int, row []float64)) {
	n, _ := m.Dims()
	blocks := Blocks(n, cfg)

	run := func(b Block) {
		for i := b.Lo; i < b.Hi; i++ {
			f(i, m.RawRowView(i))
		}
	}

	if len(blocks) < 2 {
		for _, b := range blocks {
			run(b)
		}
		return
	}

	var wg sync.WaitGroup
	for _, b := range blocks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(b)
		}()
	}
	wg.Wait()
}
