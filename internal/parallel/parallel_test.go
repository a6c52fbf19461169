package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestBlocks(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  Config
		want []Block
	}{
		{"empty", 0, DefaultConfig(), nil},
		{"sequential", 10, Sequential(), []Block{{0, 10}}},
		{"even split", 8, Config{Workers: 4, MinRows: 1}, []Block{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"ragged tail", 10, Config{Workers: 4, MinRows: 1}, []Block{{0, 3}, {3, 6}, {6, 9}, {9, 10}}},
		{"min rows caps the split", 10, Config{Workers: 8, MinRows: 4}, []Block{{0, 4}, {4, 8}, {8, 10}}},
		{"narrow stays whole", 5, Config{Workers: 8, MinRows: 64}, []Block{{0, 5}}},
		{"zero config", 3, Config{}, []Block{{0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Blocks(tt.n, tt.cfg))
		})
	}
}

func TestRowsVisitsEachRowOnce(t *testing.T) {
	m := mat.NewDense(257, 3, nil)
	hits := make([]int32, 257)

	Rows(m, Config{Workers: 4, MinRows: 8}, func(i int, row []float64) {
		atomic.AddInt32(&hits[i], 1)
		for j := range row {
			row[j] = float64(i)
		}
	})

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "row %d", i)
		assert.Equal(t, []float64{float64(i), float64(i), float64(i)}, m.RawRowView(i))
	}
}

func TestRowsSequentialOrder(t *testing.T) {
	m := mat.NewDense(100, 1, nil)

	var order []int
	Rows(m, Sequential(), func(i int, _ []float64) {
		order = append(order, i)
	})

	assert.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func BenchmarkRows(b *testing.B) {
	m := mat.NewDense(1024, 256, nil)
	work := func(cfg Config) func(b *testing.B) {
		return func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				Rows(m, cfg, func(r int, row []float64) {
					for j := range row {
						row[j] = float64(r+j) * 0.5
					}
				})
			}
		}
	}

	b.Run("parallel", work(DefaultConfig()))
	b.Run("sequential", work(Sequential()))
}
