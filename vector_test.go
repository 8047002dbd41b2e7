package qp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorDot(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{
			name: "dense",
			a:    []float64{1, 2, 3},
			b:    []float64{4, 5, 6},
			want: 32,
		},
		{
			name: "sparse against dense",
			a:    []float64{0, 0, 3, 0},
			b:    []float64{1, 1, 2, 1},
			want: 6,
		},
		{
			name: "disjoint supports",
			a:    []float64{1, 0, 0},
			b:    []float64{0, 2, 3},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := vectorFromSlice(tt.a)
			b := vectorFromSlice(tt.b)
			assert.Equal(t, tt.want, a.dot(b))
			assert.Equal(t, tt.want, b.dot(a))
		})
	}
}

func TestVectorSaxpy(t *testing.T) {
	v := vectorFromSlice([]float64{1, 0, 2})
	x := vectorFromSlice([]float64{0, 3, 1})

	v.saxpy(2, x)

	assert.Equal(t, []float64{1, 6, 4}, v.toSlice())
	// the nonzero list must have picked up the previously zero position
	assert.Equal(t, 3, v.nnz)
}

func TestVectorSaxpyCancellationCompactsNonzeroList(t *testing.T) {
	v := newVector(3)
	x := unitVector(3, 1)

	v.saxpy(1, x)
	v.saxpy(-1, x)
	assert.Equal(t, 0, v.nnz)

	// alternating cancellation and refill must not grow the list past dim
	for i := 0; i < 2*v.dim; i++ {
		v.saxpy(1, x)
		v.saxpy(-1, x)
	}
	assert.Equal(t, 0, v.nnz)

	v.saxpy(2, x)
	assert.Equal(t, 1, v.nnz)
	assert.Equal(t, []float64{0, 2, 0}, v.toSlice())
}

func TestVectorSaxpyPartialCancellation(t *testing.T) {
	v := vectorFromSlice([]float64{1, 2, 3})
	x := vectorFromSlice([]float64{1, 0, 3})

	// position 0 and 2 cancel, position 1 survives
	v.saxpy(-1, x)
	assert.Equal(t, []float64{0, 2, 0}, v.toSlice())
	assert.Equal(t, 1, v.nnz)
	assert.Equal(t, 1, v.index[0])
}

func TestVectorAxpby(t *testing.T) {
	v := vectorFromSlice([]float64{1, 2})
	x := vectorFromSlice([]float64{3, 4})

	// v = x - v
	v.axpby(1.0, x, -1.0)

	assert.Equal(t, []float64{2, 2}, v.toSlice())
}

func TestVectorSanitize(t *testing.T) {
	v := vectorFromSlice([]float64{1e-20, 1, -1e-15, 2})
	v.sanitize(1e-14)

	assert.Equal(t, 0.0, v.value[0])
	assert.Equal(t, 0.0, v.value[2])
	assert.Equal(t, 2, v.nnz) // exactly two nonzeros survive
}

func TestVectorNorm2(t *testing.T) {
	v := vectorFromSlice([]float64{3, 0, 4})
	assert.InDelta(t, 5.0, v.norm2(), 1e-15)
}

func TestUnitVector(t *testing.T) {
	v := unitVector(4, 2)
	assert.Equal(t, []float64{0, 0, 1, 0}, v.toSlice())
	assert.Equal(t, 1, v.nnz)
	assert.Equal(t, 2, v.index[0])
}

func TestVectorScaleToZeroEmptiesNonzeroList(t *testing.T) {
	v := vectorFromSlice([]float64{1, 2, 3})
	v.scale(0)
	assert.Equal(t, 0, v.nnz)
	assert.True(t, math.Abs(v.norm2()) == 0)
}
