package qp

import "math"

// vector is a fixed-dimension dense value array with an explicit list of
// nonzero positions. Dot products and axpy-style updates loop over the
// nonzero list of the sparser operand; everything else touches the dense
// values and re-derives the list.
//
// Vectors are mutated in place by the solver and are never shared between
// concurrent solves.
type vector struct {
	dim   int
	value []float64

	// positions of the nonzero entries, in the first nnz slots. Each
	// position appears at most once and every listed value is nonzero;
	// mutating ops that can cancel an entry to exact zero restore this by
	// resparsifying.
	index []int
	nnz   int
}

func newVector(dim int) *vector {
	return &vector{
		dim:   dim,
		value: make([]float64, dim),
		index: make([]int, dim),
	}
}

// unitVector returns a vector with a single 1.0 at position i.
func unitVector(dim, i int) *vector {
	v := newVector(dim)
	v.value[i] = 1.0
	v.index[0] = i
	v.nnz = 1
	return v
}

func vectorFromSlice(values []float64) *vector {
	v := newVector(len(values))
	copy(v.value, values)
	v.resparsify()
	return v
}

func (v *vector) clone() *vector {
	w := newVector(v.dim)
	copy(w.value, v.value)
	copy(w.index, v.index)
	w.nnz = v.nnz
	return w
}

// copyFrom overwrites v with the contents of x. Dimensions must match.
func (v *vector) copyFrom(x *vector) {
	if v.dim != x.dim {
		panic("vector: dimension mismatch in copyFrom")
	}
	copy(v.value, x.value)
	copy(v.index, x.index)
	v.nnz = x.nnz
}

func (v *vector) reset() {
	for k := 0; k < v.nnz; k++ {
		v.value[v.index[k]] = 0.0
	}
	v.nnz = 0
}

// resparsify rebuilds the nonzero position list from the dense values.
func (v *vector) resparsify() {
	v.nnz = 0
	for i, val := range v.value {
		if val != 0.0 {
			v.index[v.nnz] = i
			v.nnz++
		}
	}
}

// dot computes the inner product, looping over the sparser operand.
func (v *vector) dot(x *vector) float64 {
	if v.dim != x.dim {
		panic("vector: dimension mismatch in dot")
	}
	a, b := v, x
	if x.nnz < v.nnz {
		a, b = x, v
	}
	sum := 0.0
	for k := 0; k < a.nnz; k++ {
		i := a.index[k]
		sum += a.value[i] * b.value[i]
	}
	return sum
}

// saxpy adds a*x to v, extending the nonzero list as needed. An update that
// cancels an entry to exact zero triggers a resparsify so the nonzero list
// never accumulates stale positions.
func (v *vector) saxpy(a float64, x *vector) {
	if v.dim != x.dim {
		panic("vector: dimension mismatch in saxpy")
	}
	if a == 0.0 {
		return
	}
	cancelled := false
	for k := 0; k < x.nnz; k++ {
		i := x.index[k]
		xi := x.value[i]
		if xi == 0.0 {
			continue
		}
		if v.value[i] == 0.0 {
			v.index[v.nnz] = i
			v.nnz++
		}
		v.value[i] += a * xi
		if v.value[i] == 0.0 {
			cancelled = true
		}
	}
	if cancelled {
		v.resparsify()
	}
}

// axpby computes v = a*x + b*v.
func (v *vector) axpby(a float64, x *vector, b float64) {
	if v.dim != x.dim {
		panic("vector: dimension mismatch in axpby")
	}
	for i := range v.value {
		v.value[i] = a*x.value[i] + b*v.value[i]
	}
	v.resparsify()
}

func (v *vector) scale(a float64) {
	for k := 0; k < v.nnz; k++ {
		v.value[v.index[k]] *= a
	}
	if a == 0.0 {
		v.nnz = 0
	}
}

// norm2 is the Euclidean norm.
func (v *vector) norm2() float64 {
	sum := 0.0
	for k := 0; k < v.nnz; k++ {
		val := v.value[v.index[k]]
		sum += val * val
	}
	return math.Sqrt(sum)
}

// sanitize snaps entries with magnitude below eps to exact zero and
// rebuilds the nonzero list. Stops tiny numerical drift from accumulating
// across factorization updates.
func (v *vector) sanitize(eps float64) {
	for k := 0; k < v.nnz; k++ {
		i := v.index[k]
		if math.Abs(v.value[i]) < eps {
			v.value[i] = 0.0
		}
	}
	v.resparsify()
}

func (v *vector) toSlice() []float64 {
	out := make([]float64, v.dim)
	copy(out, v.value)
	return out
}
