package qp

import (
	"errors"
	"math"
)

// errDegeneratePivot reports that a null-space reduction hit a near-zero
// leading term. The driver handles it with a zero-step fallback; it never
// crosses the module boundary.
var errDegeneratePivot = errors.New("degenerate pivot in nullspace reduction")

// cholesky is the incrementally maintained lower-triangular factor L with
// L L' = Z'QZ, the quadratic form restricted to the null space of the
// active set. The only structural transitions are expand (one more degree
// of freedom) and reduce (one fewer); a from-scratch rebuild happens only
// at construction.
type cholesky struct {
	n   int // stride, = NumVar
	dim int

	// row-major lower triangle, stride n
	l []float64

	// scratch for the reduce retriangularization
	w []float64

	minDiag   float64
	pivotZero float64
}

func newCholesky(inst *Instance, b *basis, pivotZero float64) *cholesky {
	n := inst.NumVar
	f := &cholesky{
		n:         n,
		l:         make([]float64, n*n),
		w:         make([]float64, n*n),
		minDiag:   1e-12,
		pivotZero: pivotZero,
	}
	k := b.nullspaceDim()
	if k == 0 || inst.Q == nil {
		// LP or face-separation start: the reduced Hessian is empty (or
		// identically zero and never solved against).
		return f
	}
	// initial reduced Hessian from the starting basis
	z := make([]*vector, k)
	qz := make([]*vector, k)
	for j, slot := range b.complement {
		z[j] = newVector(n)
		b.edgeDirection(slot, z[j])
		qz[j] = newVector(n)
		inst.qVec(z[j], qz[j])
	}
	h := make([]float64, k*k)
	for i := 0; i < k; i++ {
		for j := 0; j <= i; j++ {
			h[i*k+j] = z[i].dot(qz[j])
			h[j*k+i] = h[i*k+j]
		}
	}
	f.decompose(h, k)
	f.dim = k
	return f
}

// decompose performs the one-off dense Cholesky of the starting reduced
// Hessian h (k x k, row-major).
func (f *cholesky) decompose(h []float64, k int) {
	for i := 0; i < k; i++ {
		for j := 0; j <= i; j++ {
			sum := h[i*k+j]
			for t := 0; t < j; t++ {
				sum -= f.l[i*f.n+t] * f.l[j*f.n+t]
			}
			if i == j {
				if sum < f.minDiag {
					sum = f.minDiag
				}
				f.l[i*f.n+i] = math.Sqrt(sum)
			} else {
				f.l[i*f.n+j] = sum / f.l[j*f.n+j]
			}
		}
	}
}

// expand grows the factor by one dimension after a slot was relaxed along
// direction y: the new row is (l, sqrt(y'Qy - l'l)) where l solves
// L l = Z'Qy. Callers must have excluded zero-curvature directions via the
// curvature test; curvature is y'Qy.
func (f *cholesky) expand(curvature float64, lRow *vector) {
	d2 := curvature
	for j := 0; j < f.dim; j++ {
		f.l[f.dim*f.n+j] = lRow.value[j]
		d2 -= lRow.value[j] * lRow.value[j]
	}
	if d2 < f.minDiag {
		d2 = f.minDiag
	}
	f.l[f.dim*f.n+f.dim] = math.Sqrt(d2)
	f.dim++
}

// reduce shrinks the factor by one dimension when a constraint becomes
// active. d holds the null-space coordinates of the new constraint normal
// (d = Z'a); pivot is the coordinate eliminated against. The remaining
// null-space directions become z_j - (d_j/d_p) z_p, and the factor is
// retriangularized with Givens rotations. wasComplement marks the cheap
// case where d is a unit vector and the elimination is a pure deletion.
func (f *cholesky) reduce(d *vector, pivot int, wasComplement bool) error {
	k := f.dim
	if pivot < 0 || pivot >= k {
		panic("cholesky: reduce pivot out of range")
	}
	dp := d.value[pivot]
	if !wasComplement && math.Abs(dp) < f.pivotZero {
		return errDegeneratePivot
	}

	// W = L'E, one column per surviving null-space direction
	cols := k - 1
	for i := 0; i < k; i++ {
		col := 0
		for j := 0; j < k; j++ {
			if j == pivot {
				continue
			}
			w := 0.0
			if i <= j {
				w = f.l[j*f.n+i]
			}
			if !wasComplement && i <= pivot {
				w -= (d.value[j] / dp) * f.l[pivot*f.n+i]
			}
			f.w[i*f.n+col] = w
			col++
		}
	}

	// Givens QR of W; R ends up in the top cols x cols block
	for c := 0; c < cols; c++ {
		for i := k - 1; i > c; i-- {
			a := f.w[(i-1)*f.n+c]
			b := f.w[i*f.n+c]
			if b == 0.0 {
				continue
			}
			r := math.Hypot(a, b)
			cs, sn := a/r, b/r
			for t := c; t < cols; t++ {
				wa := f.w[(i-1)*f.n+t]
				wb := f.w[i*f.n+t]
				f.w[(i-1)*f.n+t] = cs*wa + sn*wb
				f.w[i*f.n+t] = -sn*wa + cs*wb
			}
		}
	}

	// clear the stale triangle, then transpose R in: L_new = R' with the
	// diagonal forced positive
	for i := 0; i < k; i++ {
		for j := 0; j <= i; j++ {
			f.l[i*f.n+j] = 0.0
		}
	}
	for i := 0; i < cols; i++ {
		sign := 1.0
		if f.w[i*f.n+i] < 0 {
			sign = -1.0
		}
		for j := i; j < cols; j++ {
			f.l[j*f.n+i] = sign * f.w[i*f.n+j]
		}
		if f.l[i*f.n+i] < f.minDiag {
			f.l[i*f.n+i] = f.minDiag
		}
	}
	f.dim = cols
	return nil
}

// solveL solves L y = x in place over the first dim coordinates.
func (f *cholesky) solveL(x *vector) {
	for i := 0; i < f.dim; i++ {
		sum := x.value[i]
		for j := 0; j < i; j++ {
			sum -= f.l[i*f.n+j] * x.value[j]
		}
		x.value[i] = sum / f.l[i*f.n+i]
	}
	x.resparsify()
}

// solveLT solves L'y = x in place over the first dim coordinates.
func (f *cholesky) solveLT(x *vector) {
	for i := f.dim - 1; i >= 0; i-- {
		sum := x.value[i]
		for j := i + 1; j < f.dim; j++ {
			sum -= f.l[j*f.n+i] * x.value[j]
		}
		x.value[i] = sum / f.l[i*f.n+i]
	}
	x.resparsify()
}

// solve solves L L' y = x in place.
func (f *cholesky) solve(x *vector) {
	f.solveL(x)
	f.solveLT(x)
}

// density is the nonzero fraction of the current triangle; reported in the
// statistics snapshots.
func (f *cholesky) density() float64 {
	if f.dim == 0 {
		return 0.0
	}
	nz := 0
	for i := 0; i < f.dim; i++ {
		for j := 0; j <= i; j++ {
			if f.l[i*f.n+j] != 0.0 {
				nz++
			}
		}
	}
	return float64(nz) / float64(f.dim*(f.dim+1)/2)
}
