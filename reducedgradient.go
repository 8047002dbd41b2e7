package qp

// reducedGradient tracks rg = Z'g, the gradient projected onto the current
// null space, with one coordinate per complement position. It is kept in
// lockstep with the factorization: expand and reduce must be called exactly
// once per structural change, in the same order as the corresponding basis
// and factor updates.
type reducedGradient struct {
	rg  *vector
	dim int
}

func newReducedGradient(b *basis, grad *gradient) *reducedGradient {
	rg := newVector(b.inst.NumVar)
	b.zTProd(grad.current(), rg)
	return &reducedGradient{rg: rg, dim: b.nullspaceDim()}
}

func (r *reducedGradient) current() *vector { return r.rg }

// expand appends the coordinate for a newly relaxed direction y: y'g.
func (r *reducedGradient) expand(y *vector, grad *gradient) {
	r.rg.value[r.dim] = y.dot(grad.current())
	r.dim++
	r.rg.resparsify()
}

// reduce eliminates coordinate pivot against the entering constraint's
// null-space coordinates d, matching the factor's column elimination.
func (r *reducedGradient) reduce(d *vector, pivot int) {
	dp := d.value[pivot]
	rp := r.rg.value[pivot]
	col := 0
	for j := 0; j < r.dim; j++ {
		if j == pivot {
			continue
		}
		v := r.rg.value[j]
		if dp != 0.0 {
			v -= (d.value[j] / dp) * rp
		}
		r.rg.value[col] = v
		col++
	}
	r.rg.value[r.dim-1] = 0.0
	r.dim--
	r.rg.resparsify()
}

// update advances the projection after an accepted step: rg += alpha * Z'Qp.
// ztqp must be computed against the basis as it stands after any structural
// change of the same iteration.
func (r *reducedGradient) update(alpha float64, ztqp *vector) {
	for j := 0; j < r.dim; j++ {
		r.rg.value[j] += alpha * ztqp.value[j]
	}
	r.rg.resparsify()
}
