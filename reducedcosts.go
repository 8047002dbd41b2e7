package qp

// reducedCosts tracks the multipliers lambda with M'lambda = g: one value
// per base-matrix row. The entries at active rows are the candidate duals;
// recomputation is lazy and triggered by invalidate after every accepted
// step or basis change.
type reducedCosts struct {
	b    *basis
	grad *gradient

	lambda   *vector
	upToDate bool
}

func newReducedCosts(b *basis, grad *gradient) *reducedCosts {
	return &reducedCosts{
		b:      b,
		grad:   grad,
		lambda: newVector(b.inst.NumVar),
	}
}

// invalidate marks the multipliers stale. Cheap; the actual solve happens
// on the next read.
func (rc *reducedCosts) invalidate() {
	rc.upToDate = false
}

// values returns the current multipliers, indexed by base-row position.
func (rc *reducedCosts) values() *vector {
	if !rc.upToDate {
		rc.b.btran(rc.grad.current(), rc.lambda)
		rc.upToDate = true
	}
	return rc.lambda
}

// dual returns the multiplier attached to an active slot.
func (rc *reducedCosts) dual(slot int) float64 {
	return rc.values().value[rc.b.indexInFactor(slot)]
}
