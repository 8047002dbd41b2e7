package qp

// gradient tracks g = Qx + c at the current point. It is recomputed from
// scratch only at construction; after every accepted step it advances by
// alpha * Qp, where p was the search direction.
type gradient struct {
	g *vector
}

func newGradient(inst *Instance, x *vector) *gradient {
	g := newVector(inst.NumVar)
	inst.qVec(x, g)
	for j := 0; j < inst.NumVar; j++ {
		g.value[j] += inst.C[j]
	}
	g.resparsify()
	return &gradient{g: g}
}

func (gr *gradient) current() *vector { return gr.g }

// update advances the gradient after a step of length alpha along the
// direction whose quadratic image Qp is in bufQp.
func (gr *gradient) update(bufQp *vector, alpha float64) {
	gr.g.saxpy(alpha, bufQp)
}
