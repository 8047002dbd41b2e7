package qp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Instance is one continuous relaxation in standard form:
//
//	minimize    1/2 x'Qx + c'x
//	subject to  conLower <= A x <= conUpper
//	            varLower <=  x  <= varUpper
//
// Q may be nil for a pure LP. An Instance is immutable for the duration of
// a solve.
type Instance struct {
	NumVar int
	NumCon int

	// quadratic objective matrix, NumVar x NumVar, symmetric. Nil means LP.
	Q *mat.Dense

	// linear cost vector, length NumVar.
	C []float64

	// general constraint matrix, NumCon x NumVar. Nil iff NumCon == 0.
	A *mat.Dense

	ConLower []float64
	ConUpper []float64
	VarLower []float64
	VarUpper []float64
}

// The solver works on a single index space of "slots" covering both general
// constraints and variable bounds: slots 0..NumCon-1 are constraint rows,
// slots NumCon..NumCon+NumVar-1 are variable bounds.

func (in *Instance) numSlots() int { return in.NumCon + in.NumVar }

func (in *Instance) isVarSlot(slot int) bool { return slot >= in.NumCon }

func (in *Instance) slotLower(slot int) float64 {
	if in.isVarSlot(slot) {
		return in.VarLower[slot-in.NumCon]
	}
	return in.ConLower[slot]
}

func (in *Instance) slotUpper(slot int) float64 {
	if in.isVarSlot(slot) {
		return in.VarUpper[slot-in.NumCon]
	}
	return in.ConUpper[slot]
}

// slotNormal writes the constraint normal of a slot into out: the A row for
// a general constraint, a unit vector for a variable bound.
func (in *Instance) slotNormal(slot int, out *vector) {
	out.reset()
	if in.isVarSlot(slot) {
		j := slot - in.NumCon
		out.value[j] = 1.0
		out.index[0] = j
		out.nnz = 1
		return
	}
	for j := 0; j < in.NumVar; j++ {
		out.value[j] = in.A.At(slot, j)
	}
	out.resparsify()
}

// matVec computes out = A x.
func (in *Instance) matVec(x, out *vector) {
	out.reset()
	for i := 0; i < in.NumCon; i++ {
		sum := 0.0
		for k := 0; k < x.nnz; k++ {
			j := x.index[k]
			sum += in.A.At(i, j) * x.value[j]
		}
		out.value[i] = sum
	}
	out.resparsify()
}

// qVec computes out = Q x; out is zeroed for an LP.
func (in *Instance) qVec(x, out *vector) {
	out.reset()
	if in.Q == nil {
		return
	}
	for i := 0; i < in.NumVar; i++ {
		sum := 0.0
		for k := 0; k < x.nnz; k++ {
			j := x.index[k]
			sum += in.Q.At(i, j) * x.value[j]
		}
		out.value[i] = sum
	}
	out.resparsify()
}

// ObjectiveValue evaluates 1/2 x'Qx + c'x at the given point.
func (in *Instance) ObjectiveValue(x []float64) float64 {
	val := 0.0
	for j, xj := range x {
		val += in.C[j] * xj
	}
	if in.Q != nil {
		for i := 0; i < in.NumVar; i++ {
			row := 0.0
			for j := 0; j < in.NumVar; j++ {
				row += in.Q.At(i, j) * x[j]
			}
			val += 0.5 * x[i] * row
		}
	}
	return val
}

// primalInfeasibility sums the bound violations of a point and its row
// activity, and counts the violated slots.
func (in *Instance) primalInfeasibility(x, rowActivity *vector, tol float64) (sum float64, num int) {
	for slot := 0; slot < in.numSlots(); slot++ {
		var cur float64
		if in.isVarSlot(slot) {
			cur = x.value[slot-in.NumCon]
		} else {
			cur = rowActivity.value[slot]
		}
		if lo := in.slotLower(slot); cur < lo-tol {
			sum += lo - cur
			num++
		} else if up := in.slotUpper(slot); cur > up+tol {
			sum += cur - up
			num++
		}
	}
	return sum, num
}

// Validate checks the dimensional consistency of the instance.
func (in *Instance) Validate() error {
	if in.NumVar <= 0 {
		return errors.New("instance has no variables")
	}
	if len(in.C) != in.NumVar {
		return errors.New("cost vector length does not match number of variables")
	}
	if len(in.VarLower) != in.NumVar || len(in.VarUpper) != in.NumVar {
		return errors.New("variable bound arrays do not match number of variables")
	}
	if in.Q != nil {
		r, c := in.Q.Dims()
		if r != in.NumVar || c != in.NumVar {
			return errors.New("quadratic matrix dimensions do not match number of variables")
		}
	}
	if in.NumCon > 0 {
		if in.A == nil {
			return errors.New("constraint matrix is nil while constraints are declared")
		}
		r, c := in.A.Dims()
		if r != in.NumCon {
			return errors.New("number of rows in A does not match number of constraints")
		}
		if c != in.NumVar {
			return errors.New("number of columns in A does not match number of variables")
		}
		if len(in.ConLower) != in.NumCon || len(in.ConUpper) != in.NumCon {
			return errors.New("constraint bound arrays do not match number of constraints")
		}
	}
	// contradictory bounds are not a malformed model; they surface as
	// StatusInfeasible before the iteration loop starts.
	return nil
}

// boundedBelow reports whether slot has a finite lower bound.
func (in *Instance) boundedBelow(slot int) bool {
	return !math.IsInf(in.slotLower(slot), -1)
}

func (in *Instance) boundedAbove(slot int) bool {
	return !math.IsInf(in.slotUpper(slot), 1)
}
