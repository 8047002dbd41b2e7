package qp

import (
	"errors"
	"math"
)

// StartingPoint is the handoff from a crash or warm-start routine: a primal
// point plus a status for every slot. It is copied into the solve, never
// aliased, so a caller can reuse it across related instances.
type StartingPoint struct {
	X        []float64
	Statuses []SlotStatus
}

// crashStart builds a starting point by pinning every variable to a finite
// bound where one exists. Contradictory bounds or a point that violates the
// general constraints make the start infeasible; the iteration loop is then
// never entered. Callers with better information (a previous basis in a
// branch-and-bound tree) should go through SolveFrom instead.
func crashStart(inst *Instance, tol float64) (StartingPoint, bool) {
	start := StartingPoint{
		X:        make([]float64, inst.NumVar),
		Statuses: make([]SlotStatus, inst.numSlots()),
	}
	for i := 0; i < inst.NumCon; i++ {
		if inst.ConLower[i] > inst.ConUpper[i]+tol {
			return start, false
		}
	}
	for j := 0; j < inst.NumVar; j++ {
		lo, up := inst.VarLower[j], inst.VarUpper[j]
		if lo > up+tol {
			return start, false
		}
		slot := inst.NumCon + j
		switch {
		case !math.IsInf(lo, -1):
			start.X[j] = lo
			start.Statuses[slot] = SlotActiveAtLower
		case !math.IsInf(up, 1):
			start.X[j] = up
			start.Statuses[slot] = SlotActiveAtUpper
		default:
			start.X[j] = 0.0
		}
	}
	// the crash point must satisfy the general constraints; this stand-in
	// has no feasibility phase.
	x := vectorFromSlice(start.X)
	rowAct := newVector(inst.NumCon)
	inst.matVec(x, rowAct)
	for i := 0; i < inst.NumCon; i++ {
		if rowAct.value[i] < inst.ConLower[i]-tol || rowAct.value[i] > inst.ConUpper[i]+tol {
			return start, false
		}
	}
	return start, true
}

// buildBasis completes the active rows of a starting point to a nonsingular
// square base matrix, drawing complement rows from the bounds of variables
// not covered by the active rows' pivot columns.
func buildBasis(inst *Instance, statuses []SlotStatus) (*basis, error) {
	if len(statuses) != inst.numSlots() {
		return nil, errors.New("starting basis does not cover the slot space")
	}
	var active []int
	for slot, st := range statuses {
		if st != SlotInactive {
			active = append(active, slot)
		}
	}
	if len(active) > inst.NumVar {
		return nil, errors.New("starting basis has more active slots than variables")
	}

	// row-echelon pass over the active normals to find their pivot columns
	n := inst.NumVar
	rows := make([][]float64, len(active))
	normal := newVector(n)
	for i, slot := range active {
		inst.slotNormal(slot, normal)
		rows[i] = normal.toSlice()
	}
	pivotCols := make(map[int]bool, len(active))
	const rankTol = 1e-11
	for r, row := range rows {
		pivot := -1
		for j := 0; j < n; j++ {
			if !pivotCols[j] && math.Abs(row[j]) > rankTol {
				pivot = j
				break
			}
		}
		if pivot == -1 {
			return nil, errors.New("starting basis rows are linearly dependent")
		}
		pivotCols[pivot] = true
		for r2 := r + 1; r2 < len(rows); r2++ {
			if rows[r2][pivot] != 0.0 {
				factor := rows[r2][pivot] / row[pivot]
				for j := 0; j < n; j++ {
					rows[r2][j] -= factor * row[j]
				}
			}
		}
	}

	var complement []int
	for j := 0; j < n; j++ {
		if !pivotCols[j] {
			complement = append(complement, inst.NumCon+j)
		}
	}
	return newBasis(inst, statuses, complement), nil
}
