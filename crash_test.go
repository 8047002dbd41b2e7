package qp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestCrashStartPinsToBounds(t *testing.T) {
	inst := &Instance{
		NumVar:   3,
		NumCon:   0,
		C:        []float64{0, 0, 0},
		VarLower: []float64{1, math.Inf(-1), math.Inf(-1)},
		VarUpper: []float64{5, 4, math.Inf(1)},
	}
	start, feasible := crashStart(inst, 1e-8)
	assert.True(t, feasible)
	// lower preferred when both sides are finite; free variables start at 0
	assert.Equal(t, []float64{1, 4, 0}, start.X)
	assert.Equal(t, SlotActiveAtLower, start.Statuses[0])
	assert.Equal(t, SlotActiveAtUpper, start.Statuses[1])
	assert.Equal(t, SlotInactive, start.Statuses[2])
}

func TestCrashStartDetectsContradictoryBounds(t *testing.T) {
	inst := &Instance{
		NumVar:   1,
		NumCon:   0,
		C:        []float64{0},
		VarLower: []float64{5},
		VarUpper: []float64{2},
	}
	_, feasible := crashStart(inst, 1e-8)
	assert.False(t, feasible)

	inst = &Instance{
		NumVar:   1,
		NumCon:   1,
		C:        []float64{0},
		A:        mat.NewDense(1, 1, []float64{1}),
		ConLower: []float64{3},
		ConUpper: []float64{1},
		VarLower: []float64{0},
		VarUpper: []float64{10},
	}
	_, feasible = crashStart(inst, 1e-8)
	assert.False(t, feasible)
}

func TestCrashStartDetectsViolatedRow(t *testing.T) {
	// pinning to the lower bounds puts the row activity above its upper bound
	inst := &Instance{
		NumVar:   2,
		NumCon:   1,
		C:        []float64{0, 0},
		A:        mat.NewDense(1, 2, []float64{1, 1}),
		ConLower: []float64{math.Inf(-1)},
		ConUpper: []float64{3},
		VarLower: []float64{2, 2},
		VarUpper: []float64{10, 10},
	}
	_, feasible := crashStart(inst, 1e-8)
	assert.False(t, feasible)
}

func TestBuildBasisCompletesWithBoundSlots(t *testing.T) {
	inst := simplexQPInstance()
	// only the constraint row active: one variable's bound must complete the base
	statuses := []SlotStatus{SlotActiveAtUpper, SlotInactive, SlotInactive}
	b, err := buildBasis(inst, statuses)
	assert.NoError(t, err)
	assert.Equal(t, 1, b.numActive())
	assert.Equal(t, 1, b.nullspaceDim())
	assert.Equal(t, []int{inst.NumCon + 1}, b.complement)
}

func TestBuildBasisRejectsDependentRows(t *testing.T) {
	inst := &Instance{
		NumVar:   2,
		NumCon:   2,
		C:        []float64{0, 0},
		A:        mat.NewDense(2, 2, []float64{1, 1, 2, 2}),
		ConLower: []float64{0, 0},
		ConUpper: []float64{4, 8},
		VarLower: []float64{0, 0},
		VarUpper: []float64{4, 4},
	}
	statuses := []SlotStatus{SlotActiveAtLower, SlotActiveAtLower, SlotInactive, SlotInactive}
	_, err := buildBasis(inst, statuses)
	assert.Error(t, err)
}

func TestBuildBasisRejectsOverfullActiveSet(t *testing.T) {
	inst := simplexQPInstance()
	statuses := []SlotStatus{SlotActiveAtUpper, SlotActiveAtLower, SlotActiveAtLower}
	_, err := buildBasis(inst, statuses)
	assert.Error(t, err)
}
