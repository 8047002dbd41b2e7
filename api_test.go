package qp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProblemToInstance(t *testing.T) {
	prob := NewProblem()
	x1 := prob.AddVariable(-2, 0, Inf())
	x2 := prob.AddVariable(-2, 0, Inf())
	prob.AddConstraint([]Term{{1, x1}, {1, x2}}, math.Inf(-1), 1)
	prob.SetQuadraticTerm(x1, x1, 1)
	prob.SetQuadraticTerm(x2, x2, 1)

	inst, err := prob.ToInstance()
	assert.NoError(t, err)
	assert.Equal(t, 2, inst.NumVar)
	assert.Equal(t, 1, inst.NumCon)
	assert.Equal(t, []float64{-2, -2}, inst.C)
	assert.Equal(t, 1.0, inst.A.At(0, 0))
	assert.Equal(t, 1.0, inst.A.At(0, 1))
	assert.Equal(t, 1.0, inst.ConUpper[0])
	assert.Equal(t, 1.0, inst.Q.At(0, 0))
	assert.Equal(t, 0.0, inst.Q.At(0, 1))
}

func TestProblemRepeatedTermsAccumulate(t *testing.T) {
	prob := NewProblem()
	x := prob.AddVariable(0, 0, 1)
	prob.AddConstraint([]Term{{1, x}, {2, x}}, 0, 3)

	inst, err := prob.ToInstance()
	assert.NoError(t, err)
	assert.Equal(t, 3.0, inst.A.At(0, 0))
}

func TestProblemQuadraticTermIsSymmetric(t *testing.T) {
	prob := NewProblem()
	x1 := prob.AddVariable(0, 0, 1)
	x2 := prob.AddVariable(0, 0, 1)
	prob.SetQuadraticTerm(x1, x2, 0.5)

	inst, err := prob.ToInstance()
	assert.NoError(t, err)
	assert.Equal(t, 0.5, inst.Q.At(0, 1))
	assert.Equal(t, 0.5, inst.Q.At(1, 0))
}

func TestProblemRejectsForeignVariables(t *testing.T) {
	prob := NewProblem()
	other := NewProblem()
	foreign := other.AddVariable(0, 0, 1)
	prob.AddVariable(0, 0, 1)

	assert.Panics(t, func() {
		prob.AddConstraint([]Term{{1, foreign}}, 0, 1)
	})
	assert.Panics(t, func() {
		prob.SetQuadraticTerm(foreign, foreign, 1)
	})
	assert.Panics(t, func() {
		prob.AddConstraint(nil, 0, 1)
	})
}

func TestProblemSolvesEndToEnd(t *testing.T) {
	prob := NewProblem()
	x1 := prob.AddVariable(-2, 0, Inf())
	x2 := prob.AddVariable(-2, 0, Inf())
	prob.AddConstraint([]Term{{1, x1}, {1, x2}}, math.Inf(-1), 1)
	prob.SetQuadraticTerm(x1, x1, 1)
	prob.SetQuadraticTerm(x2, x2, 1)

	inst, err := prob.ToInstance()
	assert.NoError(t, err)
	solver, err := NewSolver(inst, DefaultSettings(), nil)
	assert.NoError(t, err)
	res, err := solver.Solve()
	assert.NoError(t, err)
	assert.Equal(t, StatusOptimal, res.Status)
	assert.InDelta(t, 0.5, res.X[0], 1e-7)
	assert.InDelta(t, 0.5, res.X[1], 1e-7)
}

func TestValidateCatchesDimensionMismatches(t *testing.T) {
	tests := []struct {
		name string
		inst *Instance
	}{
		{"no variables", &Instance{}},
		{"short cost vector", &Instance{
			NumVar: 2, C: []float64{0},
			VarLower: []float64{0, 0}, VarUpper: []float64{1, 1},
		}},
		{"missing bounds", &Instance{
			NumVar: 2, C: []float64{0, 0},
			VarLower: []float64{0}, VarUpper: []float64{1, 1},
		}},
		{"nil A with constraints", &Instance{
			NumVar: 1, NumCon: 1, C: []float64{0},
			VarLower: []float64{0}, VarUpper: []float64{1},
			ConLower: []float64{0}, ConUpper: []float64{1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.inst.Validate())
		})
	}
}
