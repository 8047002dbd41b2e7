package qp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Problem is an incremental model builder. Variables are declared first and
// referenced by pointer in constraint terms and quadratic entries; ToInstance
// freezes the model into the immutable form the solver consumes.
type Problem struct {
	variables   []*Variable
	constraints []constraint
	quadratic   []quadTerm
}

type Variable struct {
	// coefficient of the variable in the linear part of the objective
	Cost float64

	Lower float64
	Upper float64

	index int
}

// Term is one coefficient-variable pair on the left-hand side of a
// constraint, e.g. "-1 * x1".
type Term struct {
	Coef float64
	Var  *Variable
}

type constraint struct {
	terms []Term
	lower float64
	upper float64
}

type quadTerm struct {
	vi, vj *Variable
	value  float64
}

func NewProblem() Problem {
	return Problem{}
}

// AddVariable declares a variable and returns a reference to it. Use
// math.Inf for free bounds.
func (p *Problem) AddVariable(cost, lower, upper float64) *Variable {
	v := &Variable{
		Cost:  cost,
		Lower: lower,
		Upper: upper,
		index: len(p.variables),
	}
	p.variables = append(p.variables, v)
	return v
}

// AddConstraint adds a two-sided general constraint lower <= sum(terms) <= upper.
func (p *Problem) AddConstraint(terms []Term, lower, upper float64) {
	if len(terms) == 0 {
		panic("must add terms")
	}
	for _, t := range terms {
		if !p.ownsVariable(t.Var) {
			panic("provided term contains a variable that has not been declared to this problem yet")
		}
	}
	p.constraints = append(p.constraints, constraint{
		terms: terms,
		lower: lower,
		upper: upper,
	})
}

// SetQuadraticTerm sets Q[i][j] (and Q[j][i], keeping Q symmetric) in the
// quadratic objective contribution 1/2 x'Qx.
func (p *Problem) SetQuadraticTerm(vi, vj *Variable, value float64) {
	if !p.ownsVariable(vi) || !p.ownsVariable(vj) {
		panic("provided quadratic term references a variable that has not been declared to this problem yet")
	}
	p.quadratic = append(p.quadratic, quadTerm{vi: vi, vj: vj, value: value})
}

// Check whether the variable pointer was declared through this problem.
func (p *Problem) ownsVariable(v *Variable) bool {
	for _, candidate := range p.variables {
		if candidate == v {
			return true
		}
	}
	return false
}

// ToInstance freezes the builder into a solver instance.
func (p *Problem) ToInstance() (*Instance, error) {
	numVar := len(p.variables)
	numCon := len(p.constraints)

	inst := &Instance{
		NumVar:   numVar,
		NumCon:   numCon,
		C:        make([]float64, numVar),
		VarLower: make([]float64, numVar),
		VarUpper: make([]float64, numVar),
	}
	for j, v := range p.variables {
		inst.C[j] = v.Cost
		inst.VarLower[j] = v.Lower
		inst.VarUpper[j] = v.Upper
	}
	if numCon > 0 {
		inst.A = mat.NewDense(numCon, numVar, nil)
		inst.ConLower = make([]float64, numCon)
		inst.ConUpper = make([]float64, numCon)
		for i, c := range p.constraints {
			for _, t := range c.terms {
				inst.A.Set(i, t.Var.index, inst.A.At(i, t.Var.index)+t.Coef)
			}
			inst.ConLower[i] = c.lower
			inst.ConUpper[i] = c.upper
		}
	}
	if len(p.quadratic) > 0 {
		inst.Q = mat.NewDense(numVar, numVar, nil)
		for _, q := range p.quadratic {
			i, j := q.vi.index, q.vj.index
			inst.Q.Set(i, j, q.value)
			inst.Q.Set(j, i, q.value)
		}
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Inf is a convenience for unbounded sides.
func Inf() float64 { return math.Inf(1) }
