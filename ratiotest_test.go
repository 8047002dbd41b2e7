package qp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func ratioTestInstance() *Instance {
	return &Instance{
		NumVar:   2,
		NumCon:   1,
		C:        []float64{0, 0},
		A:        mat.NewDense(1, 2, []float64{1, 1}),
		ConLower: []float64{math.Inf(-1)},
		ConUpper: []float64{4},
		VarLower: []float64{0, 0},
		VarUpper: []float64{3, math.Inf(1)},
	}
}

func TestRatioTestSelectsNearestBlockingSlot(t *testing.T) {
	inst := ratioTestInstance()

	tests := []struct {
		name        string
		x, p        []float64
		maxStep     float64
		wantAlpha   float64
		wantSlot    int
		wantAtLower bool
	}{
		{
			name:      "variable upper bound blocks first",
			x:         []float64{0, 0},
			p:         []float64{1, 0},
			maxStep:   math.Inf(1),
			wantAlpha: 3,
			wantSlot:  1, // x1's bound slot
		},
		{
			name:      "constraint row blocks before the variable bound",
			x:         []float64{0, 0},
			p:         []float64{1, 2},
			maxStep:   math.Inf(1),
			wantAlpha: 4.0 / 3.0,
			wantSlot:  0,
		},
		{
			name:        "decreasing move hits a lower bound",
			x:           []float64{2, 1},
			p:           []float64{0, -1},
			maxStep:     math.Inf(1),
			wantAlpha:   1,
			wantSlot:    2,
			wantAtLower: true,
		},
		{
			name:      "curvature bound wins when it is tighter",
			x:         []float64{0, 0},
			p:         []float64{1, 0},
			maxStep:   0.5,
			wantAlpha: 0.5,
			wantSlot:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := vectorFromSlice(tt.x)
			p := vectorFromSlice(tt.p)
			rowActivity := newVector(inst.NumCon)
			rowMove := newVector(inst.NumCon)
			inst.matVec(x, rowActivity)
			inst.matVec(p, rowMove)

			res := ratioTest(inst, x, p, rowActivity, rowMove, tt.maxStep, 1e-9)
			assert.InDelta(t, tt.wantAlpha, res.alpha, 1e-12)
			assert.Equal(t, tt.wantSlot, res.limitingSlot)
			if tt.wantSlot >= 0 {
				assert.Equal(t, tt.wantAtLower, res.atLower)
			}
		})
	}
}

func TestRatioTestReportsUnblockedDirection(t *testing.T) {
	inst := ratioTestInstance()
	inst.ConUpper[0] = math.Inf(1)

	// nothing finite lies in the direction of increasing x2
	x := vectorFromSlice([]float64{0, 1})
	p := vectorFromSlice([]float64{0, 1})
	rowActivity := newVector(1)
	rowMove := newVector(1)
	inst.matVec(x, rowActivity)
	inst.matVec(p, rowMove)

	res := ratioTest(inst, x, p, rowActivity, rowMove, math.Inf(1), 1e-9)
	assert.True(t, math.IsInf(res.alpha, 1))
	assert.Equal(t, -1, res.limitingSlot)
}

func TestRatioTestIgnoresTinyCoefficients(t *testing.T) {
	inst := ratioTestInstance()

	// x1 sits on its upper bound and the direction pushes it out by a hair.
	// treating 1e-12 as a real coefficient would produce alpha = 0 here.
	x := vectorFromSlice([]float64{3, 0})
	p := vectorFromSlice([]float64{1e-12, 1})
	rowActivity := newVector(1)
	rowMove := newVector(1)
	inst.matVec(x, rowActivity)
	inst.matVec(p, rowMove)

	res := ratioTest(inst, x, p, rowActivity, rowMove, math.Inf(1), 1e-9)
	assert.Equal(t, 0, res.limitingSlot, "the constraint row is the only real blocker")
	assert.InDelta(t, 1.0, res.alpha, 1e-9)
}

func TestRatioTestClampsDegenerateStepToZero(t *testing.T) {
	inst := ratioTestInstance()

	// x2 marginally below its lower bound; moving further down must yield a
	// zero step, never a negative one.
	x := vectorFromSlice([]float64{0, -1e-13})
	p := vectorFromSlice([]float64{0, -1})
	rowActivity := newVector(1)
	rowMove := newVector(1)
	inst.matVec(x, rowActivity)
	inst.matVec(p, rowMove)

	res := ratioTest(inst, x, p, rowActivity, rowMove, math.Inf(1), 1e-9)
	assert.Equal(t, 0.0, res.alpha)
	assert.Equal(t, 2, res.limitingSlot)
	assert.True(t, res.atLower)
}

func TestRatioTestLoosensMonotonically(t *testing.T) {
	// widening the blocking bound can only increase the permitted step
	inst := ratioTestInstance()
	x := vectorFromSlice([]float64{0, 0})
	p := vectorFromSlice([]float64{1, 0})
	rowActivity := newVector(1)
	rowMove := newVector(1)
	inst.matVec(x, rowActivity)
	inst.matVec(p, rowMove)

	prev := 0.0
	for _, upper := range []float64{1, 2, 3.5} {
		inst.VarUpper[0] = upper
		res := ratioTest(inst, x, p, rowActivity, rowMove, math.Inf(1), 1e-9)
		assert.Greater(t, res.alpha, prev)
		prev = res.alpha
	}
}
