package qp

import (
	"errors"
	"math"
	"time"
)

// Status is the terminal state of a solve. Resource exhaustion is a status,
// not an error: the best point found so far is still returned.
type Status int

const (
	StatusNotSolved Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusIterationLimit
	StatusTimeLimit
)

func (s Status) String() string {
	switch s {
	case StatusNotSolved:
		return "not solved"
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusIterationLimit:
		return "iteration limit reached"
	case StatusTimeLimit:
		return "time limit reached"
	}
	return "unknown"
}

// Settings holds the per-solve configuration.
type Settings struct {
	IterationLimit     int
	TimeLimit          time.Duration // zero means no limit
	ReportingFrequency int
	Pricing            PricingRule

	// numerical thresholds
	ZeroCurvatureTol   float64 // below this, p'Qp counts as zero curvature
	PNormZeroTol       float64 // below this, a search direction counts as zero
	PivotZeroTol       float64 // degenerate-pivot threshold in the reduction
	RatioTestTol       float64 // coefficients below this are non-blocking
	DualFeasibilityTol float64 // pricing optimality tolerance
	FeasibilityTol     float64 // primal feasibility tolerance
	SanitizeTol        float64 // snap-to-zero threshold for vector drift
}

func DefaultSettings() Settings {
	return Settings{
		IterationLimit:     10000,
		ReportingFrequency: 100,
		Pricing:            PricingDevex,
		ZeroCurvatureTol:   1e-9,
		PNormZeroTol:       1e-10,
		PivotZeroTol:       1e-9,
		RatioTestTol:       1e-9,
		DualFeasibilityTol: 1e-7,
		FeasibilityTol:     1e-8,
		SanitizeTol:        1e-14,
	}
}

// Result carries everything that crosses the module boundary on
// termination: the terminal status, the primal point, the duals recovered
// for active constraints and bounds, and the final basis for warm starts.
type Result struct {
	Status         Status
	X              []float64
	ObjectiveValue float64
	RowActivity    []float64
	DualCon        []float64
	DualVar        []float64
	Iterations     int
	Elapsed        time.Duration
	Basis          []SlotStatus
}

// Solver runs the active-set iteration on one instance. All iteration state
// lives inside a single Solve call; a Solver may be reused sequentially but
// never concurrently.
type Solver struct {
	inst     *Instance
	settings Settings
	monitor  Monitor
}

func NewSolver(inst *Instance, settings Settings, monitor Monitor) (*Solver, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if monitor == nil {
		monitor = noopMonitor{}
	}
	return &Solver{inst: inst, settings: settings, monitor: monitor}, nil
}

// Solve computes a starting point with the bounds crash and runs the
// iteration. An infeasible start terminates before the loop.
func (s *Solver) Solve() (Result, error) {
	start, feasible := crashStart(s.inst, s.settings.FeasibilityTol)
	if !feasible {
		return Result{
			Status:         StatusInfeasible,
			X:              start.X,
			ObjectiveValue: s.inst.ObjectiveValue(start.X),
			DualCon:        make([]float64, s.inst.NumCon),
			DualVar:        make([]float64, s.inst.NumVar),
			RowActivity:    make([]float64, s.inst.NumCon),
			Basis:          start.Statuses,
		}, nil
	}
	return s.SolveFrom(start)
}

// SolveFrom runs the iteration from a supplied starting point, typically a
// warm start from a related relaxation.
func (s *Solver) SolveFrom(start StartingPoint) (Result, error) {
	if len(start.X) != s.inst.NumVar {
		return Result{}, errors.New("starting point length does not match number of variables")
	}
	if len(start.Statuses) != s.inst.numSlots() {
		return Result{}, errors.New("starting statuses do not cover the slot space")
	}
	b, err := buildBasis(s.inst, start.Statuses)
	if err != nil {
		return Result{}, err
	}

	inst := s.inst
	set := s.settings
	t0 := time.Now()

	x := vectorFromSlice(start.X)
	rowActivity := newVector(inst.NumCon)
	inst.matVec(x, rowActivity)

	// infeasible start: detected once, the loop never runs
	if sum, _ := inst.primalInfeasibility(x, rowActivity, set.FeasibilityTol); sum > set.FeasibilityTol {
		res := s.buildResult(StatusInfeasible, x, rowActivity, b, nil, 0, time.Since(t0))
		return res, nil
	}

	grad := newGradient(inst, x)
	redCosts := newReducedCosts(b, grad)
	redGrad := newReducedGradient(b, grad)
	factor := newCholesky(inst, b, set.PivotZeroTol)
	pricing := newPricer(set.Pricing, b, redCosts, set.DualFeasibilityTol)

	p := newVector(inst.NumVar)
	rowMove := newVector(inst.NumCon)
	yp := newVector(inst.NumVar)
	gyp := newVector(inst.NumVar)
	l := newVector(inst.NumVar)
	bufQp := newVector(inst.NumVar)
	d := newVector(inst.NumVar)
	ztqp := newVector(inst.NumVar)

	iterations := 0
	atFace := b.numActive() == inst.NumVar
	status := StatusNotSolved

	for {
		if iterations >= set.IterationLimit {
			status = StatusIterationLimit
			break
		}
		if set.TimeLimit > 0 && time.Since(t0) >= set.TimeLimit {
			status = StatusTimeLimit
			break
		}
		if set.ReportingFrequency > 0 && iterations%set.ReportingFrequency == 0 {
			s.emit(iterations, x, rowActivity, b, factor, time.Since(t0))
		}
		iterations++

		zeroCurvature := false
		maxStep := 1.0

		if atFace {
			relax := pricing.price(x, grad.current())
			if relax == -1 {
				status = StatusOptimal
				break
			}
			b.edgeDirection(relax, yp)
			s.majorDirection(b, factor, grad, yp, gyp, l, p)
			b.deactivate(relax)
			inst.matVec(p, rowMove)
			tidyUp(inst, b, p, rowMove)
			inst.qVec(p, bufQp)
			maxStep = maxStepLength(p, bufQp, grad.current(), set.ZeroCurvatureTol, &zeroCurvature)
			if !zeroCurvature {
				factor.expand(yp.dot(gyp), l)
			}
			redGrad.expand(yp, grad)
		} else {
			s.minorDirection(b, factor, redGrad, p)
			inst.matVec(p, rowMove)
			tidyUp(inst, b, p, rowMove)
			inst.qVec(p, bufQp)
		}

		if p.norm2() < set.PNormZeroTol || maxStep == 0.0 {
			atFace = true
			continue
		}

		step := ratioTest(inst, x, p, rowActivity, rowMove, maxStep, set.RatioTestTol)
		if step.limitingSlot != -1 {
			pivot, evict, wasComplement, rerr := s.reduceNullspace(b, step.limitingSlot, d, redGrad.dim)
			if rerr != nil {
				// degenerate leaving-variable search: abandon the step and
				// re-price from the face instead of aborting the process
				atFace = true
				continue
			}
			if !zeroCurvature {
				if ferr := factor.reduce(d, pivot, wasComplement); ferr != nil {
					atFace = true
					continue
				}
			}
			redGrad.reduce(d, pivot)
			newStatus := SlotActiveAtUpper
			if step.atLower {
				newStatus = SlotActiveAtLower
			}
			b.activate(step.limitingSlot, newStatus, evict, pricing)
			redCosts.invalidate()
			atFace = b.numActive() == inst.NumVar
		} else if math.IsInf(maxStep, 1) {
			// no blocking constraint and no curvature bound
			status = StatusUnbounded
			break
		} else {
			atFace = true
		}

		// apply the accepted step
		b.zTProd(bufQp, ztqp)
		redGrad.update(step.alpha, ztqp)
		grad.update(bufQp, step.alpha)
		redCosts.invalidate()
		x.saxpy(step.alpha, p)
		x.sanitize(set.SanitizeTol)
		rowActivity.saxpy(step.alpha, rowMove)
		rowActivity.sanitize(set.SanitizeTol)
	}

	s.emit(iterations, x, rowActivity, b, factor, time.Since(t0))

	res := s.buildResult(status, x, rowActivity, b, redCosts, iterations, time.Since(t0))
	return res, nil
}

// majorDirection computes the descent direction when a bound is relaxed
// along the edge yp: the projected quadratic-aware correction plus the edge
// itself, signed so the direction descends. Uses the basis and factor as
// they stand before the deactivation.
func (s *Solver) majorDirection(b *basis, factor *cholesky, grad *gradient, yp, gyp, l, p *vector) {
	s.inst.qVec(yp, gyp)
	g := grad.current()
	if b.numActive() < s.inst.NumVar && factor.dim > 0 {
		b.zTProd(gyp, l)
		factor.solveL(l)
		v := l.clone()
		factor.solveLT(v)
		b.zProd(v, factor.dim, p)
		if g.dot(yp) < 0 {
			p.axpby(1.0, yp, -1.0) // p = yp - p
		} else {
			p.axpby(-1.0, yp, -1.0) // p = -yp - p
		}
	} else {
		l.reset()
		p.copyFrom(yp)
		p.scale(-g.dot(yp))
	}
}

// minorDirection is the pure null-space Newton step: solve the factor
// against the negative reduced gradient and map back with Z.
func (s *Solver) minorDirection(b *basis, factor *cholesky, redGrad *reducedGradient, p *vector) {
	if factor.dim == 0 {
		p.reset()
		return
	}
	g2 := redGrad.current().clone()
	g2.scale(-1.0)
	g2.sanitize(s.settings.SanitizeTol)
	factor.solve(g2)
	g2.sanitize(s.settings.SanitizeTol)
	b.zProd(g2, factor.dim, p)
}

// maxStepLength bounds the step by the quadratic curvature along p: the
// unconstrained minimizer of the objective on the ray. Directions of
// (near-)zero curvature are unbounded by the objective.
func maxStepLength(p, bufQp, g *vector, tol float64, zeroCurvature *bool) float64 {
	denominator := p.dot(bufQp)
	if math.Abs(denominator) > tol {
		numerator := -p.dot(g)
		if numerator < 0.0 {
			return 0.0
		}
		return numerator / denominator
	}
	*zeroCurvature = true
	return math.Inf(1)
}

// tidyUp zeroes the direction components of active bounds and the row-move
// components of active constraints; they are exact zeros mathematically and
// keeping them exact stops drift from re-entering the ratio test.
func tidyUp(inst *Instance, b *basis, p, rowMove *vector) {
	for _, slot := range b.active {
		if inst.isVarSlot(slot) {
			p.value[slot-inst.NumCon] = 0.0
		} else {
			rowMove.value[slot] = 0.0
		}
	}
	p.resparsify()
	rowMove.resparsify()
}

// reduceNullspace finds the elimination data for activating newSlot: its
// null-space coordinates d, the pivot coordinate, and the complement slot
// leaving the base. A pivot below the threshold is the modeled degeneracy.
func (s *Solver) reduceNullspace(b *basis, newSlot int, d *vector, dim int) (pivot, evict int, wasComplement bool, err error) {
	if idx := b.complementIndex(newSlot); idx != -1 {
		d.reset()
		d.value[idx] = 1.0
		d.index[0] = idx
		d.nnz = 1
		return idx, newSlot, true, nil
	}
	aq := newVector(s.inst.NumVar)
	s.inst.slotNormal(newSlot, aq)
	b.zTProd(aq, d)
	pivot = 0
	for i := 1; i < dim; i++ {
		if math.Abs(d.value[i]) > math.Abs(d.value[pivot]) {
			pivot = i
		}
	}
	if dim == 0 || math.Abs(d.value[pivot]) < s.settings.PivotZeroTol {
		return -1, -1, false, errDegeneratePivot
	}
	return pivot, b.complement[pivot], false, nil
}

func (s *Solver) emit(iteration int, x, rowActivity *vector, b *basis, factor *cholesky, elapsed time.Duration) {
	sum, num := s.inst.primalInfeasibility(x, rowActivity, s.settings.FeasibilityTol)
	s.monitor.Progress(Progress{
		Iteration:          iteration,
		ObjectiveValue:     s.inst.ObjectiveValue(x.value),
		NullspaceDimension: b.nullspaceDim(),
		ActiveSetSize:      b.numActive(),
		FactorDensity:      factor.density(),
		InfeasibilitySum:   sum,
		InfeasibilityCount: num,
		Elapsed:            elapsed,
	})
}

// buildResult recovers the duals for every active slot from the multiplier
// vector and, at a full active set, resolves the primal point by direct
// back-substitution for numerical cleanup.
func (s *Solver) buildResult(status Status, x, rowActivity *vector, b *basis, redCosts *reducedCosts, iterations int, elapsed time.Duration) Result {
	inst := s.inst
	dualCon := make([]float64, inst.NumCon)
	dualVar := make([]float64, inst.NumVar)
	if redCosts != nil {
		for _, slot := range b.active {
			if inst.isVarSlot(slot) {
				dualVar[slot-inst.NumCon] = redCosts.dual(slot)
			} else {
				dualCon[slot] = redCosts.dual(slot)
			}
		}
	}
	if b.numActive() == inst.NumVar {
		b.recomputeX(x)
		inst.matVec(x, rowActivity)
	}
	return Result{
		Status:         status,
		X:              x.toSlice(),
		ObjectiveValue: inst.ObjectiveValue(x.value),
		RowActivity:    rowActivity.toSlice(),
		DualCon:        dualCon,
		DualVar:        dualVar,
		Iterations:     iterations,
		Elapsed:        elapsed,
		Basis:          b.statuses(),
	}
}
