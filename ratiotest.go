package qp

import "math"

// ratioTestResult reports how far along the search direction the step may
// go. limitingSlot is -1 when no inactive constraint blocks before alpha
// reaches the curvature bound; alpha == 0 signals a degenerate (already
// binding) blocking constraint.
type ratioTestResult struct {
	alpha        float64
	limitingSlot int
	atLower      bool
}

// ratioTest finds the largest nonnegative step that keeps every inactive
// slot feasible, starting from the curvature-bounded maximum. Entries whose
// direction coefficient is below tol are treated as non-blocking to avoid
// near-zero-denominator ratios.
func ratioTest(inst *Instance, x, p, rowActivity, rowMove *vector, maxStep, tol float64) ratioTestResult {
	res := ratioTestResult{alpha: maxStep, limitingSlot: -1}

	consider := func(slot int, cur, coef float64) {
		if math.Abs(coef) <= tol {
			return
		}
		var limit, bound float64
		var atLower bool
		if coef > 0 {
			bound = inst.slotUpper(slot)
			if math.IsInf(bound, 1) {
				return
			}
			limit = (bound - cur) / coef
			atLower = false
		} else {
			bound = inst.slotLower(slot)
			if math.IsInf(bound, -1) {
				return
			}
			limit = (bound - cur) / coef
			atLower = true
		}
		if limit < 0 {
			// the blocking bound is already (marginally) violated: degenerate
			limit = 0
		}
		if limit < res.alpha {
			res.alpha = limit
			res.limitingSlot = slot
			res.atLower = atLower
		}
	}

	for i := 0; i < inst.NumCon; i++ {
		consider(i, rowActivity.value[i], rowMove.value[i])
	}
	for j := 0; j < inst.NumVar; j++ {
		consider(inst.NumCon+j, x.value[j], p.value[j])
	}
	return res
}
