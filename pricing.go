package qp

import "math"

// PricingRule selects the variable-selection heuristic used at a
// face-separation point.
type PricingRule int

const (
	// PricingDantzig relaxes the active slot with the most negative dual.
	PricingDantzig PricingRule = iota
	// PricingDevex weighs duals by an approximate steepest-edge reference
	// framework, updated incrementally on every basis change.
	PricingDevex
	// PricingDevexHarris is devex with Harris-style tie handling: among
	// near-best weighted scores, the largest plain dual violation wins.
	PricingDevexHarris
	// PricingSteepestEdge computes exact edge norms for every candidate.
	PricingSteepestEdge
)

// pricer picks the active slot to relax next. price returns -1 exactly when
// no active slot offers an improving direction, which is the local
// optimality test. Implementations must be deterministic for a fixed state.
type pricer interface {
	price(x, g *vector) int
	basisChanged(activated, evicted int)
}

func newPricer(rule PricingRule, b *basis, rc *reducedCosts, tol float64) pricer {
	switch rule {
	case PricingDantzig:
		return &dantzigPricing{b: b, rc: rc, tol: tol}
	case PricingDevex:
		return newDevexPricing(b, rc, tol, false)
	case PricingDevexHarris:
		return newDevexPricing(b, rc, tol, true)
	case PricingSteepestEdge:
		return &steepestEdgePricing{b: b, rc: rc, tol: tol, edge: newVector(b.inst.NumVar)}
	default:
		panic("provided pricing rule unknown")
	}
}

// dualViolation measures how far the dual of an active slot is from the
// sign optimality requires: positive means the slot is worth relaxing.
func dualViolation(b *basis, rc *reducedCosts, slot int, tol float64) float64 {
	lambda := rc.dual(slot)
	score := lambda
	if b.slotStatus(slot) == SlotActiveAtUpper {
		score = -lambda
	}
	if score < -tol {
		return -score
	}
	return 0.0
}

type dantzigPricing struct {
	b   *basis
	rc  *reducedCosts
	tol float64
}

func (p *dantzigPricing) price(x, g *vector) int {
	best := -1
	bestViolation := 0.0
	for _, slot := range p.b.active {
		if v := dualViolation(p.b, p.rc, slot, p.tol); v > bestViolation {
			bestViolation = v
			best = slot
		}
	}
	return best
}

func (p *dantzigPricing) basisChanged(activated, evicted int) {}

// devexPricing keeps one weight per slot approximating the squared edge
// norm. A relaxed slot passes its weight on to whatever the step activates;
// the framework resets when the weights grow out of proportion.
type devexPricing struct {
	b      *basis
	rc     *reducedCosts
	tol    float64
	harris bool

	weights   []float64
	refWeight float64
}

const devexWeightCap = 1e7

func newDevexPricing(b *basis, rc *reducedCosts, tol float64, harris bool) *devexPricing {
	p := &devexPricing{
		b:         b,
		rc:        rc,
		tol:       tol,
		harris:    harris,
		weights:   make([]float64, b.inst.numSlots()),
		refWeight: 1.0,
	}
	p.resetWeights()
	return p
}

func (p *devexPricing) resetWeights() {
	for i := range p.weights {
		p.weights[i] = 1.0
	}
	p.refWeight = 1.0
}

func (p *devexPricing) price(x, g *vector) int {
	best := -1
	bestScore := 0.0
	for _, slot := range p.b.active {
		v := dualViolation(p.b, p.rc, slot, p.tol)
		if v == 0.0 {
			continue
		}
		score := v * v / p.weights[slot]
		if score > bestScore {
			bestScore = score
			best = slot
		}
	}
	if best == -1 {
		return -1
	}
	if p.harris {
		// second pass: among candidates whose weighted score is within a
		// fixed factor of the best, prefer the largest plain violation.
		const harrisSlack = 0.9
		bestViolation := 0.0
		harrisBest := best
		for _, slot := range p.b.active {
			v := dualViolation(p.b, p.rc, slot, p.tol)
			if v == 0.0 {
				continue
			}
			score := v * v / p.weights[slot]
			if score >= harrisSlack*bestScore && v > bestViolation {
				bestViolation = v
				harrisBest = slot
			}
		}
		best = harrisBest
	}
	p.refWeight = p.weights[best]
	return best
}

func (p *devexPricing) basisChanged(activated, evicted int) {
	if w := math.Max(p.weights[activated], p.refWeight); w > p.weights[activated] {
		p.weights[activated] = w
	}
	if p.weights[activated] > devexWeightCap {
		p.resetWeights()
	}
}

// steepestEdgePricing recomputes the exact edge norm of every candidate at
// price time. No incremental state, no approximation error.
type steepestEdgePricing struct {
	b    *basis
	rc   *reducedCosts
	tol  float64
	edge *vector
}

func (p *steepestEdgePricing) price(x, g *vector) int {
	best := -1
	bestScore := 0.0
	for _, slot := range p.b.active {
		v := dualViolation(p.b, p.rc, slot, p.tol)
		if v == 0.0 {
			continue
		}
		p.b.edgeDirection(slot, p.edge)
		norm2 := p.edge.dot(p.edge)
		if norm2 < 1e-30 {
			continue
		}
		score := v * v / norm2
		if score > bestScore {
			bestScore = score
			best = slot
		}
	}
	return best
}

func (p *steepestEdgePricing) basisChanged(activated, evicted int) {}
