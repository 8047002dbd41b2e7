package qp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SlotStatus describes whether a constraint slot is held as an equality by
// the active set, and at which of its bounds.
type SlotStatus int8

const (
	SlotInactive SlotStatus = iota
	SlotActiveAtLower
	SlotActiveAtUpper
)

func (s SlotStatus) String() string {
	switch s {
	case SlotInactive:
		return "inactive"
	case SlotActiveAtLower:
		return "active at lower"
	case SlotActiveAtUpper:
		return "active at upper"
	}
	return "unknown"
}

// basis partitions the constraint slots into the ordered active set and the
// inactive remainder, and maintains the square base matrix M whose rows are
// the normals of the active slots plus complement rows drawn from inactive
// slots. M is always nonsingular; the null-space basis Z of the active set
// consists of the columns of M^-1 at the complement row positions.
//
// The basis trusts its callers: misuse (deactivating an inactive slot,
// activating past the rank bound without an eviction) is a programming
// error and panics.
type basis struct {
	inst *Instance

	status []SlotStatus

	// slots currently held as equalities, in activation order.
	active []int

	// inactive slots whose rows complete M to a nonsingular square.
	// Order matters: complement position k is null-space coordinate k.
	complement []int

	// baseRows[r] is the slot occupying row r of M; posInBase is its
	// inverse, -1 for slots outside M.
	baseRows  []int
	posInBase []int

	m  *mat.Dense
	lu mat.LU

	// reusable right-hand side for the LU solves
	rhs *mat.VecDense
}

// newBasis builds a basis from per-slot statuses and a complement list whose
// rows, together with the active rows, form a nonsingular square matrix.
func newBasis(inst *Instance, status []SlotStatus, complement []int) *basis {
	if len(status) != inst.numSlots() {
		panic("basis: status array does not cover the slot space")
	}
	b := &basis{
		inst:      inst,
		status:    make([]SlotStatus, len(status)),
		posInBase: make([]int, inst.numSlots()),
		baseRows:  make([]int, 0, inst.NumVar),
		m:         mat.NewDense(inst.NumVar, inst.NumVar, nil),
		rhs:       mat.NewVecDense(inst.NumVar, nil),
	}
	copy(b.status, status)
	for i := range b.posInBase {
		b.posInBase[i] = -1
	}
	for slot, st := range status {
		if st != SlotInactive {
			b.active = append(b.active, slot)
		}
	}
	if len(b.active) > inst.NumVar {
		panic("basis: active set exceeds the number of variables")
	}
	for _, slot := range b.active {
		b.posInBase[slot] = len(b.baseRows)
		b.baseRows = append(b.baseRows, slot)
	}
	for _, slot := range complement {
		if b.status[slot] != SlotInactive {
			panic("basis: complement slot is active")
		}
		b.posInBase[slot] = len(b.baseRows)
		b.baseRows = append(b.baseRows, slot)
		b.complement = append(b.complement, slot)
	}
	if len(b.baseRows) != inst.NumVar {
		panic("basis: active plus complement rows do not form a square base")
	}
	normal := newVector(inst.NumVar)
	for r, slot := range b.baseRows {
		inst.slotNormal(slot, normal)
		b.m.SetRow(r, normal.value)
	}
	b.refactorize()
	return b
}

func (b *basis) numActive() int   { return len(b.active) }
func (b *basis) numInactive() int { return b.inst.numSlots() - len(b.active) }

// nullspaceDim is the number of complement rows, i.e. the remaining degrees
// of freedom of the current face.
func (b *basis) nullspaceDim() int { return len(b.complement) }

func (b *basis) slotStatus(slot int) SlotStatus { return b.status[slot] }

// indexInFactor returns the base-row position of a slot, -1 if it is not
// part of the base matrix.
func (b *basis) indexInFactor(slot int) int { return b.posInBase[slot] }

func (b *basis) refactorize() {
	b.lu.Factorize(b.m)
}

// ftran solves M y = rhs. Used for edge directions and Zprod.
func (b *basis) ftran(rhs, out *vector) {
	b.solveBase(false, rhs, out)
}

// btran solves M' y = rhs. Used for duals and Ztprod.
func (b *basis) btran(rhs, out *vector) {
	b.solveBase(true, rhs, out)
}

func (b *basis) solveBase(trans bool, rhs, out *vector) {
	for i := 0; i < b.inst.NumVar; i++ {
		b.rhs.SetVec(i, rhs.value[i])
	}
	dst := mat.NewVecDense(b.inst.NumVar, out.value)
	if err := b.lu.SolveVecTo(dst, trans, b.rhs); err != nil {
		panic(fmt.Sprintf("basis: base matrix is singular: %v", err))
	}
	out.resparsify()
}

// edgeDirection computes the direction y with normal(slot)'y = 1 and
// normal(r)'y = 0 for every other base row r: the edge along which slot can
// be relaxed. slot must be part of the base.
func (b *basis) edgeDirection(slot int, out *vector) {
	pos := b.posInBase[slot]
	if pos < 0 {
		panic("basis: edge direction requested for a slot outside the base")
	}
	e := unitVector(b.inst.NumVar, pos)
	b.ftran(e, out)
}

// zProd computes p = Z v, where v has one coordinate per complement position.
func (b *basis) zProd(v *vector, dim int, p *vector) {
	rhs := newVector(b.inst.NumVar)
	for k := 0; k < dim; k++ {
		rhs.value[b.posInBase[b.complement[k]]] = v.value[k]
	}
	rhs.resparsify()
	b.ftran(rhs, p)
}

// zTProd computes l = Z' g.
func (b *basis) zTProd(g *vector, l *vector) {
	w := newVector(b.inst.NumVar)
	b.btran(g, w)
	l.reset()
	for k, slot := range b.complement {
		l.value[k] = w.value[b.posInBase[slot]]
	}
	l.resparsify()
}

// pricingObserver is notified by the basis when the active set changes, so
// pricing strategies can keep their per-slot weights in step.
type pricingObserver interface {
	basisChanged(activated, evicted int)
}

// activate moves slot from inactive to active at the given bound. If the
// slot is not already part of the base matrix, evict must name a complement
// slot whose base row it replaces; evict leaves the base entirely.
func (b *basis) activate(slot int, status SlotStatus, evict int, obs pricingObserver) {
	if status == SlotInactive {
		panic("basis: activation with inactive status")
	}
	if b.status[slot] != SlotInactive {
		panic("basis: slot is already active")
	}
	if b.posInBase[slot] >= 0 {
		// already a complement member: its row stays, it just switches sides.
		b.removeComplement(slot)
	} else {
		if b.status[evict] != SlotInactive || b.posInBase[evict] < 0 {
			panic("basis: eviction candidate is not a complement slot")
		}
		pos := b.posInBase[evict]
		b.removeComplement(evict)
		b.posInBase[evict] = -1
		b.posInBase[slot] = pos
		b.baseRows[pos] = slot
		normal := newVector(b.inst.NumVar)
		b.inst.slotNormal(slot, normal)
		b.m.SetRow(pos, normal.value)
		b.refactorize()
	}
	b.status[slot] = status
	b.active = append(b.active, slot)
	if len(b.active) > b.inst.NumVar {
		panic("basis: active set exceeds the number of variables")
	}
	if obs != nil {
		obs.basisChanged(slot, evict)
	}
}

// deactivate releases an active slot back to the inactive set. Its base row
// is kept; the slot becomes the newest complement member, i.e. the newest
// null-space coordinate.
func (b *basis) deactivate(slot int) {
	if b.status[slot] == SlotInactive {
		panic("basis: deactivation of a slot that is not active")
	}
	b.status[slot] = SlotInactive
	for i, s := range b.active {
		if s == slot {
			b.active = append(b.active[:i], b.active[i+1:]...)
			break
		}
	}
	b.complement = append(b.complement, slot)
}

func (b *basis) removeComplement(slot int) {
	for i, s := range b.complement {
		if s == slot {
			b.complement = append(b.complement[:i], b.complement[i+1:]...)
			return
		}
	}
	panic("basis: slot is not a complement member")
}

// complementIndex returns the null-space coordinate of slot, -1 if slot is
// not a complement member.
func (b *basis) complementIndex(slot int) int {
	for i, s := range b.complement {
		if s == slot {
			return i
		}
	}
	return -1
}

// recomputeX solves the square active system for the primal point. Only
// meaningful when the active set is full; used as a numerical cleanup on
// termination.
func (b *basis) recomputeX(out *vector) {
	if len(b.active) != b.inst.NumVar {
		panic("basis: primal recomputation requires a full active set")
	}
	rhs := newVector(b.inst.NumVar)
	for _, slot := range b.active {
		var bound float64
		if b.status[slot] == SlotActiveAtLower {
			bound = b.inst.slotLower(slot)
		} else {
			bound = b.inst.slotUpper(slot)
		}
		rhs.value[b.posInBase[slot]] = bound
	}
	rhs.resparsify()
	b.ftran(rhs, out)
}

// statuses returns a copy of the per-slot statuses, for warm starts.
func (b *basis) statuses() []SlotStatus {
	out := make([]SlotStatus, len(b.status))
	copy(out, b.status)
	return out
}
