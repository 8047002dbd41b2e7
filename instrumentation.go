package qp

import "time"

// Monitor receives periodic progress snapshots from a running solve. It is
// injected per solve, must not block, and must not mutate solver state; the
// snapshot is a pure notification with no influence on control flow.
type Monitor interface {
	Progress(Progress)
}

// Progress is one statistics snapshot, emitted every ReportingFrequency
// iterations and once on termination.
type Progress struct {
	Iteration          int
	ObjectiveValue     float64
	NullspaceDimension int
	ActiveSetSize      int
	FactorDensity      float64
	InfeasibilitySum   float64
	InfeasibilityCount int
	Elapsed            time.Duration
}

type noopMonitor struct{}

func (noopMonitor) Progress(Progress) {}
