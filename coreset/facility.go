package coreset

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Facility is a single tentative cluster center: an input point designated
// as a representative, together with the accumulated weight and cost of the
// points dispatched to it. The center is always a copy of an input point's
// coordinates, never a synthetic mean (spec §3).
type Facility[T Numeric] struct {
	dataID uint64
	center []T

	mu     sync.Mutex
	weight float64
	cost   float64
}

// NewFacility creates a facility seeded at center, with zero weight and
// cost. Per spec §3 an explicit Insert must follow if the point that seeds
// the facility should itself count toward its weight.
func NewFacility[T Numeric](dataID uint64, center []T) *Facility[T] {
	cp := make([]T, len(center))
	copy(cp, center)
	return &Facility[T]{dataID: dataID, center: cp}
}

// DataID returns the id of the input point this facility is centered on.
func (f *Facility[T]) DataID() uint64 { return f.dataID }

// Center returns the facility's center coordinates. Callers must not mutate
// the returned slice.
func (f *Facility[T]) Center() []T { return f.center }

// Weight returns the sum of weights dispatched to this facility.
func (f *Facility[T]) Weight() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.weight
}

// Cost returns the sum over dispatched points of weight(p)*distance(p,center).
func (f *Facility[T]) Cost() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cost
}

// Insert atomically adds weight and weight*dist to the facility's counters.
// Both fields must move together (spec §5): a reader must never observe a
// weight update without its matching cost update.
func (f *Facility[T]) Insert(weight float64, dist float32) {
	f.mu.Lock()
	f.weight += weight
	f.cost += float64(dist) * weight
	f.mu.Unlock()
}

// Reset zeroes weight and cost, used before a fresh Dispatch pass (spec
// §4.1 precondition).
func (f *Facility[T]) Reset() {
	f.mu.Lock()
	f.weight = 0
	f.cost = 0
	f.mu.Unlock()
}

// restoreState sets weight and cost directly, bypassing Insert's
// weight*dist accumulation. Used only by RegistryFromJSON to reconstruct a
// deserialized facility's counters exactly, without reconstructing a
// synthetic per-point distance (spec §6 round-trip requirement).
func (f *Facility[T]) restoreState(weight, cost float64) {
	f.mu.Lock()
	f.weight = weight
	f.cost = cost
	f.mu.Unlock()
}

// LogSummary emits the facility's rank/weight/cost/cost-per-weight line,
// mirroring the original crate's Facility::log.
func (f *Facility[T]) LogSummary() {
	w, c := f.Weight(), f.Cost()
	ratio := 0.0
	if w > 0 {
		ratio = c / w
	}
	logrus.Infof("facility data_id=%d weight=%.4e cost=%.3e cost/weight=%.3e", f.dataID, w, c, ratio)
}
