package coreset

import (
	"fmt"
	"math"
	"sync"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// quantileRelativeAccuracy matches the resolution the original crate asked
// of its CKMS sketch (new(0.01)); DDSketch's relative-accuracy parameter is
// the nearest equivalent knob in the chosen library.
const quantileRelativeAccuracy = 0.01

// FacilityRegistry is an ordered, thread-safe collection of facilities
// sharing one Distance. Facility rank (its index in the sequence) is stable
// for the lifetime of the phase; the vector itself is append-only during a
// dispatch — insertions and Clear only happen on the control goroutine
// between dispatch calls (spec §5).
type FacilityRegistry[T Numeric] struct {
	distance Distance[T]

	mu         sync.RWMutex
	facilities []*Facility[T]
	seen       map[uint64]bool
}

// NewFacilityRegistry creates an empty registry over the given distance,
// pre-sizing its backing slice to capacity.
func NewFacilityRegistry[T Numeric](capacity int, distance Distance[T]) *FacilityRegistry[T] {
	return &FacilityRegistry[T]{
		distance:   distance,
		facilities: make([]*Facility[T], 0, capacity),
		seen:       make(map[uint64]bool, capacity),
	}
}

// Insert appends a facility. Duplicate data ids are a caller invariant
// violation (spec §3); Insert logs and skips rather than silently
// corrupting rank-stability guarantees.
func (r *FacilityRegistry[T]) Insert(f *Facility[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[f.DataID()] {
		logrus.Warnf("facility registry: duplicate data_id %d, ignoring insert", f.DataID())
		return
	}
	r.seen[f.DataID()] = true
	r.facilities = append(r.facilities, f)
}

// Len returns the number of facilities.
func (r *FacilityRegistry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.facilities)
}

// Get returns the facility at rank, or nil if out of range.
func (r *FacilityRegistry[T]) Get(rank int) *Facility[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rank < 0 || rank >= len(r.facilities) {
		return nil
	}
	return r.facilities[rank]
}

// CloneFacility returns a snapshot (weight, position, data id) of the
// facility at rank, or ok=false if out of range.
func (r *FacilityRegistry[T]) CloneFacility(rank int) (weight float64, position []T, dataID uint64, ok bool) {
	f := r.Get(rank)
	if f == nil {
		return 0, nil, 0, false
	}
	center := make([]T, len(f.Center()))
	copy(center, f.Center())
	return f.Weight(), center, f.DataID(), true
}

// Clear removes all facilities, used for BMOR phase restart.
func (r *FacilityRegistry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facilities = r.facilities[:0]
	r.seen = make(map[uint64]bool)
}

// Nearest returns the rank and distance of the facility closest to point.
// Uses strict less-than against the running minimum, so the first rank
// achieving the minimum wins ties — this keeps rank-dependent behavior
// reproducible given a fixed registry (spec §4.1).
func (r *FacilityRegistry[T]) Nearest(point []T) (rank int, dist float32, err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.facilities) == 0 {
		return 0, 0, newError(EmptyRegistry, "Nearest called on empty registry", nil)
	}
	bestRank := 0
	bestDist := r.distance.Eval(point, r.facilities[0].Center())
	for i := 1; i < len(r.facilities); i++ {
		d := r.distance.Eval(point, r.facilities[i].Center())
		if d < bestDist {
			bestDist = d
			bestRank = i
		}
	}
	return bestRank, bestDist, nil
}

// MatchWithin reports whether any facility lies within dmax of point,
// short-circuiting on the first match.
func (r *FacilityRegistry[T]) MatchWithin(point []T, dmax float32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.facilities {
		if r.distance.Eval(point, f.Center()) <= dmax {
			return true
		}
	}
	return false
}

// dispatchWorkers bounds the goroutine fan-out for Dispatch/DispatchLabels,
// matching the "work-stealing pool" the spec calls for without depending on
// a dedicated pool package the corpus doesn't otherwise pull in.
const dispatchWorkers = 32

// Dispatch finds each point's nearest facility in parallel and atomically
// accumulates weight and weight*distance into that facility's counters.
// Precondition: every facility's weight and cost must be zero before
// calling (callers restarting a phase call Clear or Reset facilities
// first). Returns the sum of per-facility costs, i.e. the global dispatch
// cost.
//
// weights may be nil, meaning every point has weight 1.
func (r *FacilityRegistry[T]) Dispatch(points [][]T, weights []float64) (float64, error) {
	if r.Len() == 0 {
		return 0, newError(EmptyRegistry, "Dispatch called on empty registry", nil)
	}
	if weights != nil && len(weights) != len(points) {
		return 0, newError(NonFiniteWeight, "weights length does not match points length", nil)
	}

	g := new(errgroup.Group)
	g.SetLimit(dispatchWorkers)
	for i := range points {
		i := i
		g.Go(func() error {
			w := 1.0
			if weights != nil {
				w = weights[i]
			}
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return newError(NonFiniteWeight, "point weight is not finite", nil)
			}
			rank, dist, err := r.Nearest(points[i])
			if err != nil {
				return err
			}
			if math.IsNaN(float64(dist)) || math.IsInf(float64(dist), 0) {
				return newError(NonFiniteDistance, "nearest-facility distance is not finite", nil)
			}
			r.Get(rank).Insert(w, dist)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total float64
	r.mu.RLock()
	for _, f := range r.facilities {
		total += f.Cost()
	}
	r.mu.RUnlock()
	return total, nil
}

// DispatchLabels runs Dispatch's nearest-facility assignment while also
// accumulating a per-facility label histogram, then returns each facility's
// Shannon entropy (natural log) of its histogram alongside the histograms
// themselves. Entropy treats x=0 as 0*ln(0)=0 (spec §9, "Numeric
// stability").
func (r *FacilityRegistry[T]) DispatchLabels(points [][]T, labels []int, weights []float64) (entropies []float64, histograms []map[int]float64, err error) {
	n := r.Len()
	if n == 0 {
		return nil, nil, newError(EmptyRegistry, "DispatchLabels called on empty registry", nil)
	}
	if len(labels) != len(points) {
		return nil, nil, newError(NonFiniteWeight, "labels length does not match points length", nil)
	}

	hists := make([]map[int]float64, n)
	locks := make([]sync.Mutex, n)
	for i := range hists {
		hists[i] = make(map[int]float64)
	}

	g := new(errgroup.Group)
	g.SetLimit(dispatchWorkers)
	for i := range points {
		i := i
		g.Go(func() error {
			w := 1.0
			if weights != nil {
				w = weights[i]
			}
			rank, dist, err := r.Nearest(points[i])
			if err != nil {
				return err
			}
			r.Get(rank).Insert(w, dist)
			locks[rank].Lock()
			hists[rank][labels[i]] += w
			locks[rank].Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	entropies = make([]float64, n)
	for rank, h := range hists {
		entropies[rank] = labelEntropy(h)
	}
	return entropies, hists, nil
}

// labelEntropy computes H = ln(mass) - (sum c_l*ln(c_l))/mass via
// gonum/stat.Entropy over the normalized histogram, which implements
// exactly this reduction while handling c_l=0 as a zero contribution.
func labelEntropy(counts map[int]float64) float64 {
	var mass float64
	for _, c := range counts {
		mass += c
	}
	if mass <= 0 {
		return 0
	}
	probs := make([]float64, 0, len(counts))
	for _, c := range counts {
		probs = append(probs, c/mass)
	}
	return stat.Entropy(probs)
}

// WeightedPoint is a (weight, point) pair produced by IntoWeightedData.
type WeightedPoint[T Numeric] struct {
	Weight float64
	Point  []T
	DataID uint64
}

// IntoWeightedData snapshots the registry as a slice of weighted points for
// downstream use (e.g. seeding the next BMOR phase, or final coreset
// output).
func (r *FacilityRegistry[T]) IntoWeightedData() []WeightedPoint[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]WeightedPoint[T], len(r.facilities))
	for i, f := range r.facilities {
		center := make([]T, len(f.Center()))
		copy(center, f.Center())
		out[i] = WeightedPoint[T]{Weight: f.Weight(), Point: center, DataID: f.DataID()}
	}
	return out
}

// CrossDistanceQuantiles holds the pairwise facility-distance quantiles
// computed by CrossDistances.
type CrossDistanceQuantiles struct {
	Q01, Q05, Q10, Q50, Q75 float64
}

// CrossDistances computes pairwise distances between all facilities and
// returns their quantiles at 0.01, 0.05, 0.10, 0.50, 0.75 for diagnostics.
func (r *FacilityRegistry[T]) CrossDistances() (CrossDistanceQuantiles, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sketch, err := ddsketch.NewDefaultDDSketch(quantileRelativeAccuracy)
	if err != nil {
		return CrossDistanceQuantiles{}, fmt.Errorf("building cross-distance sketch: %w", err)
	}
	for i := 0; i < len(r.facilities); i++ {
		for j := i + 1; j < len(r.facilities); j++ {
			d := r.distance.Eval(r.facilities[i].Center(), r.facilities[j].Center())
			if err := sketch.Add(float64(d)); err != nil {
				return CrossDistanceQuantiles{}, fmt.Errorf("inserting cross-distance sample: %w", err)
			}
		}
	}

	q := func(p float64) float64 {
		v, err := sketch.GetValueAtQuantile(p)
		if err != nil {
			return 0
		}
		return v
	}
	return CrossDistanceQuantiles{
		Q01: q(0.01),
		Q05: q(0.05),
		Q10: q(0.10),
		Q50: q(0.50),
		Q75: q(0.75),
	}, nil
}
