// Package mp implements the Mettu-Plaxton batch facility-location
// algorithm: offline, randomized-in-spirit (via the input order used to
// break ties), opening facilities based on local density integrals and a
// separation parameter alpha, per spec §4.2.
package mp

import (
	"sort"

	"github.com/streamcoreset/coreset/coreset"
)

// DefaultAlpha is the separation factor used when the caller does not
// specify one, matching the original crate's example usage.
const DefaultAlpha = 0.75

// maxBisectionIters bounds the radius-search bisection.
const maxBisectionIters = 40

// Engine is the Mettu-Plaxton constructor surface: a fixed point set and
// distance. Unlike BMOR, MP is a batch (two-pass) algorithm — every point
// must be resident in memory at construction (spec §1 Non-goal (c)).
type Engine[T coreset.Numeric] struct {
	points   [][]T
	ids      []uint64
	distance coreset.Distance[T]
}

// New constructs an Engine over points/ids sharing distance. ids must be
// the same length as points; callers may use index order as ids when no
// stable id is available.
func New[T coreset.Numeric](points [][]T, ids []uint64, distance coreset.Distance[T]) *Engine[T] {
	return &Engine[T]{points: points, ids: ids, distance: distance}
}

type radiusEntry struct {
	idx    int
	radius float32
}

// ConstructCenters runs the two-pass MP algorithm: estimate each point's
// ball radius, sort ascending, and open a facility at point i unless an
// already-opened facility lies within alpha*r_i of it. alpha must be in
// (0, 1]; a non-positive or >1 value is a ParameterError.
func (e *Engine[T]) ConstructCenters(alpha float64) (*coreset.FacilityRegistry[T], error) {
	cfg := coreset.MPConfig{Alpha: alpha}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := len(e.points)
	registry := coreset.NewFacilityRegistry[T](n, e.distance)
	if n == 0 {
		return registry, nil
	}

	radii := make([]radiusEntry, n)
	for i := range e.points {
		radii[i] = radiusEntry{idx: i, radius: ballRadius(e.points[i], e.points, e.distance)}
	}
	sort.SliceStable(radii, func(i, j int) bool { return radii[i].radius < radii[j].radius })

	for _, entry := range radii {
		point := e.points[entry.idx]
		dmax := float32(alpha) * entry.radius
		if registry.Len() > 0 && registry.MatchWithin(point, dmax) {
			continue
		}
		f := coreset.NewFacility[T](e.ids[entry.idx], point)
		registry.Insert(f)
	}
	return registry, nil
}

// ComputeDistances runs a separate dispatch pass over the engine's original
// points against the built registry, assigning facility weights and costs,
// and returns the resulting global dispatch cost.
func (e *Engine[T]) ComputeDistances(registry *coreset.FacilityRegistry[T]) (float64, error) {
	if len(e.points) == 0 {
		return 0, nil
	}
	return registry.Dispatch(e.points, nil)
}

// ballRadius estimates r_i such that sum over j with d(i,j) <= r_i of
// (r_i - d(i,j)) equals 1, via exponential search for an upper bracket
// followed by bisection (spec §4.2).
func ballRadius[T coreset.Numeric](point []T, data [][]T, distance coreset.Distance[T]) float32 {
	dists := make([]float32, len(data))
	var maxDist float32
	for i, p := range data {
		d := distance.Eval(point, p)
		dists[i] = d
		if d > maxDist {
			maxDist = d
		}
	}
	if maxDist == 0 {
		// All points coincident with this one: any positive radius
		// accumulates mass len(data)*r, so the target is reached
		// immediately; report a zero radius, the degenerate case the
		// spec's "all radii collapse to zero" boundary describes.
		return 0
	}

	mass := func(r float32) float32 {
		var sum float32
		for _, d := range dists {
			if d <= r {
				sum += r - d
			}
		}
		return sum
	}

	var lo float32
	hi := maxDist / 1024
	if hi <= 0 {
		hi = maxDist
	}
	for mass(hi) < 1 {
		lo = hi
		hi *= 2
		if hi > maxDist*4 {
			// Even the full dataset's mass at this radius falls short
			// (e.g. very few points); stop growing and bisect within
			// what we have.
			break
		}
	}

	for i := 0; i < maxBisectionIters; i++ {
		mid := (lo + hi) / 2
		if mass(mid) < 1 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}
