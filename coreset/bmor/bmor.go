// Package bmor implements single-pass streaming facility location
// (Braverman, Meyerson, Ostrovski, Roytman, ACM-SIAM 2011) with bounded
// memory and phase restarts, per spec §4.3.
package bmor

import (
	"math"
	"math/bits"

	"github.com/sirupsen/logrus"

	"github.com/streamcoreset/coreset/coreset"
)

// State is BMOR's working state for one phase sequence: the registry under
// construction, the current cost scale L, the facility-count/cost budgets,
// and the running aggregates spec §3 describes.
type State[T coreset.Numeric] struct {
	k, n        int
	onePlusLogN int

	phase          int
	l              float64
	phaseCostUpper float64
	facilityBound  int

	registry *coreset.FacilityRegistry[T]

	absWeight float64
	totalCost float64
	nInserted int

	rng      *coreset.PartitionedRNG
	distance coreset.Distance[T]
}

func newState[T coreset.Numeric](k, n, phase, allocSize int, upperCost float64, facilityBound int, distance coreset.Distance[T], rng *coreset.PartitionedRNG) *State[T] {
	return &State[T]{
		k:              k,
		n:              n,
		onePlusLogN:    (1 + ilog2(n)) * k,
		phase:          phase,
		l:              1.0,
		phaseCostUpper: upperCost,
		facilityBound:  facilityBound,
		registry:       coreset.NewFacilityRegistry[T](facilityBound, distance),
		rng:            rng,
		distance:       distance,
	}
}

// Facilities returns the registry under construction.
func (s *State[T]) Facilities() *coreset.FacilityRegistry[T] { return s.registry }

// Phase returns the current phase index.
func (s *State[T]) Phase() int { return s.phase }

// L returns the current cost scale.
func (s *State[T]) L() float64 { return s.l }

// PhaseCostBound returns the current phase's cost ceiling.
func (s *State[T]) PhaseCostBound() float64 { return s.phaseCostUpper }

// Weight returns the sum of absolute values of inserted weights.
func (s *State[T]) Weight() float64 { return s.absWeight }

// Cost returns the running total cost.
func (s *State[T]) Cost() float64 { return s.totalCost }

// NInserted returns the number of points processed so far (this phase
// sequence, across restarts).
func (s *State[T]) NInserted() int { return s.nInserted }

func (s *State[T]) reinit(l, phaseCostUpper float64) {
	s.phase++
	s.phaseCostUpper = phaseCostUpper
	s.l = l
	s.registry.Clear()
	s.absWeight = 0
	s.totalCost = 0
}

// LogSummary emits the same phase/facility-count/weight/cost diagnostic
// line as the original crate's BmorState::log.
func (s *State[T]) LogSummary() {
	logrus.Infof("bmor phase=%d nb_facilities=%d weight=%.3e cost=%.3e facility_bound=%d phase_cost_upper=%.3e n_inserted=%d",
		s.phase, s.registry.Len(), s.absWeight, s.totalCost, s.facilityBound, s.phaseCostUpper, s.nInserted)
}

// update finds the nearest facility to point, decides (by a uniform draw
// weighted by onePlusLogN/L) whether to open a new facility or attribute
// the point to the nearest one, and reports whether the phase's cost and
// facility-count budgets are still respected (spec §4.3 "Per-point
// update").
func (s *State[T]) update(id uint64, point []T, weight float64) (bool, error) {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return false, coreset.ErrKind(coreset.NonFiniteWeight)
	}
	rank, dist, err := s.registry.Nearest(point)
	if err != nil {
		return false, err
	}
	if math.IsNaN(float64(dist)) || math.IsInf(float64(dist), 0) {
		return false, coreset.ErrKind(coreset.NonFiniteDistance)
	}

	u := s.rng.ForSubsystem(coreset.SubsystemBmor).Float64()
	threshold := weight * float64(dist) * float64(s.onePlusLogN) / s.l
	if u < threshold {
		f := coreset.NewFacility[T](id, point)
		f.Insert(weight, 0)
		s.registry.Insert(f)
	} else {
		facility := s.registry.Get(rank)
		facility.Insert(weight, dist)
		s.totalCost += math.Abs(weight) * float64(dist)
	}
	s.absWeight += math.Abs(weight)
	s.nInserted++

	if s.totalCost > s.phaseCostUpper || s.registry.Len() > s.facilityBound {
		s.LogSummary()
		return false, nil
	}
	return true, nil
}

// Engine is the BMOR constructor surface: fixed k, expected cardinality n,
// phase growth factor beta, and slackness gamma, over one Distance.
type Engine[T coreset.Numeric] struct {
	k, n        int
	beta, gamma float64
	distance    coreset.Distance[T]
	seed        coreset.Seed
}

// New validates the spec §7 ParameterError conditions (k==0, n==0, beta<1,
// gamma<1) and constructs an Engine.
func New[T coreset.Numeric](k, n int, beta, gamma float64, distance coreset.Distance[T]) (*Engine[T], error) {
	cfg := coreset.BmorConfig{K: k, N: n, Beta: beta, Gamma: gamma}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine[T]{k: k, n: n, beta: beta, gamma: gamma, distance: distance, seed: coreset.DefaultSeed}, nil
}

// WithSeed overrides the deterministic RNG seed (default coreset.DefaultSeed).
func (e *Engine[T]) WithSeed(seed coreset.Seed) *Engine[T] {
	e.seed = seed
	return e
}

func (e *Engine[T]) newInitialState() *State[T] {
	facilityBound := int(e.gamma * (1 + float64(ilog2(e.n))) * float64(e.k))
	upperCost := e.gamma
	rng := coreset.NewPartitionedRNG(e.seed)
	return newState[T](e.k, e.n, 0, facilityBound, upperCost, facilityBound, e.distance, rng)
}

type weightedItem[T coreset.Numeric] struct {
	weight float64
	point  []T
	id     uint64
}

// ProcessData runs BMOR over an unweighted batch (every point gets weight
//1), returning the resulting State. Per spec §7, an empty batch is not an
// error: it returns a State with an empty registry.
func (e *Engine[T]) ProcessData(points [][]T, ids []uint64) (*State[T], error) {
	items := make([]weightedItem[T], len(points))
	for i := range points {
		items[i] = weightedItem[T]{weight: 1, point: points[i], id: ids[i]}
	}
	state := e.newInitialState()
	if err := e.processWeightedBlock(state, items); err != nil {
		return nil, err
	}
	return state, nil
}

// ProcessWeightedStream pulls batches from producer and processes each
// through the same update loop, preserving the control-thread RNG sequence
// and input order across batch boundaries (spec §6).
func (e *Engine[T]) ProcessWeightedStream(producer coreset.Producer[T]) (*State[T], error) {
	state := e.newInitialState()
	for {
		batch, ok, err := producer.NextBatch()
		if err != nil {
			return nil, coreset.ErrKind(coreset.ProducerFailure)
		}
		if !ok {
			break
		}
		items := make([]weightedItem[T], len(batch.Points))
		for i := range batch.Points {
			w := 1.0
			if batch.Weights != nil {
				w = batch.Weights[i]
			}
			items[i] = weightedItem[T]{weight: w, point: batch.Points[i], id: batch.IDs[i]}
		}
		if err := e.processWeightedBlock(state, items); err != nil {
			return nil, err
		}
	}
	return state, nil
}

// processWeightedBlock is BMOR's per-point update loop. A point update that
// violates the phase's budget triggers a phase restart: the current
// registry is snapshotted as weighted points, the state is reinitialized at
// scale beta*L with cost bound beta*phaseCostUpper, and the snapshot is
// reprocessed (recursively) before the outer stream resumes — the phase-p
// snapshot is always processed at scale beta^p*L, never at the outer scale
// (spec §9, "Phase restart as recursion").
func (e *Engine[T]) processWeightedBlock(state *State[T], data []weightedItem[T]) error {
	for _, d := range data {
		ok, err := e.addData(state, d.id, d.point, d.weight)
		if err != nil {
			return err
		}
		if ok {
			continue
		}

		logrus.Debugf("bmor: recycling %d facilities into phase %d", state.registry.Len(), state.phase+1)
		snapshot := state.registry.IntoWeightedData()
		state.reinit(e.beta*state.l, e.beta*state.phaseCostUpper)

		recycled := make([]weightedItem[T], len(snapshot))
		for i, wp := range snapshot {
			recycled[i] = weightedItem[T]{weight: wp.Weight, point: wp.Point, id: wp.DataID}
		}
		if err := e.processWeightedBlock(state, recycled); err != nil {
			return err
		}
	}
	return nil
}

// addData opens the first facility for free (an empty registry always
// accepts the next point as a facility), otherwise delegates to
// State.update.
func (e *Engine[T]) addData(state *State[T], id uint64, point []T, weight float64) (bool, error) {
	if state.registry.Len() == 0 {
		f := coreset.NewFacility[T](id, point)
		f.Insert(weight, 0)
		state.registry.Insert(f)
		state.nInserted++
		state.absWeight += math.Abs(weight)
		return true, nil
	}
	return state.update(id, point, weight)
}

// EndData returns the final registry. If contract is true, an additional
// consolidation pass re-runs BMOR on the registry's own facilities
// (treated as weighted points) at the same parameters, in a single pass
// with no further phase restarts (spec §9, an explicit Open Question this
// spec resolves in favor of a single pass).
func (e *Engine[T]) EndData(state *State[T], contract bool) (*coreset.FacilityRegistry[T], error) {
	if !contract {
		return state.registry, nil
	}
	data := state.registry.IntoWeightedData()
	if len(data) == 0 {
		return state.registry, nil
	}
	contracted := e.newInitialState()
	for _, wp := range data {
		if _, err := e.addData(contracted, wp.DataID, wp.Point, wp.Weight); err != nil {
			return nil, err
		}
		// Budget violations during contraction are logged, not restarted:
		// spec §9 prescribes a single consolidation pass.
	}
	return contracted.registry, nil
}

func ilog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}
