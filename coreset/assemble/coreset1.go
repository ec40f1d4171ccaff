// Package assemble builds weighted coresets by composing a BMOR streaming
// pass with a second sampling pass (spec §4.4, "Coreset assembler").
package assemble

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/streamcoreset/coreset/coreset"
	"github.com/streamcoreset/coreset/coreset/bmor"
)

// sampleAlpha and sampleBeta are the fixed mixing constants from the
// sampling-probability formula q(p) = sampleAlpha*(w*d*)/Phi +
// sampleBeta*w/(|F|*weight(f*(p))). Per spec §4.4 their exact values are an
// implementation choice as long as the probabilities renormalize to the
// target sample size; 0.5/0.5 gives the cost term and the facility-balance
// term equal say in the unnormalized sum.
const (
	sampleAlpha = 0.5
	sampleBeta  = 0.5
)

// Entry is one (data id, weight) pair in an assembled CoreSet.
type Entry struct {
	DataID uint64
	Weight float64
}

// CoreSet is the assembled weighted sample: a mapping from data id to
// weight, plus the original coordinates for downstream lookup (spec §4.4
// "Output").
type CoreSet[T coreset.Numeric] struct {
	weights   map[uint64]float64
	positions map[uint64][]T
	nbPoints  int
}

// Len returns the coreset size: the number of distinct ids sampled.
func (c *CoreSet[T]) Len() int { return len(c.weights) }

// GetNbPoints returns the number of input points the coreset was assembled
// from (the full-data cardinality seen during pass 2), distinct from Len().
func (c *CoreSet[T]) GetNbPoints() int { return c.nbPoints }

// Iter returns the coreset's (data id, weight) pairs sorted by id, for
// deterministic iteration.
func (c *CoreSet[T]) Iter() []Entry {
	out := make([]Entry, 0, len(c.weights))
	for id, w := range c.weights {
		out = append(out, Entry{DataID: id, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DataID < out[j].DataID })
	return out
}

// Position returns the coordinates of a sampled data id, for downstream
// clustering that needs the original point, not just its weight.
func (c *CoreSet[T]) Position(id uint64) ([]T, bool) {
	p, ok := c.positions[id]
	return p, ok
}

// restartable is implemented by Producers that can be rewound for a second
// pass (coreset.SliceProducer, coreset.CSVProducer). The coreset assembler
// requires the same data_id->point mapping in pass 2 as in pass 1 (spec §9,
// "Sampling correctness"); a Producer that cannot satisfy this must be
// materialized by the caller first.
type restartable interface {
	Reset()
}

// Engine is the Coreset1 constructor surface: a BMOR engine configured with
// the same k, n, beta, gamma, distance used for pass 1. The target sample
// size for pass 2's renormalization is passed to MakeCoreset, not stored.
type Engine[T coreset.Numeric] struct {
	bmorEngine *bmor.Engine[T]
	distance   coreset.Distance[T]
	seed       coreset.Seed
}

// New constructs an Engine, propagating spec §7's ParameterError checks
// through the embedded BMOR engine constructor.
func New[T coreset.Numeric](k, n int, beta, gamma float64, distance coreset.Distance[T]) (*Engine[T], error) {
	bm, err := bmor.New[T](k, n, beta, gamma, distance)
	if err != nil {
		return nil, err
	}
	return &Engine[T]{bmorEngine: bm, distance: distance, seed: coreset.DefaultSeed}, nil
}

// WithSeed overrides the deterministic RNG seed used for pass-2 sampling.
func (e *Engine[T]) WithSeed(seed coreset.Seed) *Engine[T] {
	e.seed = seed
	e.bmorEngine = e.bmorEngine.WithSeed(seed)
	return e
}

type pass2Item[T coreset.Numeric] struct {
	id     uint64
	weight float64
	point  []T
	qRaw   float64
}

// MakeCoreset runs pass 1 (BMOR over producer) to obtain a FacilityRegistry
// F, then streams producer again in pass 2, computing each point's sampling
// probability q(p) = sampleAlpha*(w*d*)/Phi + sampleBeta*w/(|F|*weight(f*)),
// renormalizing so the probabilities sum to targetSize, and sampling each
// point with probability min(1,q), assigning coreset weight w/q. Coincident
// data ids sampled more than once have their weights summed (spec §4.4).
func (e *Engine[T]) MakeCoreset(producer coreset.Producer[T], targetSize int) (*CoreSet[T], error) {
	state, err := e.bmorEngine.ProcessWeightedStream(producer)
	if err != nil {
		return nil, err
	}
	registry, err := e.bmorEngine.EndData(state, false)
	if err != nil {
		return nil, err
	}

	numF := registry.Len()
	if numF == 0 {
		return &CoreSet[T]{weights: map[uint64]float64{}, positions: map[uint64][]T{}}, nil
	}

	var phi float64
	for i := 0; i < numF; i++ {
		phi += registry.Get(i).Cost()
	}
	if phi == 0 {
		// Zero-cost facilities (e.g. one facility, all identical
		// points): fall back to the facility-balance term alone so q
		// stays well defined.
		phi = 1
	}

	rw, ok := producer.(restartable)
	if !ok {
		return nil, coreset.ErrKind(coreset.ProducerFailure)
	}
	rw.Reset()

	var items []pass2Item[T]
	var qSum float64
	var nbPoints int
	for {
		batch, ok, err := producer.NextBatch()
		if err != nil {
			return nil, &coreset.Error{Kind: coreset.ProducerFailure, Message: "coreset pass 2", Err: err}
		}
		if !ok {
			break
		}
		for i, pt := range batch.Points {
			w := 1.0
			if batch.Weights != nil {
				w = batch.Weights[i]
			}
			rank, d, err := registry.Nearest(pt)
			if err != nil {
				return nil, err
			}
			fw := registry.Get(rank).Weight()
			q := sampleAlpha * (w * float64(d)) / phi
			if fw > 0 {
				q += sampleBeta * w / (float64(numF) * fw)
			}
			items = append(items, pass2Item[T]{id: batch.IDs[i], weight: w, point: pt, qRaw: q})
			qSum += q
			nbPoints++
		}
	}

	scale := 1.0
	if qSum > 0 {
		scale = float64(targetSize) / qSum
	}

	rng := coreset.NewPartitionedRNG(e.seed)
	weights := make(map[uint64]float64)
	positions := make(map[uint64][]T)
	for _, it := range items {
		q := it.qRaw * scale
		if q > 1 {
			q = 1
		}
		if q <= 0 {
			continue
		}
		u := rng.ForSubsystem(coreset.SubsystemCoreset).Float64()
		if u < q {
			weights[it.id] += it.weight / q
			positions[it.id] = it.point
		}
	}

	logrus.Infof("coreset assembled: %d points -> %d sampled (target %d), phi=%.3e", nbPoints, len(weights), targetSize, phi)
	return &CoreSet[T]{weights: weights, positions: positions, nbPoints: nbPoints}, nil
}
