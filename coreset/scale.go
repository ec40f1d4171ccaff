package coreset

import (
	"fmt"
	"math"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/sirupsen/logrus"
)

// ScaleSample wraps a quantile sketch of distances, used to seed algorithm
// parameters (e.g. a sensible MP alpha, or an expected-scale normalizer).
type ScaleSample struct {
	sketch *ddsketch.DDSketch
}

func newScaleSample() (*ScaleSample, error) {
	s, err := ddsketch.NewDefaultDDSketch(quantileRelativeAccuracy)
	if err != nil {
		return nil, fmt.Errorf("building scale sketch: %w", err)
	}
	return &ScaleSample{sketch: s}, nil
}

// Quantile returns the estimated value at quantile p in [0,1].
func (s *ScaleSample) Quantile(p float64) float64 {
	v, err := s.sketch.GetValueAtQuantile(p)
	if err != nil {
		return 0
	}
	return v
}

// LogQuantiles prints the same resolution the original crate's
// scale_estimation printed: 0.0001, 0.001, 0.01, 0.5, 0.99, 0.999.
func (s *ScaleSample) LogQuantiles(label string) {
	logrus.Infof("%s distance quantiles: 0.0001=%.2e 0.001=%.2e 0.01=%.2e 0.5=%.2e 0.99=%.2e 0.999=%.2e",
		label, s.Quantile(0.0001), s.Quantile(0.001), s.Quantile(0.01), s.Quantile(0.5), s.Quantile(0.99), s.Quantile(0.999))
}

// PairwiseSample draws nSample random pairs (i,j), i != j, from data and
// returns the quantile sketch of their distances (spec §4.5).
func PairwiseSample[T Numeric](rng *PartitionedRNG, nSample int, data [][]T, distance Distance[T]) (*ScaleSample, error) {
	n := len(data)
	if n < 2 {
		return newScaleSample()
	}
	r := rng.ForSubsystem(SubsystemScale)
	if nSample > n*n {
		nSample = n * n
	}
	sample, err := newScaleSample()
	if err != nil {
		return nil, err
	}
	for k := 0; k < nSample; k++ {
		i, j := r.Intn(n), r.Intn(n)
		for j == i {
			j = r.Intn(n)
		}
		d := distance.Eval(data[i], data[j])
		if err := sample.sketch.Add(float64(d)); err != nil {
			return nil, fmt.Errorf("inserting pairwise sample: %w", err)
		}
	}
	return sample, nil
}

// NeighborhoodRadii samples ceil(sqrt(n)) anchors; for each, it computes the
// first and second nearest-neighbor distances among another ceil(sqrt(n))
// random points, and returns a sketch of the second-nearest distances
// (robust to coincident points), per spec §4.5.
func NeighborhoodRadii[T Numeric](rng *PartitionedRNG, data [][]T, distance Distance[T]) (*ScaleSample, error) {
	n := len(data)
	if n < 3 {
		return newScaleSample()
	}
	nSample := int(math.Ceil(math.Sqrt(float64(n))))
	if nSample < 1 {
		nSample = 1
	}
	r := rng.ForSubsystem(SubsystemScale)

	secondSketch, err := newScaleSample()
	if err != nil {
		return nil, err
	}
	for a := 0; a < nSample; a++ {
		i := r.Intn(n)
		dists := make([]float32, 0, nSample)
		for s := 0; s < nSample; s++ {
			j := i
			for j == i {
				j = r.Intn(n)
			}
			dists = append(dists, distance.Eval(data[i], data[j]))
		}
		first, second := smallestTwo(dists)
		_ = first
		if err := secondSketch.sketch.Add(float64(second)); err != nil {
			return nil, fmt.Errorf("inserting neighborhood-radii sample: %w", err)
		}
	}
	return secondSketch, nil
}

// smallestTwo returns the two smallest values in dists (second may equal
// first if len(dists) == 1, mirroring the original's handling of
// degenerate/coincident neighborhoods).
func smallestTwo(dists []float32) (first, second float32) {
	if len(dists) == 0 {
		return 0, 0
	}
	first, second = math.MaxFloat32, math.MaxFloat32
	for _, d := range dists {
		if d < first {
			second = first
			first = d
		} else if d < second {
			second = d
		}
	}
	if second == math.MaxFloat32 {
		second = first
	}
	return first, second
}
