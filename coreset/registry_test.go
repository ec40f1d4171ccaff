package coreset

import (
	"math"
	"testing"
)

func TestRegistryNearestTieBreaksFirstEncountered(t *testing.T) {
	r := NewFacilityRegistry[float64](2, L2[float64]{})
	r.Insert(NewFacility[float64](1, []float64{0, 0}))
	r.Insert(NewFacility[float64](2, []float64{2, 0}))

	rank, dist, err := r.Nearest([]float64{1, 0})
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if rank != 0 {
		t.Errorf("rank = %d, want 0 (first facility wins equidistant tie)", rank)
	}
	if dist != 1 {
		t.Errorf("dist = %v, want 1", dist)
	}
}

func TestRegistryNearestEmptyReturnsError(t *testing.T) {
	r := NewFacilityRegistry[float64](0, L2[float64]{})
	_, _, err := r.Nearest([]float64{0})
	if err == nil {
		t.Fatal("expected error on empty registry")
	}
	var coreErr *Error
	if ce, ok := err.(*Error); ok {
		coreErr = ce
	}
	if coreErr == nil || coreErr.Kind != EmptyRegistry {
		t.Errorf("expected EmptyRegistry error, got %v", err)
	}
}

func TestRegistryDispatchConservesWeightAndCost(t *testing.T) {
	r := NewFacilityRegistry[float64](2, L1[float64]{})
	r.Insert(NewFacility[float64](1, []float64{0}))
	r.Insert(NewFacility[float64](2, []float64{10}))

	points := make([][]float64, 0, 200)
	var wantWeight float64
	for i := 0; i < 100; i++ {
		points = append(points, []float64{0.1 * float64(i % 3)})
		wantWeight++
	}
	for i := 0; i < 100; i++ {
		points = append(points, []float64{10 - 0.1*float64(i%3)})
		wantWeight++
	}

	total, err := r.Dispatch(points, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	var sumWeight, sumCost float64
	for i := 0; i < r.Len(); i++ {
		sumWeight += r.Get(i).Weight()
		sumCost += r.Get(i).Cost()
	}
	if math.Abs(sumWeight-wantWeight) > 1e-9*wantWeight {
		t.Errorf("sum facility weight = %v, want %v", sumWeight, wantWeight)
	}
	if math.Abs(sumCost-total) > 1e-9 {
		t.Errorf("sum facility cost = %v, want total = %v", sumCost, total)
	}
}

func TestRegistryDispatchLabelsEntropyZeroForSingleLabel(t *testing.T) {
	r := NewFacilityRegistry[float64](1, L2[float64]{})
	r.Insert(NewFacility[float64](1, []float64{0, 0}))

	points := [][]float64{{0, 0}, {0.1, 0}, {0, 0.1}}
	labels := []int{7, 7, 7}

	entropies, hists, err := r.DispatchLabels(points, labels, nil)
	if err != nil {
		t.Fatalf("DispatchLabels: %v", err)
	}
	if len(entropies) != 1 || entropies[0] != 0 {
		t.Errorf("entropy = %v, want [0]", entropies)
	}
	if hists[0][7] != 3 {
		t.Errorf("histogram[7] = %v, want 3", hists[0][7])
	}
}

func TestRegistryClearResetsState(t *testing.T) {
	r := NewFacilityRegistry[float64](1, L2[float64]{})
	r.Insert(NewFacility[float64](1, []float64{0}))
	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("Len() = %d after Clear, want 0", r.Len())
	}
	// Re-inserting the same data id after Clear must succeed.
	r.Insert(NewFacility[float64](1, []float64{1}))
	if r.Len() != 1 {
		t.Fatalf("Len() = %d after re-insert, want 1", r.Len())
	}
}

func TestRegistryDuplicateDataIDIgnored(t *testing.T) {
	r := NewFacilityRegistry[float64](2, L2[float64]{})
	r.Insert(NewFacility[float64](1, []float64{0}))
	r.Insert(NewFacility[float64](1, []float64{5}))
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (duplicate insert must be ignored)", r.Len())
	}
}

func TestRegistryMatchWithin(t *testing.T) {
	r := NewFacilityRegistry[float64](1, L2[float64]{})
	r.Insert(NewFacility[float64](1, []float64{0, 0}))
	if !r.MatchWithin([]float64{1, 0}, 2) {
		t.Error("expected match within radius 2")
	}
	if r.MatchWithin([]float64{10, 0}, 2) {
		t.Error("expected no match within radius 2")
	}
}

func TestCrossDistancesQuantilesMonotonic(t *testing.T) {
	r := NewFacilityRegistry[float64](4, L2[float64]{})
	for i, c := range [][]float64{{0, 0}, {1, 0}, {5, 0}, {20, 0}} {
		r.Insert(NewFacility[float64](uint64(i), c))
	}
	q, err := r.CrossDistances()
	if err != nil {
		t.Fatalf("CrossDistances: %v", err)
	}
	if !(q.Q01 <= q.Q05 && q.Q05 <= q.Q10 && q.Q10 <= q.Q50 && q.Q50 <= q.Q75) {
		t.Errorf("quantiles not monotonic: %+v", q)
	}
}
