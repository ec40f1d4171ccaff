package coreset

import "testing"

func TestRegistryJSONRoundTrip(t *testing.T) {
	r := NewFacilityRegistry[float64](2, L2[float64]{})
	r.Insert(NewFacility[float64](1, []float64{0, 0}))
	r.Insert(NewFacility[float64](2, []float64{10, 0}))

	points := [][]float64{{0.1, 0}, {0, 0.2}, {9.9, 0}, {10, 0.1}}
	if _, err := r.Dispatch(points, nil); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	data, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	restored, err := RegistryFromJSON[float64](data)
	if err != nil {
		t.Fatalf("RegistryFromJSON: %v", err)
	}

	if restored.Len() != r.Len() {
		t.Fatalf("restored.Len() = %d, want %d", restored.Len(), r.Len())
	}
	for i := 0; i < r.Len(); i++ {
		orig := r.Get(i)
		got := restored.Get(i)
		if got.DataID() != orig.DataID() {
			t.Errorf("facility %d: DataID = %d, want %d", i, got.DataID(), orig.DataID())
		}
		if got.Weight() != orig.Weight() {
			t.Errorf("facility %d: Weight = %v, want %v", i, got.Weight(), orig.Weight())
		}
		if got.Cost() != orig.Cost() {
			t.Errorf("facility %d: Cost = %v, want %v", i, got.Cost(), orig.Cost())
		}
	}
}

func TestRegistryJSONRoundTripThenDispatchMatches(t *testing.T) {
	r := NewFacilityRegistry[float64](1, L1[float64]{})
	r.Insert(NewFacility[float64](1, []float64{0}))

	data, err := r.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	restored, err := RegistryFromJSON[float64](data)
	if err != nil {
		t.Fatalf("RegistryFromJSON: %v", err)
	}

	points := [][]float64{{1}, {2}, {3}}

	restored.Get(0).Reset()
	wantCost, err := r.Dispatch(points, nil)
	if err != nil {
		t.Fatalf("Dispatch on original: %v", err)
	}
	gotCost, err := restored.Dispatch(points, nil)
	if err != nil {
		t.Fatalf("Dispatch on restored: %v", err)
	}
	if gotCost != wantCost {
		t.Errorf("restored dispatch cost = %v, want %v", gotCost, wantCost)
	}
}

func TestMarshalJSONRejectsUnsupportedDistance(t *testing.T) {
	r := NewFacilityRegistry[float64](1, customDistance{})
	r.Insert(NewFacility[float64](1, []float64{0}))
	if _, err := r.MarshalJSON(); err == nil {
		t.Fatal("expected error for unsupported distance type")
	}
}

type customDistance struct{}

func (customDistance) Eval(a, b []float64) float32 { return 0 }

func TestRegistryFromJSONRejectsUnknownKind(t *testing.T) {
	_, err := RegistryFromJSON[float64]([]byte(`{"distance_kind":"bogus","facilities":[]}`))
	if err == nil {
		t.Fatal("expected error for unknown distance_kind")
	}
}
