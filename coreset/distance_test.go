package coreset

import (
	"math"
	"testing"
)

func TestL1Distance(t *testing.T) {
	d := L1[float64]{}
	got := d.Eval([]float64{0, 0, 0}, []float64{1, -2, 3})
	want := float32(6)
	if got != want {
		t.Errorf("L1.Eval = %v, want %v", got, want)
	}
}

func TestL2Distance(t *testing.T) {
	d := L2[float64]{}
	got := d.Eval([]float64{0, 0}, []float64{3, 4})
	want := float32(5)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("L2.Eval = %v, want %v", got, want)
	}
}

func TestDistanceIdentityOfIndiscernibles(t *testing.T) {
	p := []float64{1, 2, 3}
	if d := (L1[float64]{}).Eval(p, p); d != 0 {
		t.Errorf("L1 self-distance = %v, want 0", d)
	}
	if d := (L2[float64]{}).Eval(p, p); d != 0 {
		t.Errorf("L2 self-distance = %v, want 0", d)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := []float64{1, 5, -2}
	b := []float64{4, -1, 0}
	if (L1[float64]{}).Eval(a, b) != (L1[float64]{}).Eval(b, a) {
		t.Error("L1 is not symmetric")
	}
	if (L2[float64]{}).Eval(a, b) != (L2[float64]{}).Eval(b, a) {
		t.Error("L2 is not symmetric")
	}
}
