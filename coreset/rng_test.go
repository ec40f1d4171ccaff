package coreset

import "testing"

func TestPartitionedRNGDeterministic(t *testing.T) {
	r1 := NewPartitionedRNG(NewSeed(42))
	r2 := NewPartitionedRNG(NewSeed(42))

	for i := 0; i < 5; i++ {
		a := r1.ForSubsystem(SubsystemBmor).Float64()
		b := r2.ForSubsystem(SubsystemBmor).Float64()
		if a != b {
			t.Fatalf("draw %d diverged: %v != %v", i, a, b)
		}
	}
}

func TestPartitionedRNGSubsystemIsolation(t *testing.T) {
	r := NewPartitionedRNG(NewSeed(42))
	bmorFirst := r.ForSubsystem(SubsystemBmor).Float64()
	_ = r.ForSubsystem(SubsystemScale).Float64()
	bmorSecond := r.ForSubsystem(SubsystemBmor).Float64()

	r2 := NewPartitionedRNG(NewSeed(42))
	want1 := r2.ForSubsystem(SubsystemBmor).Float64()
	want2 := r2.ForSubsystem(SubsystemBmor).Float64()

	if bmorFirst != want1 || bmorSecond != want2 {
		t.Fatalf("drawing from another subsystem perturbed bmor's sequence")
	}
}

func TestPartitionedRNGDifferentSeedsDiverge(t *testing.T) {
	a := NewPartitionedRNG(NewSeed(1)).ForSubsystem(SubsystemBmor).Float64()
	b := NewPartitionedRNG(NewSeed(2)).ForSubsystem(SubsystemBmor).Float64()
	if a == b {
		t.Fatalf("different seeds produced identical draws (may rarely flake, but rerun to confirm)")
	}
}
