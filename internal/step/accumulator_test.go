package step

import (
	"math"
	"math/rand"
	"testing"
)

func TestAccumulatorConservation(t *testing.T) {
	// The sum of executed substeps plus the final remainder must equal the
	// sum of clamped, speed-scaled frame deltas.
	rng := rand.New(rand.NewSource(7))
	var acc Accumulator
	const speed = 1.0

	var fed, simulated float64
	for i := 0; i < 1000; i++ {
		dt := rng.Float64() * 0.08 // occasionally above the clamp
		clamped := dt
		if clamped > MaxFrameDelta {
			clamped = MaxFrameDelta
		}
		fed += clamped * speed

		steps, total := acc.Advance(dt, speed)
		if steps < 0 {
			t.Fatalf("negative substep count %d", steps)
		}
		if math.Abs(total-float64(steps)*FixedDt) > 1e-12 {
			t.Fatalf("total %v does not match steps %d * FixedDt", total, steps)
		}
		simulated += total
	}

	if diff := math.Abs(fed - (simulated + acc.Remainder())); diff > 1e-9 {
		t.Fatalf("time not conserved: fed %v, simulated+remainder %v (diff %v)",
			fed, simulated+acc.Remainder(), diff)
	}
}

func TestAccumulatorClampsFrameDelta(t *testing.T) {
	var acc Accumulator
	steps, _ := acc.Advance(10.0, 1.0)
	want := int(MaxFrameDelta / FixedDt)
	if steps != want {
		t.Fatalf("expected clamp to %d substeps, got %d", want, steps)
	}
}

func TestAccumulatorSpeedScaling(t *testing.T) {
	var acc Accumulator
	steps, _ := acc.Advance(0.01, 0.5)
	if steps != 10 {
		t.Fatalf("expected 10 substeps at half speed, got %d", steps)
	}
	steps, _ = acc.Advance(0.01, 0.0)
	if steps != 0 {
		t.Fatalf("expected no substeps at zero speed, got %d", steps)
	}
}

func TestAccumulatorRemainderCarries(t *testing.T) {
	var acc Accumulator
	// 0.00075 s is one and a half substeps; the half carries over.
	steps, _ := acc.Advance(0.00075, 1.0)
	if steps != 1 {
		t.Fatalf("expected 1 substep, got %d", steps)
	}
	steps, _ = acc.Advance(0.00075, 1.0)
	if steps != 2 {
		t.Fatalf("expected carried remainder to yield 2 substeps, got %d", steps)
	}
}
