package step

// FixedDt is the fixed integration step of half a millisecond.
const FixedDt = 0.0005

// MaxFrameDelta caps how much wall time a single frame may contribute,
// preventing runaway substep counts after a stall.
const MaxFrameDelta = 1.0 / 20.0

// Accumulator converts variable frame deltas into a whole number of fixed
// substeps, carrying the sub-step rounding remainder into the next frame so
// no simulated time is lost or invented beyond the per-frame clamp.
type Accumulator struct {
	remainder float64
}

// Advance clamps the frame delta, scales it by the simulation speed, adds the
// carried remainder and splits the total into fixed substeps. It returns the
// substep count and the simulated time those substeps cover.
func (a *Accumulator) Advance(dt, speed float64) (int, float64) {
	if dt > MaxFrameDelta {
		dt = MaxFrameDelta
	}
	dt = dt*speed + a.remainder
	steps := int(dt / FixedDt)
	total := float64(steps) * FixedDt
	a.remainder = dt - total
	return steps, total
}

// Remainder reports the carried fraction of a substep.
func (a *Accumulator) Remainder() float64 {
	return a.remainder
}
