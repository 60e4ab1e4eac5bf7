package sim

import (
	"context"
	"time"

	"rigs-and-ruin/sim/internal/step"
	"rigs-and-ruin/sim/logging/simulation"
)

// runPhysicsPass executes one frame's worth of fixed substeps over the
// current actor population. The registry window is read-only for the whole
// pass; the controlling thread guarantees that by joining the pass before
// any mutation.
//
// Each substep runs the phases in strict order: prepare (sequential) →
// compute (fan-out) → barrier → finalize (sequential) → intra-actor
// collision (fan-out) → inter-actor collision (fan-out, only with more than
// one participant) → barrier. With the pool disabled the fan-outs run
// inline in slot order and produce identical results.
func (m *Manager) runPhysicsPass(steps int, totalDt float64) {
	started := m.clock.Now()
	actors := m.reg.live()
	narrowphase := m.cfg.Narrowphase

	for _, a := range actors {
		if a == nil {
			continue
		}
		a.participated = false
		a.Core.PreStep(totalDt)
	}

	for i := 0; i < steps; i++ {
		first := i == 0
		stepIndex := i

		participants := 0
		var computeTasks []func()
		for _, a := range actors {
			if a == nil {
				continue
			}
			a.updatePhysics = false
			if a.State >= StateSleeping {
				continue
			}
			if !a.Core.Prepare(first, step.FixedDt, stepIndex, steps) {
				continue
			}
			a.updatePhysics = true
			a.participated = true
			participants++
			a := a
			computeTasks = append(computeTasks, func() {
				a.Core.Compute(first, step.FixedDt, stepIndex, steps)
			})
		}
		m.pool.Parallelize(computeTasks)

		for _, a := range actors {
			if a != nil && a.updatePhysics {
				a.Core.Finalize(first, step.FixedDt, stepIndex, steps)
			}
		}

		if narrowphase != nil {
			var intraTasks []func()
			for _, a := range actors {
				if a == nil || !a.updatePhysics || a.DisableSelfCollision {
					continue
				}
				a := a
				intraTasks = append(intraTasks, func() {
					narrowphase.UpdateIntra(a)
					narrowphase.IntraCollisions(step.FixedDt, a)
				})
			}
			m.pool.Parallelize(intraTasks)

			if participants > 1 {
				var interTasks []func()
				for _, a := range actors {
					if a == nil || !a.updatePhysics || a.DisableActorCollision {
						continue
					}
					a := a
					interTasks = append(interTasks, func() {
						narrowphase.UpdateInter(a, actors)
						if a.CollisionRelevant {
							narrowphase.InterCollisions(step.FixedDt, a, actors)
						}
					})
				}
				m.pool.Parallelize(interTasks)
			}
		}
	}

	for _, a := range actors {
		if a != nil && a.participated {
			a.Core.PostStep(totalDt)
		}
	}

	// A pass that takes longer than the simulated time it covers cannot keep
	// up with real time.
	if steps > 0 {
		budget := time.Duration(totalDt * float64(time.Second))
		if elapsed := m.clock.Now().Sub(started); elapsed > budget {
			simulation.StepOverrun(context.Background(), m.events, m.frames, simulation.StepOverrunPayload{
				DurationMillis: elapsed.Milliseconds(),
				BudgetMillis:   budget.Milliseconds(),
				Substeps:       steps,
			})
		}
	}
}
