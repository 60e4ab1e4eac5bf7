package sim

import (
	"context"

	"rigs-and-ruin/sim/logging/simulation"
)

const (
	// Squared velocity below which an actor is considered at rest.
	sleepVelocityThreshold = 0.01
	// Seconds at rest before a simulated actor falls asleep.
	sleepAfterSeconds = 10.0
	// Inflation applied to current boxes when propagating wakefulness
	// between already-simulated actors.
	activationScale = 1.2
)

// UpdateSleepingState runs the per-frame activity state machine: idle timers
// tick simulated actors towards sleep, the controlled actor is kept awake,
// and wakefulness propagates through the proximity graph from the controlled
// actor and from every actor that is currently moving.
func (m *Manager) UpdateSleepingState(dt float64) {
	if !m.forcedAwake {
		for _, a := range m.reg.live() {
			if a == nil || a.State != StateSimulated {
				continue
			}
			if a.Core.Velocity().SquaredLength() > sleepVelocityThreshold {
				continue
			}
			a.SleepTimer += dt
			if a.SleepTimer >= sleepAfterSeconds {
				a.State = StateSleeping
				simulation.ActorSlept(context.Background(), m.events, m.frames, a.Slot, a.SleepTimer)
			}
		}
	}

	controlled := m.reg.get(m.controlled)
	if controlled != nil && controlled.State == StateSleeping {
		controlled.State = StateSimulated
	}

	visited := make([]bool, m.reg.highWater)
	if controlled != nil && controlled.State == StateSimulated {
		controlled.SleepTimer = 0
		m.activate(m.controlled, visited)
	}
	// Snowball: any moving actor propagates wakefulness, not only the
	// controlled one.
	for slot, a := range m.reg.live() {
		if a != nil && a.State == StateSimulated && a.SleepTimer == 0 {
			m.activate(slot, visited)
		}
	}
}

// activate walks the activation graph from the given slot with an explicit
// worklist. Simulated neighbors overlapping on current boxes at the
// activation scale get their idle timers reset; sleeping neighbors
// overlapping on predicted boxes are woken. The visited set spans the whole
// frame, so cyclic proximity graphs terminate and each actor is handled at
// most once.
func (m *Manager) activate(slot int, visited []bool) {
	start := m.reg.get(slot)
	if slot < 0 || slot >= len(visited) || visited[slot] {
		return
	}
	if start == nil || start.State != StateSimulated {
		return
	}

	visited[slot] = true
	worklist := []int{slot}
	for len(worklist) > 0 {
		cur := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		current := m.reg.get(cur)
		if current == nil {
			continue
		}
		for t := 0; t < m.reg.highWater; t++ {
			if t == cur || visited[t] {
				continue
			}
			a := m.reg.get(t)
			if a == nil {
				continue
			}
			if a.State == StateSimulated && currentCollOverlap(a, current, activationScale) {
				a.SleepTimer = 0
				visited[t] = true
				worklist = append(worklist, t)
				continue
			}
			if a.State == StateSleeping && predictedCollOverlap(a, current, 1.0) {
				a.SleepTimer = 0
				a.State = StateSimulated
				simulation.ActorWoke(context.Background(), m.events, m.frames, t)
				visited[t] = true
				worklist = append(worklist, t)
			}
		}
	}
}

// WakeAll wakes every sleeping actor. Woken actors inherit the turbulent
// drag exemption when the designated simulated actor is an aircraft.
func (m *Manager) WakeAll() {
	simulated := m.reg.get(m.simulated)
	for _, a := range m.reg.live() {
		if a == nil || a.State != StateSleeping {
			continue
		}
		a.State = StateSimulated
		a.SleepTimer = 0
		if simulated != nil {
			a.DisableTurbulentDrag = simulated.Aircraft
		}
	}
}

// SleepAll clears the forced-awake override and freezes every simulated
// actor.
func (m *Manager) SleepAll() {
	m.forcedAwake = false
	for _, a := range m.reg.live() {
		if a != nil && a.State == StateSimulated {
			a.State = StateSleeping
		}
	}
}
