package sim

// SetControlled switches the controlled actor to the given slot (SlotNone to
// deselect). The change listener always hears about the switch, then the
// activity machine reruns with dt=0 so sleep/wake state reconciles
// immediately against the new pivot.
func (m *Manager) SetControlled(slot int) {
	m.prevControlled = m.controlled
	m.controlled = slot

	if m.cfg.Listener != nil {
		m.cfg.Listener.ChangedControlledActor(m.reg.get(m.prevControlled), m.reg.get(m.controlled))
	}

	m.UpdateSleepingState(0)
}

// selectable reports whether the actor can be taken over by the player:
// live, locally owned and not pre-placed scenery.
func selectable(a *Actor) bool {
	return a != nil && a.State != StateNetworked && !a.Preloaded
}

// pivotSlot is the most recently controlled slot still alive, or SlotNone.
func (m *Manager) pivotSlot() int {
	if m.reg.get(m.controlled) != nil {
		return m.controlled
	}
	if m.reg.get(m.prevControlled) != nil {
		return m.prevControlled
	}
	return SlotNone
}

// SelectNext cyclically scans forward from the pivot for the next
// selectable actor, wrapping around, falling back to re-selecting the pivot
// itself when nothing else qualifies.
func (m *Manager) SelectNext() {
	pivot := m.pivotSlot()

	for i := pivot + 1; i < m.reg.highWater; i++ {
		if selectable(m.reg.get(i)) {
			m.SetControlled(i)
			return
		}
	}
	for i := 0; i < pivot; i++ {
		if selectable(m.reg.get(i)) {
			m.SetControlled(i)
			return
		}
	}
	if pivot >= 0 && selectable(m.reg.get(pivot)) {
		m.SetControlled(pivot)
	}
}

// SelectPrevious is SelectNext in the other direction.
func (m *Manager) SelectPrevious() {
	pivot := m.pivotSlot()

	for i := pivot - 1; i >= 0; i-- {
		if selectable(m.reg.get(i)) {
			m.SetControlled(i)
			return
		}
	}
	for i := m.reg.highWater - 1; i > pivot; i-- {
		if selectable(m.reg.get(i)) {
			m.SetControlled(i)
			return
		}
	}
	if pivot >= 0 && selectable(m.reg.get(pivot)) {
		m.SetControlled(pivot)
	}
}

// SelectRescue jumps to the first actor flagged as a rescuer. Deselecting
// first keeps overlapping takeover notifications in a sane order.
func (m *Manager) SelectRescue() bool {
	for _, a := range m.reg.live() {
		if a != nil && a.Rescuer {
			m.SetControlled(SlotNone)
			m.SetControlled(a.Slot)
			return true
		}
	}
	return false
}
