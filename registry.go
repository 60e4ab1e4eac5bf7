package sim

// registry is a growable indexed arena of actor slots with a hard capacity.
// A slot freed below the high-water mark becomes a tombstone and is never
// handed out again this session: re-spawning into a reused index after a
// peer disconnect/reconnect corrupts remote cross-references, so the
// no-reuse policy is explicit rather than incidental.
type registry struct {
	slots     []*Actor
	highWater int
	capacity  int
}

func newRegistry(capacity int) *registry {
	if capacity < 1 {
		capacity = 1
	}
	return &registry{capacity: capacity}
}

// allocate returns the next never-used index and extends the high-water
// mark, or reports failure when the capacity is exhausted. Holes below the
// mark are deliberately not considered.
func (r *registry) allocate() (int, bool) {
	if r.highWater >= r.capacity {
		return SlotNone, false
	}
	slot := r.highWater
	r.highWater++
	for len(r.slots) < r.highWater {
		r.slots = append(r.slots, nil)
	}
	return slot, true
}

func (r *registry) insert(slot int, a *Actor) {
	if slot < 0 || slot >= len(r.slots) {
		return
	}
	r.slots[slot] = a
}

// release tombstones the slot. The high-water mark never moves back.
func (r *registry) release(slot int) {
	if slot < 0 || slot >= len(r.slots) {
		return
	}
	r.slots[slot] = nil
}

func (r *registry) get(slot int) *Actor {
	if slot < 0 || slot >= r.highWater || slot >= len(r.slots) {
		return nil
	}
	return r.slots[slot]
}

// live returns the slot window containing every actor ever allocated. Holes
// are nil; callers iterate and skip them, the same shape every scan in the
// manager uses.
func (r *registry) live() []*Actor {
	return r.slots[:min(r.highWater, len(r.slots))]
}

func (r *registry) liveCount() int {
	count := 0
	for _, a := range r.live() {
		if a != nil {
			count++
		}
	}
	return count
}

