package sim

import "testing"

func TestRegistryAllocateExtendsMark(t *testing.T) {
	reg := newRegistry(4)
	for want := 0; want < 4; want++ {
		slot, ok := reg.allocate()
		if !ok {
			t.Fatalf("allocation %d failed unexpectedly", want)
		}
		if slot != want {
			t.Fatalf("expected slot %d, got %d", want, slot)
		}
	}
	if slot, ok := reg.allocate(); ok {
		t.Fatalf("expected allocation past capacity to fail, got slot %d", slot)
	}
}

func TestRegistryNeverReusesReleasedSlots(t *testing.T) {
	reg := newRegistry(8)
	first, _ := reg.allocate()
	reg.insert(first, &Actor{Slot: first})
	reg.release(first)

	// The freed index must stay a tombstone; the next allocation extends the
	// mark instead of filling the hole.
	next, ok := reg.allocate()
	if !ok {
		t.Fatalf("expected allocation to succeed")
	}
	if next == first {
		t.Fatalf("released slot %d was reused", first)
	}
	if next != first+1 {
		t.Fatalf("expected slot %d, got %d", first+1, next)
	}
	if reg.get(first) != nil {
		t.Fatalf("expected tombstone at released slot")
	}
}

func TestRegistryCapacityScenario(t *testing.T) {
	// Capacity 2: A and B succeed, C fails with no slot consumed.
	reg := newRegistry(2)
	a, ok := reg.allocate()
	if !ok || a != 0 {
		t.Fatalf("expected A at slot 0, got %d ok=%v", a, ok)
	}
	b, ok := reg.allocate()
	if !ok || b != 1 {
		t.Fatalf("expected B at slot 1, got %d ok=%v", b, ok)
	}
	if _, ok := reg.allocate(); ok {
		t.Fatalf("expected C to fail")
	}
	if reg.highWater != 2 {
		t.Fatalf("failed allocation must not consume a slot, mark=%d", reg.highWater)
	}
}

func TestRegistryLiveSkipsTombstones(t *testing.T) {
	reg := newRegistry(4)
	for i := 0; i < 3; i++ {
		slot, _ := reg.allocate()
		reg.insert(slot, &Actor{Slot: slot})
	}
	reg.release(1)
	if reg.liveCount() != 2 {
		t.Fatalf("expected 2 live actors, got %d", reg.liveCount())
	}
	window := reg.live()
	if len(window) != 3 {
		t.Fatalf("expected window of 3 slots, got %d", len(window))
	}
	if window[1] != nil {
		t.Fatalf("expected tombstone in live window")
	}
}
