package sim

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"rigs-and-ruin/sim/internal/geo"
	"rigs-and-ruin/sim/internal/net/proto"
	"rigs-and-ruin/sim/logging"
)

// trace is a concurrency-safe call log shared by the fakes, so tests can
// assert phase ordering across actors.
type trace struct {
	mu      sync.Mutex
	entries []string
}

func (t *trace) add(entry string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	t.mu.Unlock()
}

func (t *trace) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.entries...)
}

func (t *trace) count(entry string) int {
	n := 0
	for _, e := range t.list() {
		if e == entry {
			n++
		}
	}
	return n
}

type fakeCore struct {
	label string
	tr    *trace

	pos geo.Vec3
	vel geo.Vec3

	// participate gates Prepare per substep; nil means always participate.
	participate func(i int) bool

	mu          sync.Mutex
	remoteTicks int
	idleTicks   int
	streamSends int
	payloads    [][]byte
	resets      int
}

func (c *fakeCore) PreStep(totalDt float64) { c.tr.add(c.label + ".pre") }

func (c *fakeCore) Prepare(first bool, dt float64, i, total int) bool {
	c.tr.add(fmt.Sprintf("%s.prepare%d", c.label, i))
	if c.participate != nil {
		return c.participate(i)
	}
	return true
}

func (c *fakeCore) Compute(first bool, dt float64, i, total int) {
	c.tr.add(fmt.Sprintf("%s.compute%d", c.label, i))
}

func (c *fakeCore) Finalize(first bool, dt float64, i, total int) {
	c.tr.add(fmt.Sprintf("%s.finalize%d", c.label, i))
}

func (c *fakeCore) PostStep(totalDt float64) { c.tr.add(c.label + ".post") }

func (c *fakeCore) Position() geo.Vec3 { return c.pos }
func (c *fakeCore) Velocity() geo.Vec3 { return c.vel }

func (c *fakeCore) IdleUpdate(dt float64) {
	c.mu.Lock()
	c.idleTicks++
	c.mu.Unlock()
}

func (c *fakeCore) ReceiveRemoteState(dt float64) {
	c.mu.Lock()
	c.remoteTicks++
	c.mu.Unlock()
}

func (c *fakeCore) ApplyStreamData(kind, source, stream int32, payload []byte) {
	c.mu.Lock()
	c.payloads = append(c.payloads, payload)
	c.mu.Unlock()
}

func (c *fakeCore) SendStreamData() {
	c.mu.Lock()
	c.streamSends++
	c.mu.Unlock()
}

func (c *fakeCore) Reset(keepPosition bool) {
	c.mu.Lock()
	c.resets++
	c.mu.Unlock()
}

// fakeBuilder builds actors around fakeCores. Assets listed in assets pass
// HasAsset; failNext makes the next Build return an error.
type fakeBuilder struct {
	assets   map[string]bool
	failNext bool
	tr       *trace
	cores    []*fakeCore
}

func (b *fakeBuilder) Build(slot int, req SpawnRequest) (*Actor, error) {
	if b.failNext {
		b.failNext = false
		return nil, errors.New("descriptor did not parse")
	}
	core := &fakeCore{label: req.Descriptor, tr: b.tr, pos: req.Position}
	b.cores = append(b.cores, core)
	return &Actor{State: StateSimulated, Core: core}, nil
}

func (b *fakeBuilder) HasAsset(name string) bool { return b.assets[name] }

type fakeNarrowphase struct {
	tr *trace
}

func (n *fakeNarrowphase) UpdateIntra(a *Actor) {
	n.tr.add(fmt.Sprintf("intra-update%d", a.Slot))
}

func (n *fakeNarrowphase) IntraCollisions(dt float64, a *Actor) {
	n.tr.add(fmt.Sprintf("intra-resolve%d", a.Slot))
}

func (n *fakeNarrowphase) UpdateInter(a *Actor, all []*Actor) {
	n.tr.add(fmt.Sprintf("inter-update%d", a.Slot))
}

func (n *fakeNarrowphase) InterCollisions(dt float64, a *Actor, all []*Actor) {
	n.tr.add(fmt.Sprintf("inter-resolve%d", a.Slot))
}

type selection struct {
	prev, next int
}

type fakeListener struct {
	changes []selection
}

func (l *fakeListener) ChangedControlledActor(prev, next *Actor) {
	change := selection{prev: SlotNone, next: SlotNone}
	if prev != nil {
		change.prev = prev.Slot
	}
	if next != nil {
		change.next = next.Slot
	}
	l.changes = append(l.changes, change)
}

type fakeAudio struct {
	muted   int
	unmuted int
}

func (a *fakeAudio) Mute(*Actor)   { a.muted++ }
func (a *fakeAudio) Unmute(*Actor) { a.unmuted++ }

type fakeWire struct {
	sent []proto.Packet
	err  error
}

func (w *fakeWire) Send(p proto.Packet) error {
	if w.err != nil {
		return w.err
	}
	w.sent = append(w.sent, p)
	return nil
}

// testClock is a manually advanced clock.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestManager wires a manager for deterministic in-package tests: inline
// stepping, no worker pool, silent events.
func newTestManager(cfg Config) *Manager {
	cfg.InlineStep = true
	cfg.DisablePool = true
	if cfg.Clock == nil {
		cfg.Clock = &testClock{now: time.Unix(1000, 0)}
	}
	if cfg.Events == nil {
		cfg.Events = logging.NopPublisher()
	}
	return NewManager(cfg)
}

// spawn is the common happy-path spawn used across tests.
func spawn(t *testing.T, m *Manager, descriptor string) *Actor {
	t.Helper()
	actor, err := m.CreateActor(SpawnRequest{Descriptor: descriptor})
	if err != nil {
		t.Fatalf("spawn %q: %v", descriptor, err)
	}
	return actor
}
