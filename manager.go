package sim

import (
	"context"
	"fmt"
	"log"
	"time"

	"rigs-and-ruin/sim/internal/geo"
	"rigs-and-ruin/sim/internal/step"
	"rigs-and-ruin/sim/internal/telemetry"
	"rigs-and-ruin/sim/logging"
	"rigs-and-ruin/sim/logging/lifecycle"
)

// SlotNone is the "no actor" sentinel for slot-valued fields and returns.
const SlotNone = -1

const (
	actorsSpawnedMetricKey   = "sim_actors_spawned_total"
	actorsRemovedMetricKey   = "sim_actors_removed_total"
	actorsLiveMetricKey      = "sim_actors_live"
	substepsMetricKey        = "sim_substeps_total"
	capacityRefusedMetricKey = "sim_capacity_refused_total"
)

// Config wires the manager's collaborators and tuning knobs. Zero values get
// sensible defaults from NewManager.
type Config struct {
	// MaxActors is the hard slot capacity.
	MaxActors int
	// Cores is the number of usable CPU cores, detected by the caller and
	// treated here purely as configuration.
	Cores int
	// PoolThreads overrides the worker count; zero means Cores-1.
	PoolThreads int
	// DisablePool forces sequential substep execution.
	DisablePool bool
	// InlineStep runs the physics pass on the calling thread instead of the
	// background runner. Used by tests and single-core hosts.
	InlineStep bool

	Builder     Builder
	Narrowphase Narrowphase
	Listener    ChangeListener
	Audio       Audio
	Wire        Wire

	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Clock   logging.Clock
	Events  logging.Publisher
}

// Manager owns the actor population: slot registry, activity state machine,
// physics step sequencing and remote stream reconciliation. All mutating
// entry points belong to the controlling thread; the only concurrency inside
// is the worker fan-out within a pass and the one background pass, both
// joined through Sync.
type Manager struct {
	cfg Config
	reg *registry

	controlled     int
	prevControlled int
	simulated      int

	forcedAwake  bool
	simSpeed     float64
	paused       bool
	totalSimTime float64
	frames       uint64

	acc    step.Accumulator
	pool   *step.Pool
	runner *step.Runner
	task   *step.Task

	netEpoch         time.Time
	streamMismatches map[int32]map[int32]struct{}
	netTimeOffsets   map[int32]int32

	logger  telemetry.Logger
	metrics telemetry.Metrics
	clock   logging.Clock
	events  logging.Publisher
}

// NewManager builds a manager from the config, starting the worker pool and
// the background runner as configured.
func NewManager(cfg Config) *Manager {
	if cfg.MaxActors <= 0 {
		cfg.MaxActors = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.WrapLogger(log.Default())
	}
	if cfg.Clock == nil {
		cfg.Clock = logging.SystemClock{}
	}
	if cfg.Events == nil {
		cfg.Events = logging.NopPublisher()
	}

	threads := cfg.PoolThreads
	if threads <= 0 {
		threads = cfg.Cores - 1
	}
	var pool *step.Pool
	if !cfg.DisablePool {
		pool = step.NewPool(threads)
	}
	if pool == nil && !cfg.DisablePool {
		cfg.Logger.Printf("not enough cores for the worker pool, stepping sequentially")
	}

	var runner *step.Runner
	if !cfg.InlineStep {
		runner = step.NewRunner()
	}

	return &Manager{
		cfg:              cfg,
		reg:              newRegistry(cfg.MaxActors),
		controlled:       SlotNone,
		prevControlled:   SlotNone,
		simulated:        SlotNone,
		simSpeed:         1.0,
		pool:             pool,
		runner:           runner,
		netEpoch:         cfg.Clock.Now(),
		streamMismatches: make(map[int32]map[int32]struct{}),
		netTimeOffsets:   make(map[int32]int32),
		logger:           cfg.Logger,
		metrics:          cfg.Metrics,
		clock:            cfg.Clock,
		events:           cfg.Events,
	}
}

// Sync joins the outstanding background pass, if any. Every mutation of the
// registry, actor lifetime or activity state must happen behind this.
func (m *Manager) Sync() {
	if m.task != nil {
		m.task.Join()
		m.task = nil
	}
}

// CreateActor allocates a slot and asks the construction collaborator to
// build the actor. On failure the slot is tombstoned, never reissued.
func (m *Manager) CreateActor(req SpawnRequest) (*Actor, error) {
	m.Sync()

	slot, ok := m.reg.allocate()
	if !ok {
		m.addMetric(capacityRefusedMetricKey, 1)
		lifecycle.CapacityExceeded(context.Background(), m.events, m.frames, m.reg.capacity)
		return nil, fmt.Errorf("spawn %q: %w", req.Descriptor, ErrCapacityExceeded)
	}

	actor, err := m.cfg.Builder.Build(slot, req)
	if err != nil || actor == nil || actor.State == StateInvalid {
		m.reg.release(slot)
		reason := "invalid actor"
		if err != nil {
			reason = err.Error()
		}
		lifecycle.ConstructionFailed(context.Background(), m.events, m.frames, req.Descriptor, reason)
		return nil, fmt.Errorf("spawn %q: %w", req.Descriptor, ErrConstructionFailed)
	}

	actor.Slot = slot
	if req.Networked {
		actor.State = StateNetworked
		actor.NetSourceID = req.SourceID
		actor.NetStreamID = req.StreamID
	}
	if actor.StreamResults == nil {
		actor.StreamResults = make(map[int32]int32)
	}
	actor.Preloaded = actor.Preloaded || req.Preloaded
	actor.netCreatedAt = m.clock.Now()
	actor.netLastSend = actor.netCreatedAt
	m.reg.insert(slot, actor)

	m.addMetric(actorsSpawnedMetricKey, 1)
	m.storeMetric(actorsLiveMetricKey, uint64(m.reg.liveCount()))
	lifecycle.ActorSpawned(context.Background(), m.events, m.frames, lifecycle.SpawnPayload{
		Slot:       slot,
		Descriptor: req.Descriptor,
		Networked:  req.Networked,
	})
	return actor, nil
}

// RemoveActor releases the actor in the given slot. Networked actors are not
// removable through this path; they go away with their peer.
func (m *Manager) RemoveActor(slot int) {
	actor := m.reg.get(slot)
	if actor == nil {
		return
	}
	if actor.State == StateNetworked {
		return
	}
	m.deleteActor(actor)
}

// deleteActor is the shared removal path. It joins the background pass,
// clears selection if needed and announces the departure of local streams.
func (m *Manager) deleteActor(actor *Actor) {
	m.Sync()

	if actor.UsesNetworking && actor.State != StateNetworked && actor.State != StateInvalid && m.cfg.Wire != nil {
		if err := m.cfg.Wire.Send(unregisterPacket(actor.NetStreamID)); err != nil {
			m.logger.Printf("failed to announce stream unregister for slot %d: %v", actor.Slot, err)
		}
	}

	if m.controlled == actor.Slot {
		m.SetControlled(SlotNone)
	}

	m.reg.release(actor.Slot)
	m.addMetric(actorsRemovedMetricKey, 1)
	m.storeMetric(actorsLiveMetricKey, uint64(m.reg.liveCount()))
	lifecycle.ActorRemoved(context.Background(), m.events, m.frames, actor.Slot)
}

// Shutdown joins the background pass and releases every actor. Selection is
// cleared without notifying the listener; the session is over. The no-reuse
// mark deliberately stays where it is.
func (m *Manager) Shutdown() {
	m.Sync()
	for _, actor := range m.reg.live() {
		if actor != nil {
			m.reg.release(actor.Slot)
		}
	}
	m.controlled = SlotNone
	m.prevControlled = SlotNone
	m.simulated = SlotNone
	if m.runner != nil {
		m.runner.Close()
		m.runner = nil
	}
	m.pool.Close()
	m.pool = nil
	m.storeMetric(actorsLiveMetricKey, 0)
}

// ActorBySlot returns the live actor at slot, or nil.
func (m *Manager) ActorBySlot(slot int) *Actor {
	return m.reg.get(slot)
}

// ActorByNetworkLinks finds the networked actor mirroring (source, stream).
func (m *Manager) ActorByNetworkLinks(sourceID, streamID int32) *Actor {
	for _, a := range m.reg.live() {
		if a == nil || a.State != StateNetworked {
			continue
		}
		if a.NetSourceID == sourceID && a.NetStreamID == streamID {
			return a
		}
	}
	return nil
}

// ActorInRegion returns the slot of the single actor whose reference
// position lies inside the region. Two or more matches are ambiguous and
// reported as none rather than picking arbitrarily.
func (m *Manager) ActorInRegion(region geo.Box) (int, error) {
	found := SlotNone
	for _, a := range m.reg.live() {
		if a == nil {
			continue
		}
		if !region.Contains(a.Core.Position()) {
			continue
		}
		if found != SlotNone {
			return SlotNone, ErrAmbiguousRegion
		}
		found = a.Slot
	}
	return found, nil
}

// NearestActor returns the live actor closest to pos and its squared
// distance, or (SlotNone, 0) with an empty registry.
func (m *Manager) NearestActor(pos geo.Vec3) (int, float64) {
	nearest := SlotNone
	best := 0.0
	for _, a := range m.reg.live() {
		if a == nil {
			continue
		}
		dist := a.Core.Position().Sub(pos).SquaredLength()
		if nearest == SlotNone || dist < best {
			nearest = a.Slot
			best = dist
		}
	}
	return nearest, best
}

// LocalActors returns every live actor not driven by a remote peer.
func (m *Manager) LocalActors() []*Actor {
	var locals []*Actor
	for _, a := range m.reg.live() {
		if a != nil && a.State != StateNetworked {
			locals = append(locals, a)
		}
	}
	return locals
}

// RepairActorInRegion resets the single actor found in the region. An
// ambiguous region repairs nothing.
func (m *Manager) RepairActorInRegion(region geo.Box, keepPosition bool) bool {
	slot, err := m.ActorInRegion(region)
	if err != nil || slot == SlotNone {
		return false
	}
	m.Sync()
	m.reg.get(slot).Core.Reset(keepPosition)
	return true
}

// MuteAll silences every live actor through the audio collaborator.
func (m *Manager) MuteAll() {
	if m.cfg.Audio == nil {
		return
	}
	for _, a := range m.reg.live() {
		if a != nil {
			m.cfg.Audio.Mute(a)
		}
	}
}

// UnmuteAll restores every live actor's sound sources.
func (m *Manager) UnmuteAll() {
	if m.cfg.Audio == nil {
		return
	}
	for _, a := range m.reg.live() {
		if a != nil {
			m.cfg.Audio.Unmute(a)
		}
	}
}

// Controlled reports the controlled actor's slot, or SlotNone.
func (m *Manager) Controlled() int {
	return m.controlled
}

// ControlledActor returns the controlled actor, or nil.
func (m *Manager) ControlledActor() *Actor {
	return m.reg.get(m.controlled)
}

// SetForcedAwake disables the sleep counters globally.
func (m *Manager) SetForcedAwake(forced bool) {
	m.forcedAwake = forced
}

// ForcedAwake reports whether sleep counters are disabled.
func (m *Manager) ForcedAwake() bool {
	return m.forcedAwake
}

// SetSimulationSpeed sets the time ratio between wall time and simulated
// time, clamped at zero.
func (m *Manager) SetSimulationSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	m.simSpeed = speed
}

// SimulationSpeed reports the current time ratio.
func (m *Manager) SimulationSpeed() float64 {
	return m.simSpeed
}

// SetPaused freezes or resumes time accumulation.
func (m *Manager) SetPaused(paused bool) {
	m.paused = paused
}

// Paused reports whether time accumulation is frozen.
func (m *Manager) Paused() bool {
	return m.paused
}

// TotalSimTime reports the simulated seconds accumulated this session.
func (m *Manager) TotalSimTime() float64 {
	return m.totalSimTime
}

// Frame reports the number of Update calls so far.
func (m *Manager) Frame() uint64 {
	return m.frames
}

// Update advances the simulation by one frame. It quantizes dt into fixed
// substeps, reconciles activity state, runs per-actor frame hooks and hands
// the physics pass to the background runner. The previous frame's pass is
// joined before anything is mutated.
func (m *Manager) Update(dt float64) {
	m.frames++

	steps := 0
	total := 0.0
	if !m.paused {
		steps, total = m.acc.Advance(dt, m.simSpeed)
	}
	m.totalSimTime += total
	m.addMetric(substepsMetricKey, uint64(steps))

	m.Sync()

	m.UpdateSleepingState(total)

	now := m.clock.Now()
	for _, a := range m.reg.live() {
		if a == nil {
			continue
		}
		switch a.State {
		case StateNetworked:
			a.Core.ReceiveRemoteState(total)
		case StateInvalid:
			// never registered alive; nothing to do
		default:
			if a.State != StateSimulated {
				a.Core.IdleUpdate(total)
			}
			if a.UsesNetworking {
				m.sendStream(a, now)
			}
		}
	}

	// The designated simulated actor is the controlled one, else the lowest
	// live simulated slot. The tie-break is first-found order on purpose.
	m.simulated = m.controlled
	if m.simulated == SlotNone {
		for _, a := range m.reg.live() {
			if a != nil && a.State == StateSimulated {
				m.simulated = a.Slot
				break
			}
		}
	}

	if m.simulated == SlotNone {
		return
	}

	pass := func() { m.runPhysicsPass(steps, total) }
	if m.runner != nil {
		m.task = m.runner.Submit(pass)
	} else {
		pass()
	}
}

// sendStream applies the outbound cadence: simulated actors stream every
// frame; sleeping actors stream through their first ten seconds of life and
// every five seconds after that, so late joiners still learn about them.
func (m *Manager) sendStream(a *Actor, now time.Time) {
	send := false
	switch a.State {
	case StateSimulated:
		send = true
	case StateSleeping:
		if now.Sub(a.netCreatedAt) < 10*time.Second {
			send = true
		} else if now.Sub(a.netLastSend) > 5*time.Second {
			send = true
		}
	}
	if send {
		a.Core.SendStreamData()
		a.netLastSend = now
	}
}

func (m *Manager) addMetric(key string, delta uint64) {
	if m.metrics != nil {
		m.metrics.Add(key, delta)
	}
}

func (m *Manager) storeMetric(key string, value uint64) {
	if m.metrics != nil {
		m.metrics.Store(key, value)
	}
}
