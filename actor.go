package sim

import (
	"time"

	"rigs-and-ruin/sim/internal/geo"
)

// SimState is an actor's activity state. The order matters: the step
// scheduler integrates only states below StateSleeping, and "active local"
// checks use the same comparison.
type SimState int

const (
	// StateSimulated actors are fully integrated every substep.
	StateSimulated SimState = iota
	// StateSleeping actors are frozen and skipped by the scheduler, but stay
	// collidable so the activation traversal can wake them.
	StateSleeping
	// StateNetworked actors mirror authoritative state from a remote peer.
	// They are never integrated locally and never sleep.
	StateNetworked
	// StateInvalid marks a failed construction. Terminal; the actor never
	// enters the registry alive.
	StateInvalid
)

func (s SimState) String() string {
	switch s {
	case StateSimulated:
		return "simulated"
	case StateSleeping:
		return "sleeping"
	case StateNetworked:
		return "networked"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Actor is one simulated entity. The manager owns lifecycle, activity state
// and step sequencing; the node-level physics lives behind Core, produced by
// the construction collaborator.
type Actor struct {
	Slot  int
	State SimState
	Core  Core

	// SleepTimer accumulates seconds spent below the sleep velocity
	// threshold; any activation event resets it.
	SleepTimer float64

	BoundingBox          geo.Box
	PredictedBoundingBox geo.Box

	// Optional finer-grained collision boxes. Empty means "use the whole
	// actor box" in every broadphase comparison.
	CollisionBoxes          []geo.Box
	PredictedCollisionBoxes []geo.Box

	// Capability flags. Behavior branches on these, never on a concrete
	// actor kind.
	Aircraft              bool
	Rescuer               bool
	Preloaded             bool
	DisableSelfCollision  bool
	DisableActorCollision bool
	CollisionRelevant     bool
	DisableTurbulentDrag  bool

	// Networking identity and per-source register results.
	UsesNetworking bool
	NetSourceID    int32
	NetStreamID    int32
	StreamResults  map[int32]int32

	netCreatedAt time.Time
	netLastSend  time.Time

	// Transient per-substep participation flag: set by the prepare phase,
	// consumed by the compute/finalize/collision phases of the same substep.
	updatePhysics bool
	// Whether the actor participated in at least one substep this pass.
	participated bool
}

// currentCollOverlap is the broadphase test over current boxes.
func currentCollOverlap(a, b *Actor, scale float64) bool {
	return geo.CollOverlaps(a.CollisionBoxes, a.BoundingBox, b.CollisionBoxes, b.BoundingBox, scale)
}

// predictedCollOverlap is the broadphase test over look-ahead boxes.
func predictedCollOverlap(a, b *Actor, scale float64) bool {
	return geo.CollOverlaps(a.PredictedCollisionBoxes, a.PredictedBoundingBox, b.PredictedCollisionBoxes, b.PredictedBoundingBox, scale)
}
