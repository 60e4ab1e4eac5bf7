package sim

import (
	"rigs-and-ruin/sim/internal/geo"
	"rigs-and-ruin/sim/internal/net/proto"
)

// Core is the per-actor physics implementation supplied by the construction
// collaborator. The manager only sequences these callbacks; it never looks
// at node state directly. During a pass, Compute for one actor must not read
// another actor's node state — phase separation is the only protection.
type Core interface {
	// PreStep runs once per pass for every live actor, before any substep.
	PreStep(totalDt float64)
	// Prepare decides whether the actor participates in substep i of total.
	Prepare(first bool, dt float64, i, total int) bool
	// Compute performs the force computation for one substep. Runs on a
	// worker; must only touch this actor's state.
	Compute(first bool, dt float64, i, total int)
	// Finalize integrates positions and velocities from the computed forces.
	Finalize(first bool, dt float64, i, total int)
	// PostStep runs once per pass for every actor that participated in at
	// least one substep, with the total simulated time of the pass.
	PostStep(totalDt float64)

	// Position is the reference node position, used for region and
	// nearest-actor lookups.
	Position() geo.Vec3
	// Velocity feeds the sleep threshold test.
	Velocity() geo.Vec3

	// IdleUpdate runs per frame for local actors that are not simulated,
	// keeping engine state ticking while the body is frozen.
	IdleUpdate(dt float64)
	// ReceiveRemoteState applies the latest peer state to a networked actor.
	ReceiveRemoteState(dt float64)
	// ApplyStreamData feeds an opaque inbound stream payload to the actor.
	ApplyStreamData(kind, source, stream int32, payload []byte)
	// SendStreamData publishes the actor's outbound position stream.
	SendStreamData()
	// Reset restores the actor to its spawn configuration.
	Reset(keepPosition bool)
}

// SpawnRequest carries everything the construction collaborator needs.
type SpawnRequest struct {
	Position    geo.Vec3
	Orientation geo.Quat
	Descriptor  string
	Config      []string
	Networked   bool
	SourceID    int32
	StreamID    int32
	Preloaded   bool
}

// Builder is the construction collaborator. Build returns a fully formed
// actor or an error; an actor returned in StateInvalid is treated as a
// construction failure and discarded.
type Builder interface {
	Build(slot int, req SpawnRequest) (*Actor, error)
	// HasAsset reports whether the named descriptor is available locally,
	// consulted before accepting a remote stream registration.
	HasAsset(name string) bool
}

// Narrowphase is the precise collision collaborator. The manager sequences
// its invocations; the contact math is opaque here.
type Narrowphase interface {
	// UpdateIntra refreshes the actor's self-collision proximity structure.
	UpdateIntra(a *Actor)
	// IntraCollisions resolves self-collisions for one substep.
	IntraCollisions(dt float64, a *Actor)
	// UpdateInter refreshes the actor's proximity structure against all
	// other actors. Only called after every participant has finalized.
	UpdateInter(a *Actor, all []*Actor)
	// InterCollisions resolves collisions against candidate actors.
	InterCollisions(dt float64, a *Actor, all []*Actor)
}

// ChangeListener is notified when the controlled actor changes. Either side
// may be nil, meaning "none".
type ChangeListener interface {
	ChangedControlledActor(prev, next *Actor)
}

// Audio mutes and unmutes an actor's sound sources.
type Audio interface {
	Mute(a *Actor)
	Unmute(a *Actor)
}

// Wire sends outbound reconciliation messages; encoding and transport are
// the network collaborator's concern.
type Wire interface {
	Send(p proto.Packet) error
}
