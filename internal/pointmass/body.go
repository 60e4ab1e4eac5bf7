package pointmass

import (
	"encoding/json"

	"rigs-and-ruin/sim"
	"rigs-and-ruin/sim/descriptor"
	"rigs-and-ruin/sim/internal/geo"
)

const gravity = -9.81

// predictionHorizon is how far ahead, in seconds, the look-ahead box projects
// the body's motion for wake checks.
const predictionHorizon = 1.0

// Body is a single point mass under gravity with ground contact at y = 0.
// It exists so the server runs end to end without an external physics
// collaborator; anything finer grained plugs in through the same interface.
type Body struct {
	actor *sim.Actor

	mass    float64
	damping float64
	half    geo.Vec3

	pos geo.Vec3
	vel geo.Vec3

	spawnPos geo.Vec3

	force geo.Vec3

	streamID int32
	wire     streamFunc
}

// streamFunc publishes one outbound state payload for a stream.
type streamFunc func(streamID int32, payload []byte)

// remoteState is the wire payload mirrored between peers.
type remoteState struct {
	Pos geo.Vec3 `json:"pos"`
	Vel geo.Vec3 `json:"vel"`
}

func newBody(desc descriptor.Descriptor, pos geo.Vec3, stream streamFunc) *Body {
	half := geo.Vec3{X: desc.HalfExtent.X, Y: desc.HalfExtent.Y, Z: desc.HalfExtent.Z}
	if half == (geo.Vec3{}) {
		half = geo.Vec3{X: 1, Y: 1, Z: 1}
	}
	return &Body{
		mass:     desc.Mass,
		damping:  desc.Damping,
		half:     half,
		pos:      pos,
		spawnPos: pos,
		wire:     stream,
	}
}

func (b *Body) bind(actor *sim.Actor) {
	b.actor = actor
	b.streamID = actor.NetStreamID
	b.refreshBoxes()
}

func (b *Body) PreStep(totalDt float64) {}

func (b *Body) Prepare(first bool, dt float64, i, total int) bool {
	b.force = geo.Vec3{}
	return true
}

func (b *Body) Compute(first bool, dt float64, i, total int) {
	b.force = b.force.Add(geo.Vec3{Y: gravity * b.mass})
	if b.damping > 0 {
		b.force = b.force.Add(b.vel.Scale(-b.damping * b.mass))
	}
}

func (b *Body) Finalize(first bool, dt float64, i, total int) {
	b.vel = b.vel.Add(b.force.Scale(dt / b.mass))
	b.pos = b.pos.Add(b.vel.Scale(dt))

	// Ground plane: clamp and kill downward velocity.
	if b.pos.Y-b.half.Y < 0 {
		b.pos.Y = b.half.Y
		if b.vel.Y < 0 {
			b.vel.Y = 0
		}
	}
}

func (b *Body) PostStep(totalDt float64) {
	b.refreshBoxes()
}

func (b *Body) refreshBoxes() {
	if b.actor == nil {
		return
	}
	b.actor.BoundingBox = geo.Box{Min: b.pos.Sub(b.half), Max: b.pos.Add(b.half)}
	ahead := b.pos.Add(b.vel.Scale(predictionHorizon))
	b.actor.PredictedBoundingBox = geo.Box{
		Min: minVec(b.pos, ahead).Sub(b.half),
		Max: maxVec(b.pos, ahead).Add(b.half),
	}
}

func (b *Body) Position() geo.Vec3 { return b.pos }
func (b *Body) Velocity() geo.Vec3 { return b.vel }

func (b *Body) IdleUpdate(dt float64) {}

func (b *Body) ReceiveRemoteState(dt float64) {}

func (b *Body) ApplyStreamData(kind, source, stream int32, payload []byte) {
	var state remoteState
	if err := json.Unmarshal(payload, &state); err != nil {
		return
	}
	b.pos = state.Pos
	b.vel = state.Vel
	b.refreshBoxes()
}

func (b *Body) SendStreamData() {
	if b.wire == nil {
		return
	}
	payload, err := json.Marshal(remoteState{Pos: b.pos, Vel: b.vel})
	if err != nil {
		return
	}
	b.wire(b.streamID, payload)
}

func (b *Body) Reset(keepPosition bool) {
	if !keepPosition {
		b.pos = b.spawnPos
	}
	b.vel = geo.Vec3{}
	b.refreshBoxes()
}

// Kick applies an instantaneous velocity change, handy for demos and tests.
func (b *Body) Kick(dv geo.Vec3) {
	b.vel = b.vel.Add(dv)
	b.refreshBoxes()
}

func minVec(a, b geo.Vec3) geo.Vec3 {
	return geo.Vec3{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
}

func maxVec(a, b geo.Vec3) geo.Vec3 {
	return geo.Vec3{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
}
