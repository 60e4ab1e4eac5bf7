package lifecycle

import (
	"context"
	"strconv"

	"rigs-and-ruin/sim/logging"
)

const (
	// EventActorSpawned is emitted when an actor enters the registry.
	EventActorSpawned logging.EventType = "lifecycle.actor_spawned"
	// EventActorRemoved is emitted when an actor leaves the registry.
	EventActorRemoved logging.EventType = "lifecycle.actor_removed"
	// EventConstructionFailed is emitted when the construction collaborator
	// rejects a spawn request.
	EventConstructionFailed logging.EventType = "lifecycle.construction_failed"
	// EventCapacityExceeded is emitted when no free slot remains.
	EventCapacityExceeded logging.EventType = "lifecycle.capacity_exceeded"
)

// SpawnPayload describes the spawned actor.
type SpawnPayload struct {
	Slot       int    `json:"slot"`
	Descriptor string `json:"descriptor,omitempty"`
	Networked  bool   `json:"networked"`
}

func ActorSpawned(ctx context.Context, pub logging.Publisher, frame uint64, payload SpawnPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActorSpawned,
		Frame:    frame,
		Actor:    actorRef(payload.Slot),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
	})
}

func ActorRemoved(ctx context.Context, pub logging.Publisher, frame uint64, slot int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActorRemoved,
		Frame:    frame,
		Actor:    actorRef(slot),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
	})
}

func ConstructionFailed(ctx context.Context, pub logging.Publisher, frame uint64, descriptor string, reason string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventConstructionFailed,
		Frame:    frame,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryLifecycle,
		Payload:  map[string]string{"descriptor": descriptor, "reason": reason},
	})
}

func CapacityExceeded(ctx context.Context, pub logging.Publisher, frame uint64, capacity int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCapacityExceeded,
		Frame:    frame,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryLifecycle,
		Payload:  map[string]int{"capacity": capacity},
	})
}

func actorRef(slot int) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(slot), Kind: logging.EntityKindActor}
}
