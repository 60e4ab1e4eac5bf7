package network

import (
	"context"
	"strconv"

	"rigs-and-ruin/sim/logging"
)

const (
	// EventStreamMismatch is emitted when a remote registration references an
	// asset the local instance does not have.
	EventStreamMismatch logging.EventType = "network.stream_mismatch"
	// EventRemoteActorRegistered is emitted when a remote peer's actor is
	// created locally.
	EventRemoteActorRegistered logging.EventType = "network.remote_actor_registered"
	// EventStreamSourceRemoved is emitted when a departing peer's actors are
	// torn down.
	EventStreamSourceRemoved logging.EventType = "network.stream_source_removed"
)

func StreamMismatch(ctx context.Context, pub logging.Publisher, frame uint64, sourceID, streamID int32, name string) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStreamMismatch,
		Frame:    frame,
		Actor:    peerRef(sourceID),
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  map[string]any{"streamId": streamID, "name": name},
	})
}

func RemoteActorRegistered(ctx context.Context, pub logging.Publisher, frame uint64, sourceID, streamID int32, slot int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventRemoteActorRegistered,
		Frame:    frame,
		Actor:    peerRef(sourceID),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  map[string]any{"streamId": streamID, "slot": slot},
	})
}

func StreamSourceRemoved(ctx context.Context, pub logging.Publisher, frame uint64, sourceID int32, removed int) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStreamSourceRemoved,
		Frame:    frame,
		Actor:    peerRef(sourceID),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  map[string]int{"removedActors": removed},
	})
}

func peerRef(sourceID int32) logging.EntityRef {
	return logging.EntityRef{ID: strconv.Itoa(int(sourceID)), Kind: logging.EntityKindPeer}
}
