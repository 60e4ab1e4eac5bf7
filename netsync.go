package sim

import (
	"context"

	"rigs-and-ruin/sim/internal/net/proto"
	"rigs-and-ruin/sim/logging/network"
)

func unregisterPacket(streamID int32) proto.Packet {
	return proto.Unregister(streamID)
}

// HandleStreamData processes a frame's worth of inbound reconciliation
// packets. Called by the controlling thread from the frame loop, after the
// transport has staged them; never concurrently with a physics pass.
func (m *Manager) HandleStreamData(packets []proto.Packet) {
	for _, p := range packets {
		switch p.Type {
		case proto.TypeStreamRegister:
			status := m.registerRemote(p)
			if m.cfg.Wire != nil {
				if err := m.cfg.Wire.Send(proto.RegisterResult(p, status)); err != nil {
					m.logger.Printf("failed to answer stream register %d:%d: %v", p.SourceID, p.StreamID, err)
				}
			}

		case proto.TypeStreamRegisterResult:
			m.recordRegisterResult(p)

		case proto.TypeStreamUnregister:
			if a := m.ActorByNetworkLinks(p.SourceID, p.StreamID); a != nil {
				m.deleteActor(a)
			}
			if pending, ok := m.streamMismatches[p.SourceID]; ok {
				delete(pending, p.StreamID)
				if len(pending) == 0 {
					delete(m.streamMismatches, p.SourceID)
				}
			}

		case proto.TypeUserLeave:
			m.RemoveStreamSource(p.SourceID)

		default:
			for _, a := range m.reg.live() {
				if a != nil && a.State == StateNetworked {
					a.Core.ApplyStreamData(p.Kind, p.SourceID, p.StreamID, p.Payload)
				}
			}
		}
	}
}

// registerRemote attempts to mirror a remote peer's actor locally and
// returns the status code for the register reply.
func (m *Manager) registerRemote(p proto.Packet) int32 {
	if m.cfg.Builder == nil || !m.cfg.Builder.HasAsset(p.Name) {
		m.AddStreamMismatch(p.SourceID, p.StreamID)
		network.StreamMismatch(context.Background(), m.events, m.frames, p.SourceID, p.StreamID, p.Name)
		m.logger.Printf("won't mirror stream %d:%d, asset %q not installed", p.SourceID, p.StreamID, p.Name)
		return proto.StatusMissingAsset
	}

	actor, err := m.CreateActor(SpawnRequest{
		Descriptor: p.Name,
		Config:     p.Config,
		Networked:  true,
		SourceID:   p.SourceID,
		StreamID:   p.StreamID,
	})
	if err != nil {
		m.logger.Printf("failed to mirror stream %d:%d: %v", p.SourceID, p.StreamID, err)
		return proto.StatusRejected
	}

	network.RemoteActorRegistered(context.Background(), m.events, m.frames, p.SourceID, p.StreamID, actor.Slot)
	return proto.StatusOK
}

// recordRegisterResult stores a peer's register verdict on the local actor
// owning the stream.
func (m *Manager) recordRegisterResult(p proto.Packet) {
	for _, a := range m.reg.live() {
		if a == nil || a.State == StateNetworked {
			continue
		}
		if a.NetStreamID != p.StreamID {
			continue
		}
		a.StreamResults[p.SourceID] = p.Status
		if p.Status == proto.StatusOK {
			m.logger.Printf("peer %d loaded stream %d (%q)", p.SourceID, p.StreamID, p.Name)
		} else {
			m.logger.Printf("peer %d could not load stream %d (%q), status %d", p.SourceID, p.StreamID, p.Name, p.Status)
		}
		return
	}
}

// RemoveStreamSource tears down everything belonging to a departed peer:
// its mismatch bookkeeping and every networked actor it was driving.
func (m *Manager) RemoveStreamSource(sourceID int32) {
	delete(m.streamMismatches, sourceID)
	delete(m.netTimeOffsets, sourceID)

	removed := 0
	for _, a := range m.reg.live() {
		if a == nil || a.State != StateNetworked {
			continue
		}
		if a.NetSourceID == sourceID {
			m.deleteActor(a)
			removed++
		}
	}
	network.StreamSourceRemoved(context.Background(), m.events, m.frames, sourceID, removed)
}

// AddStreamMismatch records a stream the source announced but this instance
// could not create an actor for.
func (m *Manager) AddStreamMismatch(sourceID, streamID int32) {
	pending, ok := m.streamMismatches[sourceID]
	if !ok {
		pending = make(map[int32]struct{})
		m.streamMismatches[sourceID] = pending
	}
	pending[streamID] = struct{}{}
}

// CheckStreamsOK reports whether this instance fully mirrors a source:
// 0 = mismatches pending, 1 = at least one networked actor exists for the
// source, 2 = nothing known about the source.
func (m *Manager) CheckStreamsOK(sourceID int32) int {
	if len(m.streamMismatches[sourceID]) > 0 {
		return 0
	}
	for _, a := range m.reg.live() {
		if a != nil && a.State == StateNetworked && a.NetSourceID == sourceID {
			return 1
		}
	}
	return 2
}

// CheckRemoteStreamsOK reports how a remote source received our local
// streams: 0 = a registration failed, 1 = at least one succeeded,
// 2 = no verdicts yet.
func (m *Manager) CheckRemoteStreamsOK(sourceID int32) int {
	result := 2
	for _, a := range m.reg.live() {
		if a == nil || a.State == StateNetworked {
			continue
		}
		switch a.StreamResults[sourceID] {
		case proto.StatusMissingAsset, proto.StatusRejected:
			return 0
		case proto.StatusOK:
			result = 1
		}
	}
	return result
}

// NetTime reports the milliseconds elapsed since the manager started, the
// session reference for stream timestamps.
func (m *Manager) NetTime() int64 {
	return m.clock.Now().Sub(m.netEpoch).Milliseconds()
}

// NetTimeOffset reports the recorded clock offset for a source.
func (m *Manager) NetTimeOffset(sourceID int32) int32 {
	return m.netTimeOffsets[sourceID]
}

// UpdateNetTimeOffset records a source's clock offset once; later updates
// for the same source are ignored until it departs.
func (m *Manager) UpdateNetTimeOffset(sourceID int32, offset int32) {
	if _, ok := m.netTimeOffsets[sourceID]; !ok {
		m.netTimeOffsets[sourceID] = offset
	}
}
