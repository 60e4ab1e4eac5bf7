package proto

import (
	"encoding/json"
	"fmt"
)

// Version tracks the wire-protocol revision expected by peers.
const Version = 1

// Inbound and outbound message type identifiers.
const (
	TypeStreamRegister       = "streamRegister"
	TypeStreamRegisterResult = "streamRegisterResult"
	TypeStreamUnregister     = "streamUnregister"
	TypeUserLeave            = "userLeave"
	TypeStreamData           = "streamData"
)

// Register status codes. 1 means the receiving side created the actor; any
// other value is a failure reason.
const (
	StatusOK           int32 = 1
	StatusMissingAsset int32 = -1
	StatusRejected     int32 = -2
)

// Packet is the decoded superset of every reconciliation message. Which
// fields are meaningful depends on Type; payload bytes stay opaque to this
// package.
type Packet struct {
	Ver      int      `json:"ver,omitempty"`
	Type     string   `json:"type"`
	SourceID int32    `json:"sourceId"`
	StreamID int32    `json:"streamId"`
	Name     string   `json:"name,omitempty"`
	Config   []string `json:"config,omitempty"`
	Status   int32    `json:"status,omitempty"`
	Kind     int32    `json:"kind,omitempty"`
	Payload  []byte   `json:"payload,omitempty"`
}

// Decode parses a packet and validates its type tag.
func Decode(data []byte) (Packet, error) {
	var p Packet
	if err := json.Unmarshal(data, &p); err != nil {
		return Packet{}, fmt.Errorf("malformed packet: %w", err)
	}
	switch p.Type {
	case TypeStreamRegister, TypeStreamRegisterResult, TypeStreamUnregister, TypeUserLeave, TypeStreamData:
	case "":
		return Packet{}, fmt.Errorf("packet missing type")
	default:
		return Packet{}, fmt.Errorf("unknown packet type %q", p.Type)
	}
	return p, nil
}

// Encode renders a packet, stamping the protocol version.
func Encode(p Packet) ([]byte, error) {
	p.Ver = Version
	return json.Marshal(p)
}

// RegisterResult builds the reply to a streamRegister attempt.
func RegisterResult(reg Packet, status int32) Packet {
	return Packet{
		Type:     TypeStreamRegisterResult,
		SourceID: reg.SourceID,
		StreamID: reg.StreamID,
		Name:     reg.Name,
		Status:   status,
	}
}

// Unregister builds the notification that a local stream went away.
func Unregister(streamID int32) Packet {
	return Packet{
		Type:     TypeStreamUnregister,
		StreamID: streamID,
	}
}
