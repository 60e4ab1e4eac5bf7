package proto

import "testing"

func TestDecodeValidatesType(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"register", `{"type":"streamRegister","sourceId":4,"streamId":2,"name":"hauler"}`, false},
		{"user leave", `{"type":"userLeave","sourceId":4}`, false},
		{"missing type", `{"sourceId":4}`, true},
		{"unknown type", `{"type":"teleport"}`, true},
		{"malformed", `{"type":`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Decode([]byte(tc.data))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected decode error, got %+v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
		})
	}
}

func TestEncodeStampsVersion(t *testing.T) {
	data, err := Encode(Packet{Type: TypeStreamUnregister, StreamID: 9})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	p, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode round trip: %v", err)
	}
	if p.Ver != Version {
		t.Fatalf("expected ver %d, got %d", Version, p.Ver)
	}
	if p.StreamID != 9 {
		t.Fatalf("expected streamId 9, got %d", p.StreamID)
	}
}

func TestRegisterResultEchoesIdentity(t *testing.T) {
	reg := Packet{Type: TypeStreamRegister, SourceID: 7, StreamID: 3, Name: "dumper"}
	result := RegisterResult(reg, StatusMissingAsset)
	if result.Type != TypeStreamRegisterResult {
		t.Fatalf("unexpected type %q", result.Type)
	}
	if result.SourceID != 7 || result.StreamID != 3 || result.Name != "dumper" {
		t.Fatalf("identity not echoed: %+v", result)
	}
	if result.Status != StatusMissingAsset {
		t.Fatalf("status not carried: %+v", result)
	}
}
