package ws

import (
	"sync"

	"github.com/gorilla/websocket"

	"rigs-and-ruin/sim/internal/net/proto"
)

// Session wraps one peer connection with a write lock, so the frame loop and
// the read loop can both send without interleaving frames.
type Session struct {
	sourceID int32

	mu   sync.Mutex
	conn *websocket.Conn
}

func newSession(sourceID int32, conn *websocket.Conn) *Session {
	return &Session{sourceID: sourceID, conn: conn}
}

// SourceID reports the peer identity announced at connect time.
func (s *Session) SourceID() int32 {
	return s.sourceID
}

// Send encodes and writes one reconciliation packet.
func (s *Session) Send(p proto.Packet) error {
	data, err := proto.Encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame and tears the connection down.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.conn.WriteMessage(websocket.CloseMessage, message)
	return s.conn.Close()
}
