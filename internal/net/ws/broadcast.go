package ws

import (
	"sync"

	"rigs-and-ruin/sim/internal/net/proto"
)

// Broadcaster fans outbound packets to every connected session. It satisfies
// the manager's wire dependency, which only needs Send.
type Broadcaster struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{sessions: make(map[*Session]struct{})}
}

func (b *Broadcaster) add(s *Session) {
	b.mu.Lock()
	b.sessions[s] = struct{}{}
	b.mu.Unlock()
}

func (b *Broadcaster) remove(s *Session) {
	b.mu.Lock()
	delete(b.sessions, s)
	b.mu.Unlock()
}

// Sessions reports the number of connected peers.
func (b *Broadcaster) Sessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Send writes the packet to every session. The first error is returned after
// every session has been attempted; a slow or broken peer must not starve the
// others.
func (b *Broadcaster) Send(p proto.Packet) error {
	b.mu.Lock()
	targets := make([]*Session, 0, len(b.sessions))
	for s := range b.sessions {
		targets = append(targets, s)
	}
	b.mu.Unlock()

	var firstErr error
	for _, s := range targets {
		if err := s.Send(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
