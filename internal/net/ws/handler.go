package ws

import (
	"log"
	nethttp "net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"rigs-and-ruin/sim/internal/net/intake"
	"rigs-and-ruin/sim/internal/net/proto"
)

type HandlerConfig struct {
	Logger *log.Logger
	// Broadcaster receives the session for outbound fan-out; optional.
	Broadcaster *Broadcaster
	// OnDisconnect is invoked with the peer identity after the read loop
	// exits, so the owner can stage a departure for the source.
	OnDisconnect func(sourceID int32)
}

// Handler upgrades peer connections and pumps their packets into the intake
// queue. It never touches the manager directly; the frame loop drains the
// queue on its own schedule.
type Handler struct {
	queue        *intake.Queue
	logger       *log.Logger
	broadcaster  *Broadcaster
	onDisconnect func(sourceID int32)
	upgrader     websocket.Upgrader
}

func NewHandler(queue *intake.Queue, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		queue:        queue,
		logger:       logger,
		broadcaster:  cfg.Broadcaster,
		onDisconnect: cfg.OnDisconnect,
		upgrader:     upgrader,
	}
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	raw := r.URL.Query().Get("source")
	if raw == "" {
		nethttp.Error(w, "missing source", nethttp.StatusBadRequest)
		return
	}
	source, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || source <= 0 {
		nethttp.Error(w, "invalid source", nethttp.StatusBadRequest)
		return
	}
	sourceID := int32(source)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed for source %d: %v", sourceID, err)
		return
	}

	session := newSession(sourceID, conn)
	if h.broadcaster != nil {
		h.broadcaster.add(session)
	}
	defer func() {
		if h.broadcaster != nil {
			h.broadcaster.remove(session)
		}
		conn.Close()
		if h.onDisconnect != nil {
			h.onDisconnect(sourceID)
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		packet, err := proto.Decode(payload)
		if err != nil {
			h.logger.Printf("discarding malformed packet from source %d: %v", sourceID, err)
			continue
		}

		// The connection identity is authoritative; peers cannot speak for
		// each other.
		packet.SourceID = sourceID

		if !h.queue.Push(packet) {
			h.logger.Printf("intake full, dropping %s from source %d", packet.Type, sourceID)
		}
	}
}
