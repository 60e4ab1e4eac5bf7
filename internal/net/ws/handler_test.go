package ws

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"rigs-and-ruin/sim/internal/net/intake"
	"rigs-and-ruin/sim/internal/net/proto"
)

func websocketURL(t *testing.T, baseURL string, source string) string {
	t.Helper()

	parsed, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("failed to parse test server url: %v", err)
	}
	parsed.Scheme = "ws"
	parsed.Path = "/"
	query := parsed.Query()
	if source != "" {
		query.Set("source", source)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func dial(t *testing.T, rawURL string) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func waitForPackets(t *testing.T, queue *intake.Queue, want int) []proto.Packet {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if queue.Len() >= want {
			return queue.Drain()
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d packets, have %d", want, queue.Len())
	return nil
}

func TestHandleStagesInboundPackets(t *testing.T) {
	queue := intake.NewQueue(16, nil)
	handler := NewHandler(queue, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, websocketURL(t, srv.URL, "7"))

	data, err := proto.Encode(proto.Packet{
		Type:     proto.TypeStreamRegister,
		StreamID: 3,
		Name:     "semi",
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	packets := waitForPackets(t, queue, 1)
	if len(packets) != 1 {
		t.Fatalf("expected 1 staged packet, got %d", len(packets))
	}
	p := packets[0]
	if p.Type != proto.TypeStreamRegister || p.StreamID != 3 || p.Name != "semi" {
		t.Fatalf("unexpected staged packet %+v", p)
	}
	if p.SourceID != 7 {
		t.Fatalf("connection identity must stamp the packet, got source %d", p.SourceID)
	}
}

func TestHandleOverridesSpoofedSource(t *testing.T) {
	queue := intake.NewQueue(16, nil)
	handler := NewHandler(queue, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, websocketURL(t, srv.URL, "7"))

	data, err := proto.Encode(proto.Packet{
		Type:     proto.TypeStreamData,
		SourceID: 99,
		StreamID: 1,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	packets := waitForPackets(t, queue, 1)
	if packets[0].SourceID != 7 {
		t.Fatalf("spoofed source survived, got %d", packets[0].SourceID)
	}
}

func TestHandleRejectsMissingSource(t *testing.T) {
	queue := intake.NewQueue(16, nil)
	handler := NewHandler(queue, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	if _, resp, err := websocket.DefaultDialer.Dial(websocketURL(t, srv.URL, ""), nil); err == nil {
		resp.Body.Close()
		t.Fatalf("expected the dial to fail without a source")
	} else if resp != nil {
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestHandleSkipsMalformedPackets(t *testing.T) {
	queue := intake.NewQueue(16, nil)
	handler := NewHandler(queue, HandlerConfig{})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, websocketURL(t, srv.URL, "7"))

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write malformed: %v", err)
	}
	data, err := proto.Encode(proto.Packet{Type: proto.TypeUserLeave})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}

	packets := waitForPackets(t, queue, 1)
	if len(packets) != 1 || packets[0].Type != proto.TypeUserLeave {
		t.Fatalf("expected only the valid packet, got %+v", packets)
	}
}

func TestDisconnectNotifiesOwner(t *testing.T) {
	queue := intake.NewQueue(16, nil)
	broadcaster := NewBroadcaster()
	departed := make(chan int32, 1)
	handler := NewHandler(queue, HandlerConfig{
		Broadcaster:  broadcaster,
		OnDisconnect: func(sourceID int32) { departed <- sourceID },
	})
	srv := httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(srv.Close)

	conn := dial(t, websocketURL(t, srv.URL, "7"))

	deadline := time.Now().Add(2 * time.Second)
	for broadcaster.Sessions() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if broadcaster.Sessions() != 1 {
		t.Fatalf("session never registered with the broadcaster")
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	select {
	case source := <-departed:
		if source != 7 {
			t.Fatalf("expected departure of source 7, got %d", source)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("owner never notified of the disconnect")
	}
}
