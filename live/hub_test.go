package live

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func register(t *testing.T, hub *Hub, room string) *Client {
	t.Helper()
	client := NewClient(hub, nil, room, testLogger())
	hub.Register <- client

	// Registration is handled by the hub goroutine; wait until the client is
	// actually in the room before broadcasting at it.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		_, ok := hub.rooms[room][client]
		hub.mu.RUnlock()
		if ok {
			return client
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("client never registered")
	return nil
}

func receive(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case payload := <-client.send:
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcastReachesOnlyOwnRoom(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	viewer := register(t, hub, RoomForUser(10))
	other := register(t, hub, RoomForUser(11))

	hub.BroadcastToUser(10, Event{Type: EventScoreUpdated})

	event := receive(t, viewer)
	if event.Type != EventScoreUpdated {
		t.Fatalf("expected %s, got %s", EventScoreUpdated, event.Type)
	}

	select {
	case frame := <-other.send:
		t.Fatalf("other room received frame: %s", frame)
	default:
	}
}

func TestBroadcastToEmptyRoomIsNoOp(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	// Must not panic or block.
	hub.BroadcastToUser(42, Event{Type: EventTimesUp})
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(testLogger())
	go hub.Run()

	client := register(t, hub, RoomForUser(10))
	hub.Unregister <- client

	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("expected closed channel, got frame")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}
