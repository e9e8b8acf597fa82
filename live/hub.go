package live

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
)

// Hub fans scoreboard events out to websocket clients. Clients are grouped
// into rooms, one room per operator, so one operator's updates never reach
// another operator's viewers.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[string]map[*Client]bool
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// RoomForUser names the room all of an operator's viewers share.
func RoomForUser(userID int) string {
	return "board:" + strconv.Itoa(userID)
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.logger.Debug("websocket client registered",
				slog.String("room", client.Room),
				slog.Int("room_size", len(h.rooms[client.Room])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if roomClients, ok := h.rooms[client.Room]; ok {
				if _, inRoom := roomClients[client]; inRoom {
					client.closeSend()
					delete(roomClients, client)
					if len(roomClients) == 0 {
						delete(h.rooms, client.Room)
					}
					h.logger.Debug("websocket client unregistered", slog.String("room", client.Room))
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToUser sends an event to every client watching the given
// operator's board. Slow clients are skipped rather than blocking the hub.
func (h *Hub) BroadcastToUser(userID int, event Event) {
	room := RoomForUser(userID)

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal event",
			slog.String("type", event.Type),
			slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("dropping event for slow client", slog.String("room", room))
		}
		client.mu.Unlock()
	}
}
