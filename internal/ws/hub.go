package ws

import (
	"encoding/json"
	"sync"

	"chess_arena/internal/logger"
	"chess_arena/internal/metrics"
	"chess_arena/internal/room"
)

// Hub fans the polling view out to websocket subscribers of each room.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.rooms[c.Code]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[c.Code] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSClients.Inc()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.rooms[c.Code]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.rooms, c.Code)
	}
	close(c.Send)
	metrics.WSClients.Dec()
}

// Subscribers returns how many clients watch code.
func (h *Hub) Subscribers(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// Publish pushes st to every subscriber of code. Slow clients drop frames;
// they can always fall back to polling.
func (h *Hub) Publish(code string, st room.State) {
	msg, err := json.Marshal(Message{Type: TypeState, State: &st})
	if err != nil {
		logger.Error("ws marshal state", "room", code, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[code] {
		select {
		case c.Send <- msg:
		default:
			logger.Debug("ws subscriber lagging, frame dropped", "room", code)
		}
	}
}
