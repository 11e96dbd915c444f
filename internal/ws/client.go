package ws

import (
	"time"

	"chess_arena/internal/logger"
	"chess_arena/internal/room"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	sendBuffer = 32
)

const (
	TypeState = "state"
)

// Message is the frame sent to subscribers.
type Message struct {
	Type  string      `json:"type"`
	State *room.State `json:"state,omitempty"`
}

// Client is one read-only subscriber of a room.
type Client struct {
	Code string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
}

func NewClient(code string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Code: code,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		Hub:  hub,
	}
}

// Run registers the client and blocks until the connection closes.
func (c *Client) Run(initial []byte) {
	if initial != nil {
		c.Send <- initial
	}
	c.Hub.Register(c)
	go c.writePump()
	c.readPump()
}

//read
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// subscribers never send commands; reads only keep the deadline moving
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "room", c.Code, "error", err)
			}
			return
		}
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "room", c.Code, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
