package ws

import (
	"encoding/json"
	"errors"
	"net/http"

	"chess_arena/internal/logger"
	"chess_arena/internal/room"
	"chess_arena/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HandleWS upgrades GET /ws/rooms/:code and streams state frames.
func HandleWS(hub *Hub, svc *service.ArenaService, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		st, err := svc.State(c.Request.Context(), c.Param("code"))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, room.ErrRoomNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		initial, err := json.Marshal(Message{Type: TypeState, State: &st})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "encode state"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		client := NewClient(st.Code, conn, hub)
		go client.Run(initial)
	}
}
