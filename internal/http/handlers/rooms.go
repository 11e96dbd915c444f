package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"chess_arena/internal/service"

	"github.com/gin-gonic/gin"
)

type createRoomBody struct {
	EntryFee      json.Number `json:"entryFee"`
	CreatorName   string      `json:"creatorName"`
	CreatorWallet string      `json:"creatorWallet"`
}

// CreateRoom handles POST /api/rooms
func (h *Handler) CreateRoom(c *gin.Context) {
	var body createRoomBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c)
		return
	}

	snap, err := h.Arena.CreateRoom(c.Request.Context(), service.CreateRoomRequest{
		EntryFee:       body.EntryFee.String(),
		CreatorName:    body.CreatorName,
		CreatorAddress: body.CreatorWallet,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": snap})
}

type joinRoomBody struct {
	PlayerName   string `json:"playerName"`
	PlayerWallet string `json:"playerWallet"`
}

// JoinRoom handles POST /api/rooms/:code/join
func (h *Handler) JoinRoom(c *gin.Context) {
	var body joinRoomBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c)
		return
	}

	snap, err := h.Arena.JoinRoom(c.Request.Context(), c.Param("code"), service.JoinRoomRequest{
		Name:    body.PlayerName,
		Address: body.PlayerWallet,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": snap})
}

// GetRoom handles GET /api/rooms/:code
func (h *Handler) GetRoom(c *gin.Context) {
	snap, err := h.Arena.Room(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": snap})
}

// RoomState handles GET /api/rooms/:code/state, the polling endpoint.
func (h *Handler) RoomState(c *gin.Context) {
	st, err := h.Arena.State(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// RoomPayments handles GET /api/rooms/:code/payments
func (h *Handler) RoomPayments(c *gin.Context) {
	ps, err := h.Arena.Payments(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

type spectateBody struct {
	Wallet string `json:"wallet" binding:"required"`
}

// Spectate handles POST /api/rooms/:code/spectate
func (h *Handler) Spectate(c *gin.Context) {
	var body spectateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c)
		return
	}

	snap, err := h.Arena.Spectate(c.Request.Context(), c.Param("code"), body.Wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": snap})
}

type reactBody struct {
	Wallet string `json:"wallet"`
	Symbol string `json:"symbol" binding:"required"`
}

// React handles POST /api/rooms/:code/react
func (h *Handler) React(c *gin.Context) {
	var body reactBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c)
		return
	}

	if err := h.Arena.React(c.Request.Context(), c.Param("code"), body.Wallet, body.Symbol); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
