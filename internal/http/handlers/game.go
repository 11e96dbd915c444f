package handlers

import (
	"net/http"

	"chess_arena/internal/game"
	"chess_arena/internal/room"
	"chess_arena/internal/service"

	"github.com/gin-gonic/gin"
)

type verifyPaymentBody struct {
	RoomCode     string `json:"roomCode" binding:"required"`
	TxSignature  string `json:"txSignature"`
	PlayerWallet string `json:"playerWallet"`
}

// VerifyPayment handles POST /api/payments/verify
func (h *Handler) VerifyPayment(c *gin.Context) {
	var body verifyPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c)
		return
	}

	snap, err := h.Arena.ConfirmPayment(c.Request.Context(), service.ConfirmPaymentRequest{
		Code:      body.RoomCode,
		Reference: body.TxSignature,
		Payer:     body.PlayerWallet,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Waiting for opponent payment"
	if snap.Status == room.StatusPlaying {
		message = "Game starting!"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room": snap, "message": message})
}

type moveBody struct {
	PlayerID *int        `json:"playerId"`
	From     game.Square `json:"from"`
	To       game.Square `json:"to"`
}

// Move handles POST /api/rooms/:code/move
func (h *Handler) Move(c *gin.Context) {
	var body moveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c)
		return
	}
	seat := -1
	if body.PlayerID != nil {
		seat = *body.PlayerID
	}

	res, err := h.Arena.Move(c.Request.Context(), c.Param("code"), service.MoveRequest{
		Seat: seat,
		From: body.From,
		To:   body.To,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type endGameBody struct {
	WinnerID *int `json:"winnerId" binding:"required"`
}

// EndGame handles POST /api/rooms/:code/end, the administrative force-end.
func (h *Handler) EndGame(c *gin.Context) {
	var body endGameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c)
		return
	}

	res, err := h.Arena.ForceEnd(c.Request.Context(), c.Param("code"), *body.WinnerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"winner":        res.Winner,
		"winnerId":      res.WinnerSeat,
		"payout":        res.Payout,
		"payoutTx":      res.PayoutTx,
		"payoutOutcome": res.Outcome,
		"endReason":     res.Reason,
	})
}
