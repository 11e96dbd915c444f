package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type setNameBody struct {
	Wallet string `json:"wallet" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

// SetName handles POST /api/names
func (h *Handler) SetName(c *gin.Context) {
	var body setNameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c)
		return
	}
	if err := h.Arena.SetName(c.Request.Context(), body.Wallet, body.Name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Config handles GET /api/config
func (h *Handler) Config(c *gin.Context) {
	c.JSON(http.StatusOK, h.Arena.Config())
}

// Health handles GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.Arena.Health())
}
