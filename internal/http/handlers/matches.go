package handlers

import (
	"context"
	"net/http"
	"strconv"

	"chess_arena/internal/domain"
	"chess_arena/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	defaultRecentMatches = 20
	maxRecentMatches     = 100
)

// MatchHistory reads settled matches back from the archive.
type MatchHistory interface {
	GetRecent(ctx context.Context, limit int) ([]*domain.MatchRecord, error)
}

type MatchesHandler struct {
	history MatchHistory
}

func NewMatchesHandler(history MatchHistory) *MatchesHandler {
	return &MatchesHandler{history: history}
}

// Recent handles GET /api/matches?limit=N
func (h *MatchesHandler) Recent(c *gin.Context) {
	limit := defaultRecentMatches
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c)
			return
		}
		limit = min(n, maxRecentMatches)
	}

	// no archive configured
	if h.history == nil {
		c.JSON(http.StatusOK, gin.H{"matches": []*domain.MatchRecord{}})
		return
	}

	matches, err := h.history.GetRecent(c.Request.Context(), limit)
	if err != nil {
		logger.WithContext(c.Request.Context()).Errorw("load recent matches", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if matches == nil {
		matches = []*domain.MatchRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
