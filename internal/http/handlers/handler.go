package handlers

import (
	"errors"
	"net/http"

	"chess_arena/internal/logger"
	"chess_arena/internal/room"
	"chess_arena/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Arena *service.ArenaService
}

func NewHandler(arena *service.ArenaService) *Handler {
	return &Handler{Arena: arena}
}

var kindStatus = map[room.Kind]int{
	room.KindNotFound:            http.StatusNotFound,
	room.KindInvalidState:        http.StatusConflict,
	room.KindUnauthorized:        http.StatusForbidden,
	room.KindAlreadyProcessed:    http.StatusConflict,
	room.KindCollaboratorFailure: http.StatusBadGateway,
	room.KindValidation:          http.StatusBadRequest,
}

// StatusFor maps an operation error to the HTTP status returned for it.
func StatusFor(err error) int {
	if status, ok := kindStatus[room.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes {"error", "kind", "code"} for room errors and a
// generic 500 for anything else.
func respondError(c *gin.Context, err error) {
	var e *room.Error
	if !errors.As(err, &e) {
		logger.WithContext(c.Request.Context()).Errorw("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if e.Kind == room.KindCollaboratorFailure {
		logger.WithContext(c.Request.Context()).Warnw("collaborator failure", "code", e.Code, "error", err)
	}
	c.JSON(StatusFor(err), gin.H{
		"error": e.Message,
		"kind":  e.Kind,
		"code":  e.Code,
	})
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "kind": room.KindValidation, "code": "invalid_request"})
}
