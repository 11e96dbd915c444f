package http

import (
	"time"

	"chess_arena/internal/http/handlers"
	"chess_arena/internal/http/middleware"
	"chess_arena/internal/service"
	"chess_arena/internal/ws"

	"github.com/gin-gonic/gin"
)

// Limits are the per-window request budgets.
type Limits struct {
	API        int
	APIWindow  time.Duration
	Move       int
	MoveWindow time.Duration
}

// Deps are the collaborators the router needs.
type Deps struct {
	Arena         *service.ArenaService
	Hub           *ws.Hub
	Limiter       *middleware.Limiter
	Tokens        *service.AdminTokens
	Checks        map[string]handlers.Pinger
	Matches       handlers.MatchHistory
	Limits        Limits
	DevMode       bool
	AllowedOrigin string
	Version       string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := handlers.NewHandler(d.Arena)
	healthHandler := handlers.NewHealthHandler(d.Version, d.Checks)
	matches := handlers.NewMatchesHandler(d.Matches)

	limiter := d.Limiter
	if limiter == nil {
		limiter = middleware.NewLimiter(nil)
	}

	// Health checks (no rate limiting)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	api := r.Group("/api")
	api.Use(limiter.Limit("api", d.Limits.API, d.Limits.APIWindow, middleware.ByIP))

	api.GET("/health", h.Health)
	api.GET("/config", h.Config)
	api.POST("/names", h.SetName)
	api.GET("/matches", matches.Recent)

	// Rooms
	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms/:code", h.GetRoom)
	api.POST("/rooms/:code/join", h.JoinRoom)
	api.GET("/rooms/:code/state", h.RoomState)
	api.GET("/rooms/:code/payments", h.RoomPayments)
	api.POST("/rooms/:code/spectate", h.Spectate)
	api.POST("/rooms/:code/react", h.React)

	// Moves are limited per room and client on top of the API budget
	moveRL := limiter.Limit("move", d.Limits.Move, d.Limits.MoveWindow, middleware.ByRoomAndIP)
	api.POST("/rooms/:code/move", moveRL, h.Move)
	api.POST("/rooms/:code/end", middleware.AdminOnly(d.Tokens, d.DevMode), h.EndGame)

	api.POST("/payments/verify", h.VerifyPayment)

	// Live room feed
	if d.Hub != nil {
		r.GET("/ws/rooms/:code", ws.HandleWS(d.Hub, d.Arena, d.AllowedOrigin))
	}
}
