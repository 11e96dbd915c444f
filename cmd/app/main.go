package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chess_arena/internal/config"
	"chess_arena/internal/db"
	httpServer "chess_arena/internal/http"
	"chess_arena/internal/http/handlers"
	"chess_arena/internal/http/middleware"
	"chess_arena/internal/identity"
	"chess_arena/internal/ledger"
	"chess_arena/internal/logger"
	"chess_arena/internal/repository"
	"chess_arena/internal/room"
	"chess_arena/internal/service"
	"chess_arena/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	defer logger.Sync()

	ctx := context.Background()

	// Platform wallet
	var wallet ledger.Ledger
	if cfg.WalletPrivateKey != "" {
		endpoint := cfg.SolanaRPC
		if endpoint == "" {
			endpoint = ledger.EndpointFor(cfg.SolanaNetwork)
		}
		sol, err := ledger.NewSolana(endpoint, cfg.WalletPrivateKey, cfg.USDCMint, cfg.LedgerTimeout)
		if err != nil {
			logger.Fatal("load platform wallet", "error", err)
		}
		wallet = sol
		logger.Info("platform wallet loaded", "address", sol.Address(), "network", cfg.SolanaNetwork)
	}

	// Redis backs rate limits and display names when configured
	rdb := middleware.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	var names identity.Directory = identity.NewMemory()
	if rdb != nil {
		names = identity.NewRedis(rdb)
		defer rdb.Close()
	}

	// Match archive is optional
	var archive room.Archive
	var history handlers.MatchHistory
	checks := map[string]handlers.Pinger{}
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("connect database", "error", err)
		}
		defer pool.Close()
		repo := repository.NewMatchRepository(pool)
		archive = repo
		history = repo
		checks["database"] = repo
	}
	if rdb != nil {
		checks["redis"] = redisPinger{rdb}
	}

	lo, hi, _ := cfg.EntryFeeBounds()
	rules := service.Rules{
		Commission: decimal.NewFromFloat(cfg.CommissionRate),
		StartTime:  cfg.StartTime(),
		DefaultFee: decimal.NewFromInt(5),
		MinFee:     lo,
		MaxFee:     hi,
		USDCMint:   cfg.USDCMint,
		Decimals:   cfg.USDCDecimals,
	}

	hub := ws.NewHub()
	arena := service.NewArenaService(wallet, names, archive, rules, service.WithNotifier(hub))

	if !cfg.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.CORS(cfg.AllowedOrigin))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, httpServer.Deps{
		Arena:   arena,
		Hub:     hub,
		Limiter: middleware.NewLimiter(rdb),
		Tokens:  service.NewAdminTokens(cfg.AdminJWTSecret),
		Checks:  checks,
		Matches: history,
		Limits: httpServer.Limits{
			API:        cfg.APIRateLimit,
			APIWindow:  cfg.APIRateWindow,
			Move:       cfg.MoveRateLimit,
			MoveWindow: cfg.MoveRateWindow,
		},
		DevMode:       cfg.DevMode,
		AllowedOrigin: cfg.AllowedOrigin,
		Version:       version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
