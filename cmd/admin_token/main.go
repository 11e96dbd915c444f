package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"chess_arena/internal/logger"
	"chess_arena/internal/service"

	"github.com/joho/godotenv"
)

// Prints a bearer token accepted by POST /api/rooms/:code/end.
func main() {
	_ = godotenv.Load()
	logger.Init("info", false)
	defer logger.Sync()

	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	tokens := service.NewAdminTokens(os.Getenv("ADMIN_JWT_SECRET"))
	if tokens == nil {
		logger.Fatal("ADMIN_JWT_SECRET not set")
	}
	token, err := tokens.Generate(*subject, *ttl)
	if err != nil {
		logger.Fatal("failed to generate token", "error", err)
	}
	fmt.Println(token)
}
