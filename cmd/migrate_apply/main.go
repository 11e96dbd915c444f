package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"chess_arena/internal/db"
	"chess_arena/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), false)
	defer logger.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	apply := flag.Bool("apply", false, "apply migration")
	dir := flag.String("dir", filepath.Join("internal", "migrations"), "migrations directory")
	flag.Parse()

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal("connect database", "error", err)
	}
	defer pool.Close()

	files, err := filepath.Glob(filepath.Join(*dir, "*.sql"))
	if err != nil {
		logger.Fatal("read migrations dir", "error", err)
	}
	sort.Strings(files)
	for _, path := range files {
		name := filepath.Base(path)
		if !*apply {
			fmt.Println(name)
			continue
		}
		b, err := os.ReadFile(path)
		if err != nil {
			logger.Fatal("read migration", "file", name, "error", err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			logger.Fatal("apply migration", "file", name, "error", err)
		}
		logger.Info("applied migration", "file", name)
	}
}
