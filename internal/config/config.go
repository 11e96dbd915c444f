package config

import (
	"errors"
	"fmt"
	"time"

	"chess_arena/internal/logger"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
	DevMode  bool   `env:"DEV_MODE" envDefault:"false"`

	// Ledger
	SolanaNetwork    string        `env:"SOLANA_NETWORK" envDefault:"mainnet-beta"`
	SolanaRPC        string        `env:"SOLANA_RPC"`
	WalletPrivateKey string        `env:"WALLET_PRIVATE_KEY"`
	USDCMint         string        `env:"USDC_MINT" envDefault:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`
	USDCDecimals     int32         `env:"USDC_DECIMALS" envDefault:"6"`
	LedgerTimeout    time.Duration `env:"LEDGER_TIMEOUT" envDefault:"30s"`

	// Match rules
	CommissionRate float64 `env:"COMMISSION_RATE" envDefault:"0.10"`
	StartTimeMs    int64   `env:"START_TIME_MS" envDefault:"600000"`
	MinEntryFee    string  `env:"MIN_ENTRY_FEE" envDefault:"0.01"`
	MaxEntryFee    string  `env:"MAX_ENTRY_FEE" envDefault:"10000"`

	// Storage
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	DatabaseURL   string `env:"DATABASE_URL"`

	// HTTP
	AdminJWTSecret  string        `env:"ADMIN_JWT_SECRET"`
	AllowedOrigin   string        `env:"ALLOWED_ORIGIN"`
	APIRateLimit    int           `env:"API_RATE_LIMIT" envDefault:"120"`
	APIRateWindow   time.Duration `env:"API_RATE_WINDOW" envDefault:"1m"`
	MoveRateLimit   int           `env:"MOVE_RATE_LIMIT" envDefault:"60"`
	MoveRateWindow  time.Duration `env:"MOVE_RATE_WINDOW" envDefault:"1m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// StartTime is the per-side clock budget.
func (c *Config) StartTime() time.Duration {
	return time.Duration(c.StartTimeMs) * time.Millisecond
}

// EntryFeeBounds returns the parsed MIN_ENTRY_FEE / MAX_ENTRY_FEE pair.
func (c *Config) EntryFeeBounds() (decimal.Decimal, decimal.Decimal, error) {
	lo, err := decimal.NewFromString(c.MinEntryFee)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("MIN_ENTRY_FEE: %w", err)
	}
	hi, err := decimal.NewFromString(c.MaxEntryFee)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("MAX_ENTRY_FEE: %w", err)
	}
	return lo, hi, nil
}

// Validate checks cross-field constraints that env tags cannot express.
func (c *Config) Validate() error {
	if c.CommissionRate < 0 || c.CommissionRate >= 1 {
		return errors.New("COMMISSION_RATE must be in [0, 1)")
	}
	if c.StartTimeMs <= 0 {
		return errors.New("START_TIME_MS must be positive")
	}
	if c.USDCDecimals < 0 || c.USDCDecimals > 18 {
		return errors.New("USDC_DECIMALS out of range")
	}
	lo, hi, err := c.EntryFeeBounds()
	if err != nil {
		return err
	}
	if !lo.IsPositive() || lo.GreaterThan(hi) {
		return errors.New("entry fee bounds must satisfy 0 < MIN_ENTRY_FEE <= MAX_ENTRY_FEE")
	}
	return nil
}

// Parse reads configuration from the environment without touching .env files.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := Parse()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	if cfg.WalletPrivateKey == "" {
		logger.Warn("WALLET_PRIVATE_KEY is not set; rooms cannot be created and payouts are disabled")
	}
	return cfg
}
