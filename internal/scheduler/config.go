package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/solpyre/solpyre/internal/config"
)

// Config is the scheduler process configuration. The per-tick knobs
// (worker cap, retry ceiling, retry delay, kill-switch) live in the
// database and are re-read every tick; everything here is fixed at startup.
type Config struct {
	MasterKey       string        `env:"MASTER_KEY,required"`
	RPCURL          string        `env:"SOLANA_RPC_URL,default=https://api.mainnet-beta.solana.com"`
	TickInterval    time.Duration `env:"SCHEDULER_TICK_INTERVAL,default=1s"`
	BackoffInterval time.Duration `env:"SCHEDULER_BACKOFF_INTERVAL,default=5s"`
	InFlightWindow  time.Duration `env:"SCHEDULER_INFLIGHT_WINDOW,default=5m"`
	ConfirmTimeout  time.Duration `env:"CHAIN_CONFIRM_TIMEOUT,default=60s"`
}

// to help with testing
var envProcess = envconfig.Process

func LoadConfigFromEnv(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.TickInterval <= 0 {
		return fmt.Errorf("SCHEDULER_TICK_INTERVAL must be positive")
	}
	if cfg.BackoffInterval <= 0 {
		return fmt.Errorf("SCHEDULER_BACKOFF_INTERVAL must be positive")
	}
	if cfg.InFlightWindow <= 0 {
		return fmt.Errorf("SCHEDULER_INFLIGHT_WINDOW must be positive")
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = config.DefaultConfirmTimeout
	}
	return nil
}
