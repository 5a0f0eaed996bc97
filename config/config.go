/*
Package config loads engine configuration from an optional YAML file plus
environment overrides.

PURPOSE:
  One Config struct for the whole binary. With CONFIG_PATH set, the YAML
  file is read first and environment variables override it; without it,
  defaults plus environment variables apply. Every knob has a sane
  env-default, so the server runs with zero configuration.

USAGE:
  cfg, err := config.Load()
  if err != nil {
      log.Fatal(err)
  }
  store, err := sqlite.New(cfg.Database.Path)
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/shopspring/decimal"

	"github.com/tribe/loyalty-engine/loyalty"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Program   ProgramConfig   `yaml:"program"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port            int           `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"SERVER_CORS_ORIGINS" env-default:"*"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH" env-default:"./data/loyalty.db"`
}

type ProgramConfig struct {
	WelcomeBonus          int64 `yaml:"welcome_bonus" env:"PROGRAM_WELCOME_BONUS" env-default:"500"`
	BirthdayBonus         int64 `yaml:"birthday_bonus" env:"PROGRAM_BIRTHDAY_BONUS" env-default:"500"`
	DefaultActivityPoints int64 `yaml:"default_activity_points" env:"PROGRAM_DEFAULT_ACTIVITY_POINTS" env-default:"10"`
	RedemptionMinBalance  int64 `yaml:"redemption_min_balance" env:"PROGRAM_REDEMPTION_MIN_BALANCE" env-default:"100"`
	PurchaseFeePercent    int64 `yaml:"purchase_fee_percent" env:"PROGRAM_PURCHASE_FEE_PERCENT" env-default:"10"`
	MaxGiftsPerDay        int   `yaml:"max_gifts_per_day" env:"PROGRAM_MAX_GIFTS_PER_DAY" env-default:"5"`
}

// Rules converts the configured parameters into domain rules.
func (p ProgramConfig) Rules() loyalty.Rules {
	return loyalty.Rules{
		WelcomeBonus:          p.WelcomeBonus,
		BirthdayBonus:         p.BirthdayBonus,
		DefaultActivityPoints: p.DefaultActivityPoints,
		RedemptionMinBalance:  p.RedemptionMinBalance,
		PurchaseFeePercent:    decimal.NewFromInt(p.PurchaseFeePercent),
		MaxGiftsPerDay:        p.MaxGiftsPerDay,
	}
}

type SchedulerConfig struct {
	Enabled            bool          `yaml:"enabled" env:"SCHEDULER_ENABLED" env-default:"true"`
	BonusSweepInterval time.Duration `yaml:"bonus_sweep_interval" env:"SCHEDULER_BONUS_SWEEP_INTERVAL" env-default:"1h"`
	ReconcileInterval  time.Duration `yaml:"reconcile_interval" env:"SCHEDULER_RECONCILE_INTERVAL" env-default:"24h"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"` // text or json
}

// Load reads CONFIG_PATH (when set) and applies environment overrides.
func Load() (*Config, error) {
	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("reading config from environment: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Program.WelcomeBonus < 0 || c.Program.BirthdayBonus < 0 {
		return fmt.Errorf("bonuses cannot be negative")
	}
	if c.Program.DefaultActivityPoints < 0 {
		return fmt.Errorf("default activity points cannot be negative")
	}
	if c.Program.PurchaseFeePercent < 0 || c.Program.PurchaseFeePercent >= 100 {
		return fmt.Errorf("purchase fee percent must be in [0, 100)")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	return nil
}
