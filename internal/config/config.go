package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/xtding233/gacha-sim/internal/logger"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Log holds logger settings shared by every binary.
type Log struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Format      string `env:"LOG_FORMAT" envDefault:"text"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	Version     string `env:"VERSION" envDefault:"dev"`
}

// Logger converts to a logger.Config for the named service.
func (l Log) Logger(service string) logger.Config {
	return logger.Config{
		Level:       l.Level,
		Format:      l.Format,
		ServiceName: service,
		Version:     l.Version,
		Environment: l.Environment,
		AddSource:   l.Environment == "dev",
	}
}

// Server is the stats server configuration.
type Server struct {
	Port        int           `env:"PORT" envDefault:"3001"`
	GRPCPort    int           `env:"GRPC_PORT" envDefault:"3002"`
	Store       string        `env:"STORE" envDefault:"memory"`
	SQLitePath  string        `env:"SQLITE_PATH" envDefault:"data/stats.db"`
	DatabaseURL string        `env:"DATABASE_URL"`
	CORSOrigin  string        `env:"CORS_ORIGIN" envDefault:"*"`
	ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	Log         Log
}

// Simulator is the CLI configuration; flags override these values.
type Simulator struct {
	BoxDir         string        `env:"BOX_DIR" envDefault:"data"`
	StatsURL       string        `env:"STATS_URL"`
	StatsTimeout   time.Duration `env:"STATS_TIMEOUT" envDefault:"5s"`
	CollateLocale  string        `env:"COLLATE_LOCALE" envDefault:"en"`
	ReloadInterval time.Duration `env:"RELOAD_INTERVAL" envDefault:"2s"`
	Log            Log
}

// LoadServer reads .env (if present) and the environment.
func LoadServer() (*Server, error) {
	cfg := &Server{}
	if err := parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSimulator reads .env (if present) and the environment.
func LoadSimulator() (*Simulator, error) {
	cfg := &Simulator{}
	if err := parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(target any) error {
	// .env is optional; real env vars win over it
	_ = godotenv.Load()
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the server settings that env parsing cannot.
func (c *Server) Validate() error {
	var errs []string
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "PORT must be in 1..65535")
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		errs = append(errs, "GRPC_PORT must be in 0..65535 (0 disables gRPC)")
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			errs = append(errs, "SQLITE_PATH is required for STORE=sqlite")
		}
	case StorePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, "DATABASE_URL is required for STORE=postgres")
		}
	default:
		errs = append(errs, "STORE must be one of: memory, sqlite, postgres")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
