// Package database opens the stats store selected by configuration.
package database

import (
	"context"
	"fmt"

	"github.com/xtding233/gacha-sim/internal/config"
	"github.com/xtding233/gacha-sim/internal/database/postgres"
	"github.com/xtding233/gacha-sim/internal/database/sqlite"
	"github.com/xtding233/gacha-sim/internal/stats"
)

// OpenStore returns the configured backend with its schema migrated.
func OpenStore(ctx context.Context, cfg *config.Server) (stats.Store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return stats.NewMemoryStore(stats.Counters{}), nil
	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, nil
	case config.StorePostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
