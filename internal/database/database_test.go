package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-sim/internal/config"
	"github.com/xtding233/gacha-sim/internal/database/sqlite"
	"github.com/xtding233/gacha-sim/internal/stats"
)

func TestOpenStoreMemory(t *testing.T) {
	s, err := OpenStore(context.Background(), &config.Server{Store: config.StoreMemory})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &stats.MemoryStore{}, s)
}

func TestOpenStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	s, err := OpenStore(context.Background(), &config.Server{Store: config.StoreSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &sqlite.Store{}, s)
}

func TestOpenStoreUnknown(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Server{Store: "redis"})
	assert.ErrorContains(t, err, "unknown store")
}
