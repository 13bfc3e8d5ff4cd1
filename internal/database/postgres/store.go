// Package postgres provides a PostgreSQL-backed stats store.
package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/xtding233/gacha-sim/internal/database/migrate"
	"github.com/xtding233/gacha-sim/internal/stats"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	defaultMaxConns    = 10
	defaultMinConns    = 1
	defaultMaxConnLife = time.Hour
	defaultMaxConnIdle = 30 * time.Minute
)

// Store persists the global counters in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewPool creates a PostgreSQL connection pool and verifies it with a ping.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	config.MaxConns = defaultMaxConns
	config.MinConns = defaultMinConns
	config.MaxConnLifetime = defaultMaxConnLife
	config.MaxConnIdleTime = defaultMaxConnIdle

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	slog.Default().Info("Successfully connected to database")
	return pool, nil
}

// Open connects, applies embedded migrations and returns the store.
func Open(ctx context.Context, connString string) (*Store, error) {
	pool, err := NewPool(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := applyMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// NewStore wraps an existing pool. The caller is responsible for migrations.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	if err := migrate.Up(ctx, goose.DialectPostgres, db, sub); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Get reads both counters; missing rows read as zero.
func (s *Store) Get(ctx context.Context) (stats.Counters, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT type, count, amount FROM stats WHERE type = ANY($1)`,
		[]string{stats.KeyVisitors, stats.KeyTotalSpent})
	if err != nil {
		return stats.Counters{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var c stats.Counters
	for rows.Next() {
		var (
			typ    string
			count  int64
			amount float64
		)
		if err := rows.Scan(&typ, &count, &amount); err != nil {
			return stats.Counters{}, fmt.Errorf("scan stats: %w", err)
		}
		switch typ {
		case stats.KeyVisitors:
			c.Visitors = count
		case stats.KeyTotalSpent:
			c.TotalSpent = amount
		}
	}
	if err := rows.Err(); err != nil {
		return stats.Counters{}, fmt.Errorf("iterate stats: %w", err)
	}
	return c, nil
}

// IncrementVisitors adds delta to the visitor row in one upsert statement.
func (s *Store) IncrementVisitors(ctx context.Context, delta int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stats (type, count) VALUES ($1, $2)
		 ON CONFLICT (type) DO UPDATE SET count = stats.count + EXCLUDED.count`,
		stats.KeyVisitors, delta)
	if err != nil {
		return fmt.Errorf("increment visitors: %w", err)
	}
	return nil
}

// AddSpent adds amount to the total-spent row in one upsert statement.
func (s *Store) AddSpent(ctx context.Context, amount float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stats (type, amount) VALUES ($1, $2)
		 ON CONFLICT (type) DO UPDATE SET amount = stats.amount + EXCLUDED.amount`,
		stats.KeyTotalSpent, amount)
	if err != nil {
		return fmt.Errorf("add spent: %w", err)
	}
	return nil
}
