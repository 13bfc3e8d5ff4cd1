// Package sqlite provides a SQLite-backed stats store.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/xtding233/gacha-sim/internal/database/migrate"
	"github.com/xtding233/gacha-sim/internal/stats"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store persists the global counters in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) a SQLite database and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer at a time keeps upserts serialized
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if err := migrate.Up(ctx, goose.DialectSQLite3, sqlDB, sub); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get reads both counters; missing rows read as zero.
func (s *Store) Get(ctx context.Context) (stats.Counters, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT type, count, amount FROM stats WHERE type IN (?, ?)`,
		stats.KeyVisitors, stats.KeyTotalSpent)
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

// IncrementVisitors adds delta to the visitor row, creating it if absent.
func (s *Store) IncrementVisitors(ctx context.Context, delta int64) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO stats (type, count) VALUES (?, ?)
		 ON CONFLICT(type) DO UPDATE SET count = stats.count + excluded.count`,
		stats.KeyVisitors, delta)
	if err != nil {
		return fmt.Errorf("increment visitors: %w", err)
	}
	return nil
}

// AddSpent adds amount to the total-spent row, creating it if absent.
func (s *Store) AddSpent(ctx context.Context, amount float64) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO stats (type, amount) VALUES (?, ?)
		 ON CONFLICT(type) DO UPDATE SET amount = stats.amount + excluded.amount`,
		stats.KeyTotalSpent, amount)
	if err != nil {
		return fmt.Errorf("add spent: %w", err)
	}
	return nil
}
