package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xtding233/gacha-sim/internal/stats"
)

var testDBConnString string

func TestMain(m *testing.M) {
	flag.Parse()

	var terminate func()
	if !testing.Short() {
		testDBConnString, terminate = setupContainer(context.Background())
	}

	code := m.Run()

	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

func setupContainer(ctx context.Context) (string, func()) {
	// testcontainers panics when no Docker daemon is reachable
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic in setupContainer: %v\n", r)
		}
	}()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Printf("WARNING: Failed to start postgres container: %v\n", err)
		return "", func() {}
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Printf("WARNING: Failed to get connection string: %v\n", err)
		_ = pgContainer.Terminate(ctx)
		return "", func() {}
	}

	return connStr, func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if testDBConnString == "" {
		t.Skip("Skipping integration test: database not available")
	}
	ctx := context.Background()
	s, err := Open(ctx, testDBConnString)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "DELETE FROM stats")
		_ = s.Close()
	})
	_, err = s.pool.Exec(ctx, "DELETE FROM stats")
	require.NoError(t, err)
	return s
}

func TestStore_EmptyReadsZero(t *testing.T) {
	s := openTestStore(t)
	c, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats.Counters{}, c)
}

func TestStore_Upserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IncrementVisitors(ctx, 1))
	require.NoError(t, s.IncrementVisitors(ctx, 4))
	require.NoError(t, s.AddSpent(ctx, 15))
	require.NoError(t, s.AddSpent(ctx, 34.5))

	c, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.Visitors)
	assert.InDelta(t, 49.5, c.TotalSpent, 1e-9)
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.IncrementVisitors(ctx, 2))

	again, err := Open(ctx, testDBConnString)
	require.NoError(t, err)
	defer again.Close()

	c, err := again.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Visitors)
}

func TestStore_ConcurrentIncrements(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- s.IncrementVisitors(ctx, 1)
		}()
		go func() {
			defer wg.Done()
			errs <- s.AddSpent(ctx, 1.5)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	c, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), c.Visitors)
	assert.InDelta(t, n*1.5, c.TotalSpent, 1e-9)
}
