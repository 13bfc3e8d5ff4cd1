package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-sim/internal/stats"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "stats.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	assert.Error(t, err)
}

func TestStoreUpserts(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	c, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.Counters{}, c, "fresh store reads zero")

	require.NoError(t, s.IncrementVisitors(ctx, 1))
	require.NoError(t, s.IncrementVisitors(ctx, 1))
	require.NoError(t, s.AddSpent(ctx, 15))
	require.NoError(t, s.AddSpent(ctx, 57.5))
	require.NoError(t, s.IncrementVisitors(ctx, -1))

	c, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Visitors)
	assert.InDelta(t, 72.5, c.TotalSpent, 1e-9)
}

func TestStoreReopenKeepsCounters(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.IncrementVisitors(ctx, 7))
	require.NoError(t, s.Close())

	again, err := Open(ctx, path)
	require.NoError(t, err)
	defer again.Close()

	c, err := again.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.Visitors)
}

func TestStoreConcurrentIncrements(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	const n = 100
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
			errs <- s.AddSpent(ctx, 0.25)
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
	assert.InDelta(t, n*0.25, c.TotalSpent, 1e-9)
}

func TestServiceOverSQLite(t *testing.T) {
	s, _ := openTestStore(t)
	svc := stats.NewService(s)

	c, err := svc.Record(context.Background(), stats.Event{Type: stats.EventSpent, Amount: 34.5})
	require.NoError(t, err)
	assert.InDelta(t, 34.5, c.TotalSpent, 1e-9)
}
