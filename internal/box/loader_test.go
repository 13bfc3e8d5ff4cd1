package box

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-sim/internal/pricing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestLoader(t *testing.T) (*Loader, string) {
	t.Helper()
	dir := t.TempDir()
	l, err := NewLoader(dir, 4)
	require.NoError(t, err)
	return l, dir
}

func TestLoadMergesDefaultsLegacyAndYAML(t *testing.T) {
	l, dir := newTestLoader(t)
	writeFile(t, filepath.Join(dir, "defaults.yaml"), "unit_price: 2\ncosts:\n  1: 2\n  10: 19\nbatches: [1, 10]\n")
	boxDir := filepath.Join(dir, "boxes", "spring")
	writeFile(t, filepath.Join(boxDir, "items.txt"), "10%\tAlpha\n5%\tBeta\n")
	writeFile(t, filepath.Join(boxDir, "costs.txt"), "10: 18\n45: 80\n")
	writeFile(t, filepath.Join(boxDir, "title.txt"), "Legacy Title\n")
	writeFile(t, filepath.Join(boxDir, "box.yaml"), "title: Spring Box\ncosts:\n  10: 17\nbatches: [10, 45]\n")

	b, err := l.Load("spring")
	require.NoError(t, err)

	assert.Equal(t, "spring", b.ID)
	assert.Equal(t, "Spring Box", b.Title)
	assert.False(t, b.Retired)
	assert.Equal(t, map[int]float64{1: 2, 10: 17, 45: 80}, b.Schedule.Prices)
	assert.InDelta(t, 2.0, b.Schedule.Unit(), 1e-9)
	assert.Equal(t, []int{10, 45}, b.Batches)
	assert.Len(t, b.Table(), 2)
	assert.True(t, b.Allows(45))
	assert.False(t, b.Allows(1))
}

func TestLoadLegacyOnly(t *testing.T) {
	l, dir := newTestLoader(t)
	boxDir := filepath.Join(dir, "boxes", "old-style")
	writeFile(t, filepath.Join(boxDir, "items.txt"), "1%\tOnly\n")
	writeFile(t, filepath.Join(boxDir, "batches.txt"), "1\n11\n")

	b, err := l.Load("old-style")
	require.NoError(t, err)
	assert.Equal(t, "old-style", b.DisplayTitle())
	assert.Equal(t, []int{1, 11}, b.Batches)
	assert.InDelta(t, pricing.DefaultUnitPrice*11, b.Schedule.Cost(11), 1e-9)
}

func TestLoadRetiredAndShadowing(t *testing.T) {
	l, dir := newTestLoader(t)
	writeFile(t, filepath.Join(dir, "old_boxes", "winter", "items.txt"), "1%\tSnow\n")
	writeFile(t, filepath.Join(dir, "old_boxes", "dup", "items.txt"), "1%\tOld\n")
	writeFile(t, filepath.Join(dir, "boxes", "dup", "items.txt"), "1%\tNew\n")

	b, err := l.Load("winter")
	require.NoError(t, err)
	assert.True(t, b.Retired)

	b, err = l.Load("dup")
	require.NoError(t, err)
	assert.False(t, b.Retired)
	assert.Equal(t, "New", b.Table()[0].Item)
}

func TestLoadNotFound(t *testing.T) {
	l, _ := newTestLoader(t)
	for _, id := range []string{"missing", "", "..", "../etc", `a\b`} {
		_, err := l.Load(id)
		assert.True(t, errors.Is(err, ErrBoxNotFound), "id %q: %v", id, err)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	l, dir := newTestLoader(t)
	boxDir := filepath.Join(dir, "boxes", "broken")
	writeFile(t, filepath.Join(boxDir, "items.txt"), "1%\tX\n")
	writeFile(t, filepath.Join(boxDir, "box.yaml"), "unit_price: -1\ncosts:\n  0: 5\nbatches: [0]\n")

	_, err := l.Load("broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unit_price")
	assert.Contains(t, err.Error(), "costs[0]")
	assert.Contains(t, err.Error(), "batches[0]")
}

func TestLoadBadYAML(t *testing.T) {
	l, dir := newTestLoader(t)
	boxDir := filepath.Join(dir, "boxes", "bad")
	writeFile(t, filepath.Join(boxDir, "items.txt"), "1%\tX\n")
	writeFile(t, filepath.Join(boxDir, "box.yaml"), "costs: [unterminated\n")

	_, err := l.Load("bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "box.yaml")
}

func TestLoaderCacheAndInvalidate(t *testing.T) {
	l, dir := newTestLoader(t)
	items := filepath.Join(dir, "boxes", "b1", "items.txt")
	writeFile(t, items, "1%\tFirst\n")

	b, err := l.Load("b1")
	require.NoError(t, err)
	assert.Equal(t, "First", b.Table()[0].Item)

	writeFile(t, items, "1%\tSecond\n")
	b, err = l.Load("b1")
	require.NoError(t, err)
	assert.Equal(t, "First", b.Table()[0].Item, "served from cache")

	l.Invalidate()
	b, err = l.Load("b1")
	require.NoError(t, err)
	assert.Equal(t, "Second", b.Table()[0].Item)
}

func TestList(t *testing.T) {
	l, dir := newTestLoader(t)
	writeFile(t, filepath.Join(dir, "boxes", "zeta", "items.txt"), "")
	writeFile(t, filepath.Join(dir, "boxes", "alpha", "items.txt"), "")
	writeFile(t, filepath.Join(dir, "boxes", "no-items", "title.txt"), "x")
	writeFile(t, filepath.Join(dir, "boxes", "stray.txt"), "x")
	writeFile(t, filepath.Join(dir, "old_boxes", "gone", "items.txt"), "")

	listing, err := l.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, listing.Active)
	assert.Equal(t, []string{"gone"}, listing.Retired)
}

func TestListEmptyDir(t *testing.T) {
	l, _ := newTestLoader(t)
	listing, err := l.List()
	require.NoError(t, err)
	assert.Empty(t, listing.Active)
	assert.Empty(t, listing.Retired)
}

func TestMergeRaw(t *testing.T) {
	p := 3.0
	a := RawConfig{Title: "A", Costs: map[int]float64{1: 1, 2: 2}, Batches: []int{1, 2}}
	b := RawConfig{UnitPrice: &p, Costs: map[int]float64{2: 5}, Notes: "n"}
	out := mergeRaw(a, b)

	assert.Equal(t, "A", out.Title)
	assert.Equal(t, "n", out.Notes)
	assert.Equal(t, map[int]float64{1: 1, 2: 5}, out.Costs)
	assert.Equal(t, []int{1, 2}, out.Batches)
	require.NotNil(t, out.UnitPrice)
	assert.Equal(t, 3.0, *out.UnitPrice)
	assert.Equal(t, map[int]float64{1: 1, 2: 2}, a.Costs, "inputs are not mutated")
}

func TestWatcherDetectsChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.txt")
	writeFile(t, path, "1%\tA\n")

	changed := make(chan string, 8)
	w := NewWatcher(func() []string { return []string{path} }, 10*time.Millisecond, func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case p := <-changed:
		assert.Equal(t, path, p)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the change")
	}
	w.Stop()
}

func TestWatchLoaderInvalidates(t *testing.T) {
	l, dir := newTestLoader(t)
	items := filepath.Join(dir, "boxes", "hot", "items.txt")
	writeFile(t, items, "1%\tBefore\n")
	_, err := l.Load("hot")
	require.NoError(t, err)

	done := make(chan struct{}, 8)
	w := WatchLoader(l, 10*time.Millisecond, func(string) {
		select {
		case done <- struct{}{}:
		default:
		}
	})
	w.Start()
	defer w.Stop()

	writeFile(t, items, "1%\tAfter\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(items, future, future))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not fire")
	}
	b, err := l.Load("hot")
	require.NoError(t, err)
	assert.Equal(t, "After", b.Table()[0].Item)
}
