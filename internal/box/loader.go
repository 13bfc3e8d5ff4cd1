package box

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/xtding233/gacha-sim/internal/pricing"
)

var ErrBoxNotFound = errors.New("box not found")

// DefaultCacheSize bounds how many merged boxes the loader keeps.
const DefaultCacheSize = 64

const (
	activeDir  = "boxes"
	retiredDir = "old_boxes"

	itemsFile   = "items.txt"
	costsFile   = "costs.txt"
	batchesFile = "batches.txt"
	titleFile   = "title.txt"
	configFile  = "box.yaml"
)

// Paths helper for defaults/box files.
type Paths struct {
	BaseDir string // base directory, e.g., /opt/app/data
}

func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "defaults.yaml")
}
func (p Paths) BoxDir(id string, retired bool) string {
	if retired {
		return filepath.Join(p.BaseDir, retiredDir, id)
	}
	return filepath.Join(p.BaseDir, activeDir, id)
}

// Loader reads box directories and merges defaults → legacy text files → box.yaml.
type Loader struct {
	paths Paths
	cache *lru.Cache[string, Box]
}

// NewLoader creates a box loader with the given base directory.
func NewLoader(baseDir string, cacheSize int) (*Loader, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	c, err := lru.New[string, Box](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create box cache: %w", err)
	}
	return &Loader{paths: Paths{BaseDir: baseDir}, cache: c}, nil
}

// Listing is the set of box IDs found on disk.
type Listing struct {
	Active  []string `json:"active"`
	Retired []string `json:"retired"`
}

// List scans for box directories that hold an items.txt.
func (l *Loader) List() (Listing, error) {
	active, err := l.scan(false)
	if err != nil {
		return Listing{}, err
	}
	retired, err := l.scan(true)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Active: active, Retired: retired}, nil
}

func (l *Loader) scan(retired bool) ([]string, error) {
	dir := filepath.Dir(l.paths.BoxDir("x", retired))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, e.Name(), itemsFile)); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load returns the merged box. Active boxes shadow retired ones with the same ID.
func (l *Loader) Load(id string) (Box, error) {
	if !validID(id) {
		return Box{}, fmt.Errorf("%w: %q", ErrBoxNotFound, id)
	}
	if b, ok := l.cache.Get(id); ok {
		return b, nil
	}

	b, err := l.read(id, false)
	if errors.Is(err, ErrBoxNotFound) {
		b, err = l.read(id, true)
	}
	if err != nil {
		return Box{}, err
	}
	l.cache.Add(id, b)
	return b, nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.cache.Purge()
}

// WatchPaths lists every file and directory whose change should invalidate the cache.
func (l *Loader) WatchPaths() []string {
	paths := []string{l.paths.DefaultPath()}
	for _, retired := range []bool{false, true} {
		root := filepath.Dir(l.paths.BoxDir("x", retired))
		paths = append(paths, root)
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			dir := filepath.Join(root, e.Name())
			paths = append(paths, dir)
			for _, f := range []string{itemsFile, costsFile, batchesFile, titleFile, configFile} {
				paths = append(paths, filepath.Join(dir, f))
			}
		}
	}
	return paths
}

func (l *Loader) read(id string, retired bool) (Box, error) {
	dir := l.paths.BoxDir(id, retired)
	items, err := os.ReadFile(filepath.Join(dir, itemsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Box{}, fmt.Errorf("%w: %q", ErrBoxNotFound, id)
		}
		return Box{}, fmt.Errorf("read items: %w", err)
	}

	defCfg, err := readYAML(l.paths.DefaultPath())
	if err != nil {
		return Box{}, fmt.Errorf("read defaults: %w", err)
	}
	legacy, err := readLegacy(dir)
	if err != nil {
		return Box{}, fmt.Errorf("read box %q: %w", id, err)
	}
	boxCfg, err := readYAML(filepath.Join(dir, configFile))
	if err != nil {
		return Box{}, fmt.Errorf("read box %q: %w", id, err)
	}

	// Merge: defaults <- legacy text <- box.yaml
	merged := mergeRaw(mergeRaw(defCfg, legacy), boxCfg)
	if err := ValidateRaw(merged); err != nil {
		return Box{}, fmt.Errorf("box %q: %w", id, err)
	}

	sched := pricing.NewSchedule(merged.Costs)
	if merged.UnitPrice != nil {
		sched.UnitPrice = *merged.UnitPrice
	}
	return Box{
		ID:        id,
		Title:     merged.Title,
		Retired:   retired,
		ItemsText: string(items),
		Schedule:  sched,
		Batches:   append([]int(nil), merged.Batches...),
		Notes:     merged.Notes,
	}, nil
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// readLegacy maps costs.txt, batches.txt and title.txt onto a RawConfig.
func readLegacy(dir string) (RawConfig, error) {
	var cfg RawConfig
	read := func(name string) (string, bool, error) {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", false, nil
			}
			return "", false, err
		}
		return string(b), true, nil
	}

	if text, ok, err := read(costsFile); err != nil {
		return RawConfig{}, err
	} else if ok {
		cfg.Costs = pricing.ParseSchedule(text).Prices
	}
	if text, ok, err := read(batchesFile); err != nil {
		return RawConfig{}, err
	} else if ok {
		cfg.Batches = pricing.ParseBatches(text)
	}
	if text, ok, err := read(titleFile); err != nil {
		return RawConfig{}, err
	} else if ok {
		cfg.Title = strings.TrimSpace(text)
	}
	return cfg, nil
}

// mergeRaw performs a deep merge: 'b' overrides 'a' where non-zero/non-nil.
// Costs merge per batch size; Batches from 'b' replace 'a' if provided.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if b.Title != "" {
		out.Title = b.Title
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}
	if b.UnitPrice != nil {
		p := *b.UnitPrice
		out.UnitPrice = &p
	}

	if len(b.Costs) > 0 {
		costs := make(map[int]float64, len(a.Costs)+len(b.Costs))
		for k, v := range a.Costs {
			costs[k] = v
		}
		for k, v := range b.Costs {
			costs[k] = v
		}
		out.Costs = costs
	}

	if len(b.Batches) > 0 {
		out.Batches = append([]int(nil), b.Batches...)
	}

	return out
}
