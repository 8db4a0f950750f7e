// Package archive keeps world snapshots in blob storage, one object per
// saved year under worlds/<seed>/<year>.json.
package archive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/talgya/worldforge/internal/engine"
	"github.com/talgya/worldforge/internal/resources"
)

// ErrNotFound is returned by Store.Get for a missing key.
var ErrNotFound = errors.New("archive: not found")

// Store is a minimal blob store. Keys are slash-separated relative paths.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Key returns the object key for a world's snapshot at year.
func Key(seed uint64, year int) string {
	return fmt.Sprintf("%s%d.json", prefix(seed), year)
}

func prefix(seed uint64) string {
	return "worlds/" + strconv.FormatUint(seed, 10) + "/"
}

// Save snapshots w into s and returns the key written.
func Save(ctx context.Context, s Store, w *engine.World) (string, error) {
	data, err := w.Snapshot()
	if err != nil {
		return "", fmt.Errorf("archive world: %w", err)
	}
	key := Key(w.Params.Seed, w.Date.Year)
	if err := s.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("archive world: %w", err)
	}
	return key, nil
}

// Years lists the archived years for seed in ascending order.
func Years(ctx context.Context, s Store, seed uint64) ([]int, error) {
	keys, err := s.List(ctx, prefix(seed))
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	var years []int
	for _, k := range keys {
		name, ok := strings.CutSuffix(path.Base(k), ".json")
		if !ok {
			continue
		}
		y, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		years = append(years, y)
	}
	// Lexical key order is not numeric order.
	slices.Sort(years)
	return years, nil
}

// Load restores the snapshot archived for seed at year.
func Load(ctx context.Context, s Store, seed uint64, year int, res *resources.Resources, opts ...engine.Option) (*engine.World, error) {
	data, err := s.Get(ctx, Key(seed, year))
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	w, err := engine.Restore(data, res, opts...)
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	return w, nil
}

// Latest restores the most recent snapshot archived for seed.
func Latest(ctx context.Context, s Store, seed uint64, res *resources.Resources, opts ...engine.Option) (*engine.World, error) {
	years, err := Years(ctx, s, seed)
	if err != nil {
		return nil, err
	}
	if len(years) == 0 {
		return nil, ErrNotFound
	}
	return Load(ctx, s, seed, years[len(years)-1], res, opts...)
}
