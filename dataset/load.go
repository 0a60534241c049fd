package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrNoSources is returned when there is nothing to load.
var ErrNoSources = errors.New("no dataset chunks configured")

// LoadError reports a missing or corrupt chunk.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load dataset: %v", e.Err)
	}
	return fmt.Sprintf("load dataset chunk %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads every chunk and concatenates them in the given order. Chunks
// are read concurrently; any failure aborts the load with a *LoadError.
func Load(ctx context.Context, sources []string) (*Table, error) {
	if len(sources) == 0 {
		return nil, &LoadError{Err: ErrNoSources}
	}

	parts := make([]*Table, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			rows, err := readChunk(ctx, src)
			if err != nil {
				return &LoadError{Source: src, Err: err}
			}
			parts[i] = NewTable(rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Concat(parts...), nil
}

func readChunk(ctx context.Context, path string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, errors.New("is a directory")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path)
	case ".db", ".sqlite", ".sqlite3":
		return ReadSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported chunk format %q", filepath.Ext(path))
	}
}

// Discover returns the files in dir matching pattern, sorted by name so that
// part1, part2, ... load in order.
func Discover(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.csv"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, &LoadError{Source: dir, Err: err}
	}
	if len(matches) == 0 {
		return nil, &LoadError{Source: dir, Err: fmt.Errorf("no files match %q", pattern)}
	}
	sort.Strings(matches)
	return matches, nil
}
