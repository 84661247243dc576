// Package pipeline drives per-tile work over a tile manifest.
package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/jewhyena/tilepyramid/pkg/pyramid"
)

// TileFunc processes one manifest entry, typically a crop followed by an upload.
type TileFunc func(ctx context.Context, e pyramid.Entry) error

// Stats summarises a run.
type Stats struct {
	Tiles      int64
	OutOfRange int64
}

// Runner fans manifest entries out to a bounded number of workers.
type Runner struct {
	// Concurrency limits the number of entries in flight; values below 1 mean 1.
	Concurrency int
	// Logger receives progress and warnings. Nil means the standard logger.
	Logger *log.Logger
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logger != nil {
		r.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Run calls fn for every entry. The sequence is advanced by the calling goroutine only.
// The first failure cancels the context handed to the remaining calls and is returned.
func (r *Runner) Run(ctx context.Context, entries iter.Seq[pyramid.Entry], fn TileFunc) (Stats, error) {
	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var stats Stats
	for e := range entries {
		if gctx.Err() != nil {
			break
		}
		if !e.Tile.InRange() {
			atomic.AddInt64(&stats.OutOfRange, 1)
			r.logf("warning: tile %s is outside the grid of zoom %d", e.Tile, e.Tile.Z)
		}
		g.Go(func() error {
			// a slot may free up only after another entry failed
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(gctx, e); err != nil {
				return fmt.Errorf("tile %s: %w", e.Tile, err)
			}
			atomic.AddInt64(&stats.Tiles, 1)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return Stats{
		Tiles:      atomic.LoadInt64(&stats.Tiles),
		OutOfRange: atomic.LoadInt64(&stats.OutOfRange),
	}, err
}
