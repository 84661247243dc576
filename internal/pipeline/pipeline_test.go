package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jewhyena/tilepyramid/pkg/mercantile"
	"github.com/jewhyena/tilepyramid/pkg/pyramid"
	"github.com/stretchr/testify/require"
)

func testPlan(t *testing.T) *pyramid.Plan {
	t.Helper()
	plan, err := pyramid.NewPlan(pyramid.GeoTransform{0, 10, 0, 0, 0, -10}, pyramid.RasterSize{X: 1000, Y: 1000})
	require.NoError(t, err)
	return plan
}

func TestRunVisitsEveryEntry(t *testing.T) {
	plan := testPlan(t)

	var mu sync.Mutex
	seen := map[string]bool{}
	r := &Runner{Concurrency: 4}
	stats, err := r.Run(context.Background(), plan.Manifest(pyramid.DefaultKeyTemplate), func(_ context.Context, e pyramid.Entry) error {
		mu.Lock()
		defer mu.Unlock()
		seen[e.Key] = true
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, plan.TileCount(), stats.Tiles)
	require.Zero(t, stats.OutOfRange)
	require.Len(t, seen, plan.TileCount())
	require.True(t, seen["14_8196_8196.png"])
}

func TestRunRespectsConcurrency(t *testing.T) {
	plan := testPlan(t)

	var inFlight, peak int64
	r := &Runner{Concurrency: 3}
	_, err := r.Run(context.Background(), plan.Manifest(pyramid.DefaultKeyTemplate), func(context.Context, pyramid.Entry) error {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return nil
	})
	require.NoError(t, err)
	require.LessOrEqual(t, peak, int64(3))
	require.GreaterOrEqual(t, peak, int64(1))
}

func TestRunStopsOnError(t *testing.T) {
	plan := testPlan(t)
	errUpload := errors.New("upload failed")

	var calls int64
	r := &Runner{Concurrency: 1}
	stats, err := r.Run(context.Background(), plan.Manifest(pyramid.DefaultKeyTemplate), func(_ context.Context, e pyramid.Entry) error {
		atomic.AddInt64(&calls, 1)
		if e.Tile.Z == 13 {
			return errUpload
		}
		return nil
	})
	require.ErrorIs(t, err, errUpload)
	require.Contains(t, err.Error(), "tile 13/")
	// the four zoom 12 tiles succeed, nothing at zoom 14 is started
	require.EqualValues(t, 4, stats.Tiles)
	require.EqualValues(t, 5, atomic.LoadInt64(&calls))
}

func TestRunCancelledContext(t *testing.T) {
	plan := testPlan(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{}
	stats, err := r.Run(ctx, plan.Manifest(pyramid.DefaultKeyTemplate), func(context.Context, pyramid.Entry) error {
		t.Fatal("no entry should be processed")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, stats.Tiles)
}

func TestRunWarnsAboutOutOfRangeTiles(t *testing.T) {
	entries := func(yield func(pyramid.Entry) bool) {
		for _, tile := range []mercantile.Tile{{X: 0, Y: 0, Z: 1}, {X: 5, Y: 0, Z: 1}} {
			if !yield(pyramid.Entry{Tile: tile, Bounds: mercantile.XYBounds(tile), Key: pyramid.DefaultKeyTemplate.Render(tile)}) {
				return
			}
		}
	}

	var buf bytes.Buffer
	r := &Runner{Concurrency: 2, Logger: log.New(&buf, "", 0)}
	stats, err := r.Run(context.Background(), entries, func(context.Context, pyramid.Entry) error { return nil })
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Tiles)
	require.EqualValues(t, 1, stats.OutOfRange)
	require.Contains(t, buf.String(), "tile 1/5/0 is outside the grid")
}
