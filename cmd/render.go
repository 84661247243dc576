package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jewhyena/tilepyramid/internal/pipeline"
	"github.com/jewhyena/tilepyramid/pkg/pyramid"
)

var renderCmd = &cobra.Command{
	Use:   "render RASTER",
	Short: "Cut the tile pyramid out of a warped raster",
	Long: `Plan the tile pyramid of a raster warped to Web Mercator and cut every tile
out of it with gdal_translate. Tiles are written below --out using the key
template as relative path.

Examples:
  tilepyramid render warped.tif --out tiles
  tilepyramid render warped.tif --out tiles --concurrency 8 --key-template '{z}/{x}/{y}.png'`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("out", "o", ".", "output directory")
	renderCmd.Flags().IntP("concurrency", "c", runtime.NumCPU(), "number of tiles rendered in parallel")
	renderCmd.Flags().IntP("tile-size", "t", pyramid.TileSize, "tile size in pixels")

	viper.BindPFlag("concurrency", renderCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("tile-size", renderCmd.Flags().Lookup("tile-size"))
}

func runRender(cmd *cobra.Command, args []string) error {
	src := args[0]
	out, _ := cmd.Flags().GetString("out")

	tmpl, err := keyTemplate()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.SetContext(ctx)

	plan, err := rasterPlan(cmd, src)
	if err != nil {
		return err
	}

	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	logger.Printf("Rendering %d tiles of %s at zoom %d to %d into %s",
		plan.TileCount(), src, plan.MinZoom, plan.MaxZoom, out)

	tool := gdalTool()
	runner := &pipeline.Runner{
		Concurrency: viper.GetInt("concurrency"),
		Logger:      logger,
	}

	start := time.Now()
	stats, err := runner.Run(ctx, plan.Manifest(tmpl), func(ctx context.Context, e pyramid.Entry) error {
		dst := filepath.Join(out, filepath.FromSlash(e.Key))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return tool.Translate(ctx, src, dst, e.Bounds)
	})
	if err != nil {
		return fmt.Errorf("render failed after %d tiles: %w", stats.Tiles, err)
	}

	logger.Printf("Rendered %d tiles in %s", stats.Tiles, time.Since(start).Round(time.Millisecond))
	if stats.OutOfRange > 0 {
		logger.Printf("Warning: %d tiles were outside the grid", stats.OutOfRange)
	}
	return nil
}
