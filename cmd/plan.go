package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jewhyena/tilepyramid/internal/server"
	"github.com/jewhyena/tilepyramid/pkg/pyramid"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the tile pyramid of a warped raster",
	Long: `Derive the zoom range and tiles of a raster warped to Web Mercator and print
them as JSON, together with the object key of every tile.

The raster is described either by its geotransform and pixel size or by a
file, in which case gdalinfo is used to read them.

Examples:
  tilepyramid plan --geotransform 0,10,0,0,0,-10 --size 1000x1000
  tilepyramid plan --raster warped.tif --key-template 'scans/42/{z}/{x}/{y}.png'`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().String("geotransform", "", "geotransform as 'originX,pixelWidth,0,originY,0,pixelHeight'")
	planCmd.Flags().String("size", "", "raster size as 'WIDTHxHEIGHT'")
	planCmd.Flags().String("raster", "", "read geotransform and size from this raster with gdalinfo")
	planCmd.Flags().Bool("summary", false, "omit the tile list")
	planCmd.MarkFlagsMutuallyExclusive("raster", "geotransform")
	planCmd.MarkFlagsRequiredTogether("geotransform", "size")
}

// rasterPlan builds the plan of the raster named by --raster or the positional argument, or
// of the --geotransform and --size flags.
func rasterPlan(cmd *cobra.Command, raster string) (*pyramid.Plan, error) {
	var (
		gt   pyramid.GeoTransform
		size pyramid.RasterSize
	)

	if raster != "" {
		info, err := gdalTool().Info(cmd.Context(), raster)
		if err != nil {
			return nil, err
		}
		gt, size = info.GeoTransform, info.Size
	} else {
		gtFlag, _ := cmd.Flags().GetString("geotransform")
		sizeFlag, _ := cmd.Flags().GetString("size")
		if gtFlag == "" || sizeFlag == "" {
			return nil, fmt.Errorf("either --raster or both --geotransform and --size are required")
		}

		var err error
		if gt, err = parseGeoTransform(gtFlag); err != nil {
			return nil, err
		}
		if size, err = parseSize(sizeFlag); err != nil {
			return nil, err
		}
	}

	return pyramid.NewPlan(gt, size)
}

func runPlan(cmd *cobra.Command, args []string) error {
	tmpl, err := keyTemplate()
	if err != nil {
		return err
	}

	raster, _ := cmd.Flags().GetString("raster")
	plan, err := rasterPlan(cmd, raster)
	if err != nil {
		return err
	}

	resp := server.PlanResponse{
		LeftTop:     plan.LeftTop,
		RightBottom: plan.RightBottom,
		MinZoom:     plan.MinZoom,
		MaxZoom:     plan.MaxZoom,
		TileCount:   plan.TileCount(),
		Tiles:       []pyramid.Entry{},
	}
	if summary, _ := cmd.Flags().GetBool("summary"); !summary {
		for e := range plan.Manifest(tmpl) {
			resp.Tiles = append(resp.Tiles, e)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
