package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jewhyena/tilepyramid/pkg/mercantile"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "List the tiles covering a bounding box",
	Long: `List the tiles that intersect a longitude/latitude bounding box at one or more
zoom levels, one JSON object per line.

A box whose west edge is east of its east edge crosses the antimeridian.

Examples:
  tilepyramid tiles --bbox -0.5,51.3,0.3,51.7 --zoom 10
  tilepyramid tiles --bbox 170,-10,-170,10 --zoom 2 --zoom 3
  tilepyramid tiles --bbox -200,-90,200,90 --zoom 1 --truncate --count`,
	RunE: runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)

	tilesCmd.Flags().String("bbox", "", "bounding box as 'west,south,east,north' (required)")
	tilesCmd.Flags().IntSlice("zoom", nil, "zoom level(s) (required)")
	tilesCmd.Flags().Bool("truncate", false, "clamp the box to valid longitudes and latitudes first")
	tilesCmd.Flags().Bool("count", false, "print only the number of tiles")
	tilesCmd.MarkFlagRequired("bbox")
	tilesCmd.MarkFlagRequired("zoom")
}

func runTiles(cmd *cobra.Command, args []string) error {
	bboxFlag, _ := cmd.Flags().GetString("bbox")
	zooms, _ := cmd.Flags().GetIntSlice("zoom")
	truncate, _ := cmd.Flags().GetBool("truncate")

	box, err := parseBBox(bboxFlag)
	if err != nil {
		return err
	}

	set, err := mercantile.Tiles(box, truncate, zooms...)
	if err != nil {
		return err
	}

	if count, _ := cmd.Flags().GetBool("count"); count {
		fmt.Fprintln(cmd.OutOrStdout(), set.Count())
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for t := range set.All() {
		if err := enc.Encode(t); err != nil {
			return err
		}
	}
	return nil
}
