package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jewhyena/tilepyramid/internal/gdalcli"
	"github.com/jewhyena/tilepyramid/pkg/pyramid"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tilepyramid",
	Short: "Plan and render Web Mercator tile pyramids for warped rasters",
	Long: `tilepyramid works out which slippy map tiles cover a raster that has been
warped to Web Mercator (EPSG:3857), and at which zoom levels.

It can print the plan, enumerate the tiles of any bounding box, cut the tiles
out of the raster with gdal_translate, or serve the same computations over HTTP.

Examples:
  # Plan the pyramid of a raster with 10m pixels
  tilepyramid plan --geotransform 0,10,0,0,0,-10 --size 1000x1000

  # Plan straight from a warped GeoTIFF
  tilepyramid plan --raster warped.tif

  # List the tiles of a box crossing the antimeridian
  tilepyramid tiles --bbox 170,-10,-170,10 --zoom 2

  # Cut all tiles into ./tiles
  tilepyramid render warped.tif --out tiles --concurrency 8

  # Start HTTP server
  tilepyramid serve --port 8080`,
	Version: versioninfo.Short(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tilepyramid.yaml)")
	rootCmd.PersistentFlags().String("key-template", string(pyramid.DefaultKeyTemplate), "tile key template with {z}, {x}, {y} placeholders")

	rootCmd.PersistentFlags().String("gdal-info", "gdalinfo", "path to the gdalinfo binary")
	rootCmd.PersistentFlags().String("gdal-translate", "gdal_translate", "path to the gdal_translate binary")

	viper.BindPFlag("key-template", rootCmd.PersistentFlags().Lookup("key-template"))
	viper.BindPFlag("gdal.info", rootCmd.PersistentFlags().Lookup("gdal-info"))
	viper.BindPFlag("gdal.translate", rootCmd.PersistentFlags().Lookup("gdal-translate"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".tilepyramid" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tilepyramid")
	}

	// TILEPYRAMID_SERVER_MAX_TILES overrides server.max-tiles
	viper.SetEnvPrefix("tilepyramid")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// gdalTool returns the GDAL utilities as configured.
func gdalTool() *gdalcli.Tool {
	tool := gdalcli.New()
	tool.InfoPath = viper.GetString("gdal.info")
	tool.TranslatePath = viper.GetString("gdal.translate")
	if size := viper.GetInt("tile-size"); size > 0 {
		tool.TileSize = size
	}
	return tool
}

// keyTemplate returns the configured key template after checking its placeholders.
func keyTemplate() (pyramid.KeyTemplate, error) {
	tmpl := pyramid.KeyTemplate(viper.GetString("key-template"))
	if err := tmpl.Validate(); err != nil {
		return "", err
	}
	return tmpl, nil
}
