// Package gdalcli runs the GDAL command line utilities that read and crop warped rasters.
package gdalcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jewhyena/tilepyramid/pkg/mercantile"
	"github.com/jewhyena/tilepyramid/pkg/pyramid"
)

// DefaultCreationOptions are passed to gdal_translate for every tile.
var DefaultCreationOptions = []string{"COMPRESS=PACKBYTES"}

// CommandError is returned when a GDAL utility fails.
type CommandError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Name, strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Tool locates the GDAL binaries.
type Tool struct {
	InfoPath        string
	TranslatePath   string
	TileSize        int
	CreationOptions []string
}

// New returns a Tool using the binaries found on PATH.
func New() *Tool {
	return &Tool{
		InfoPath:        "gdalinfo",
		TranslatePath:   "gdal_translate",
		TileSize:        pyramid.TileSize,
		CreationOptions: DefaultCreationOptions,
	}
}

// Info is the part of the gdalinfo report the planner needs.
type Info struct {
	GeoTransform pyramid.GeoTransform
	Size         pyramid.RasterSize
}

// ParseInfo decodes the output of `gdalinfo -json`.
func ParseInfo(data []byte) (Info, error) {
	var raw struct {
		GeoTransform []float64 `json:"geoTransform"`
		Size         []int     `json:"size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Info{}, fmt.Errorf("decoding gdalinfo output: %w", err)
	}
	if len(raw.GeoTransform) != 6 {
		return Info{}, fmt.Errorf("%w: raster has no geotransform", mercantile.ErrInvalidArgument)
	}
	if len(raw.Size) != 2 {
		return Info{}, fmt.Errorf("%w: raster has no size", mercantile.ErrInvalidArgument)
	}

	var info Info
	copy(info.GeoTransform[:], raw.GeoTransform)
	info.Size = pyramid.RasterSize{X: raw.Size[0], Y: raw.Size[1]}
	return info, nil
}

// Info reads the geotransform and pixel size of a raster.
func (t *Tool) Info(ctx context.Context, path string) (Info, error) {
	out, err := t.run(ctx, t.InfoPath, "-json", path)
	if err != nil {
		return Info{}, err
	}
	return ParseInfo(out)
}

// TranslateArgs builds the gdal_translate arguments that crop bounds out of src into a
// size x size tile at dst.
func TranslateArgs(src, dst string, bounds mercantile.BBox, size int, creationOptions []string) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	args := []string{
		"-projwin", f(bounds.Left), f(bounds.Top), f(bounds.Right), f(bounds.Bottom),
		"-outsize", strconv.Itoa(size), strconv.Itoa(size),
	}
	for _, co := range creationOptions {
		args = append(args, "-co", co)
	}
	return append(args, src, dst)
}

// Translate crops one tile out of a warped raster.
func (t *Tool) Translate(ctx context.Context, src, dst string, bounds mercantile.BBox) error {
	_, err := t.run(ctx, t.TranslatePath, TranslateArgs(src, dst, bounds, t.TileSize, t.CreationOptions)...)
	return err
}

func (t *Tool) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &CommandError{Name: name, Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}
