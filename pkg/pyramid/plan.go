// Package pyramid plans the tile pyramid of a raster that has been warped to Web Mercator.
package pyramid

import (
	"fmt"
	"math"

	"github.com/jewhyena/tilepyramid/pkg/mercantile"
)

const (
	// TileSize is the edge length of a rendered tile in pixels.
	TileSize = 256

	// equatorLength is the equatorial circumference used for zoom derivation.
	equatorLength = 40075016.0
)

// GeoTransform is the affine map from pixel to projected coordinates:
// originX, pixelWidth, rowRotation, originY, colRotation, pixelHeight.
type GeoTransform [6]float64

func (gt GeoTransform) PixelWidth() float64  { return gt[1] }
func (gt GeoTransform) PixelHeight() float64 { return gt[5] }

// Validate checks that the transform describes a north-up raster with a usable pixel width.
func (gt GeoTransform) Validate() error {
	for i, c := range gt {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: geotransform coefficient %d is not finite", mercantile.ErrInvalidArgument, i)
		}
	}
	if gt[1] <= 0 {
		return fmt.Errorf("%w: pixel width must be positive, got %v", mercantile.ErrInvalidArgument, gt[1])
	}
	if math.IsInf(equatorLength/gt[1], 0) {
		return fmt.Errorf("%w: pixel width %v is too small to derive a zoom", mercantile.ErrInvalidArgument, gt[1])
	}
	if gt[2] != 0 || gt[4] != 0 {
		return fmt.Errorf("%w: rotated rasters are not supported", mercantile.ErrInvalidArgument)
	}
	return nil
}

// RasterSize is a raster's extent in pixels.
type RasterSize struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (s RasterSize) Validate() error {
	if s.X <= 0 || s.Y <= 0 {
		return fmt.Errorf("%w: raster size must be positive, got %dx%d", mercantile.ErrInvalidArgument, s.X, s.Y)
	}
	return nil
}

// Plan is the footprint, zoom range and tile set of a raster.
type Plan struct {
	LeftTop     mercantile.LngLat
	RightBottom mercantile.LngLat
	MinZoom     int
	MaxZoom     int
	Tiles       mercantile.TileSet
}

// MaxZoomFor returns the finest zoom whose tiles are not coarser than pixelWidth.
func MaxZoomFor(pixelWidth float64) int {
	return int(math.Floor(math.Log2(equatorLength/pixelWidth))) - 7
}

// MinZoomFor returns the coarsest zoom at which a raster of the given size still spans a
// bounded number of tiles.
func MinZoomFor(maxZoom int, size RasterSize) int {
	longest := max(size.X, size.Y)
	return maxZoom - int(math.Ceil(math.Log2(float64(longest)/TileSize)))
}

// ZoomRange returns lo, lo+1, ..., hi; it is empty when hi < lo.
func ZoomRange(lo, hi int) []int {
	if hi < lo {
		return nil
	}
	zooms := make([]int, 0, hi-lo+1)
	for z := lo; z <= hi; z++ {
		zooms = append(zooms, z)
	}
	return zooms
}

// NewPlan derives the tile pyramid for a raster.
//
// The zoom levels follow the pixel width only. Zooms outside [0, mercantile.MaxZoom] are
// left out of the tile set, so extreme rasters give a short or empty plan.
func NewPlan(gt GeoTransform, size RasterSize) (*Plan, error) {
	if err := gt.Validate(); err != nil {
		return nil, err
	}
	if err := size.Validate(); err != nil {
		return nil, err
	}

	maxZoom := MaxZoomFor(gt.PixelWidth())
	minZoom := MinZoomFor(maxZoom, size)

	leftTop := mercantile.LngLatFromMeters(gt[0], gt[3], false)
	rightBottom := mercantile.LngLatFromMeters(
		gt[0]+float64(size.X)*gt[1],
		gt[3]+float64(size.Y)*gt[5],
		false,
	)

	box := mercantile.LngLatBBox{
		West:  leftTop.Lng,
		South: rightBottom.Lat,
		East:  rightBottom.Lng,
		North: leftTop.Lat,
	}
	zooms := ZoomRange(max(minZoom, 0), min(maxZoom, mercantile.MaxZoom))
	tiles, err := mercantile.Tiles(box, false, zooms...)
	if err != nil {
		return nil, err
	}

	return &Plan{
		LeftTop:     leftTop,
		RightBottom: rightBottom,
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		Tiles:       tiles,
	}, nil
}

// TileCount returns the number of tiles in the plan.
func (p *Plan) TileCount() int {
	return p.Tiles.Count()
}
