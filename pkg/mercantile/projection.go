// Package mercantile converts between WGS84 longitude/latitude, spherical Web Mercator
// meters and slippy map tile indices, and enumerates the tiles covering a bounding box.
package mercantile

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadius is the spherical Web Mercator radius in meters.
	EarthRadius = 6378137.0
	// EarthCircumference is the equatorial circumference in meters.
	EarthCircumference = 2 * math.Pi * EarthRadius
	// R2D converts radians to degrees.
	R2D = 180 / math.Pi

	// Epsilon nudges tile-space fractions that sit exactly on a grid line
	// into the higher-index tile.
	Epsilon = 1e-14
	// LLEpsilon pulls the east and south edges of a box inwards so an edge
	// lying on a tile boundary does not pick up the neighbouring row or column.
	LLEpsilon = 1e-11

	// MaxLatitude is the largest latitude representable with square Web Mercator tiles.
	MaxLatitude = 85.051129
)

var (
	// ErrInvalidArgument is returned for bad zooms, pixel sizes, dimensions or geotransforms.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrComputation is returned when a projection has no finite result.
	ErrComputation = errors.New("computation error")
)

// LngLat is a geographic position in degrees.
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Truncate clamps the position to valid longitude and latitude ranges.
func (ll LngLat) Truncate() LngLat {
	ll.Lng, ll.Lat = TruncateLngLat(ll.Lng, ll.Lat)
	return ll
}

// TruncateLngLat clamps lng to [-180, 180] and lat to [-90, 90].
func TruncateLngLat(lng, lat float64) (float64, float64) {
	return math.Max(-180, math.Min(180, lng)), math.Max(-90, math.Min(90, lat))
}

// Fraction projects a position to tile space, where the whole world spans [0, 1] on both
// axes with y growing southwards.
func Fraction(lng, lat float64, truncate bool) (x, y float64, err error) {
	if truncate {
		lng, lat = TruncateLngLat(lng, lat)
	}

	x = lng/360.0 + 0.5
	sinLat := math.Sin(lat * math.Pi / 180)
	y = 0.5 - 0.25*math.Log((1.0+sinLat)/(1.0-sinLat))/math.Pi

	if math.IsInf(y, 0) || math.IsNaN(y) {
		return 0, 0, fmt.Errorf("%w: y can not be computed for lat=%v", ErrComputation, lat)
	}
	return x, y, nil
}

// LngLatFromMeters inverts the Web Mercator projection.
func LngLatFromMeters(x, y float64, truncate bool) LngLat {
	ll := LngLat{
		Lng: x * R2D / EarthRadius,
		Lat: (math.Pi*0.5 - 2.0*math.Atan(math.Exp(-y/EarthRadius))) * R2D,
	}
	if truncate {
		return ll.Truncate()
	}
	return ll
}
