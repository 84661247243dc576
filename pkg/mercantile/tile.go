package mercantile

import (
	"fmt"
	"math"
)

// MaxZoom is the deepest zoom level accepted. Beyond it Epsilon is no longer small
// compared to a tile in fraction space.
const MaxZoom = 30

// Tile is a slippy map tile address.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// InRange reports whether X and Y lie within [0, 2^Z-1].
func (t Tile) InRange() bool {
	hi := 1<<uint(t.Z) - 1
	return 0 <= t.X && t.X <= hi && 0 <= t.Y && t.Y <= hi
}

// NewTile builds a tile. Only the zoom is validated; a tile outside the grid is still
// returned and can be detected with InRange.
func NewTile(x, y, z int) (Tile, error) {
	if err := checkZoom(z); err != nil {
		return Tile{}, err
	}
	return Tile{X: x, Y: y, Z: z}, nil
}

// ParseZoom converts a numeric zoom, as found in JSON or query strings, to an int.
func ParseZoom(z float64) (int, error) {
	if math.IsNaN(z) || math.IsInf(z, 0) || z != math.Trunc(z) {
		return 0, fmt.Errorf("%w: zoom must be an integer, got %v", ErrInvalidArgument, z)
	}
	if z < 0 || z > MaxZoom {
		return 0, fmt.Errorf("%w: zoom must be between 0 and %d, got %v", ErrInvalidArgument, MaxZoom, z)
	}
	return int(z), nil
}

func checkZoom(z int) error {
	if z < 0 || z > MaxZoom {
		return fmt.Errorf("%w: zoom must be between 0 and %d, got %d", ErrInvalidArgument, MaxZoom, z)
	}
	return nil
}

// PointToTile returns the tile containing the position at the given zoom.
func PointToTile(lng, lat float64, zoom int, truncate bool) (Tile, error) {
	if err := checkZoom(zoom); err != nil {
		return Tile{}, err
	}
	x, y, err := Fraction(lng, lat, truncate)
	if err != nil {
		return Tile{}, err
	}
	return fractionToTile(x, y, zoom), nil
}

func fractionToTile(x, y float64, z int) Tile {
	return Tile{X: fractionToIndex(x, z), Y: fractionToIndex(y, z), Z: z}
}

func fractionToIndex(f float64, z int) int {
	n := 1 << uint(z)
	switch {
	case f <= 0:
		return 0
	case f >= 1:
		return n - 1
	default:
		return int(math.Floor((f + Epsilon) * float64(n)))
	}
}

// BBox is a rectangle in Web Mercator meters.
type BBox struct {
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
}

// Center returns the midpoint of the box.
func (b BBox) Center() (x, y float64) {
	return (b.Left + b.Right) / 2, (b.Bottom + b.Top) / 2
}

// LngLatBounds inverse-projects the box corners.
func (b BBox) LngLatBounds() LngLatBBox {
	sw := LngLatFromMeters(b.Left, b.Bottom, false)
	ne := LngLatFromMeters(b.Right, b.Top, false)
	return LngLatBBox{West: sw.Lng, South: sw.Lat, East: ne.Lng, North: ne.Lat}
}

// XYBounds returns the Web Mercator extent of a tile.
func XYBounds(t Tile) BBox {
	side := EarthCircumference / math.Pow(2, float64(t.Z))

	left := float64(t.X)*side - EarthCircumference/2
	top := EarthCircumference/2 - float64(t.Y)*side
	return BBox{
		Left:   left,
		Bottom: top - side,
		Right:  left + side,
		Top:    top,
	}
}
