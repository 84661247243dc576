package mercantile

import (
	"fmt"
	"iter"
	"math"
	"slices"
)

// LngLatBBox is a geographic bounding box in degrees. West may be greater than East for a
// box crossing the antimeridian.
type LngLatBBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// TileSet is the set of tiles intersecting a bounding box at one or more zooms. It is a
// value: every call to All enumerates from scratch.
type TileSet struct {
	corners []corners
	zooms   []int
}

// corners holds the tile-space fractions of the upper left and lower right corner of one
// clamped box.
type corners struct {
	ulx, uly, lrx, lry float64
}

// Tiles describes the tiles intersecting box at each of the zooms. Zooms must be distinct.
func Tiles(box LngLatBBox, truncate bool, zooms ...int) (TileSet, error) {
	for _, v := range []float64{box.West, box.South, box.East, box.North} {
		if math.IsNaN(v) {
			return TileSet{}, fmt.Errorf("%w: bounding box has NaN coordinates: %+v", ErrInvalidArgument, box)
		}
	}
	seen := make(map[int]bool, len(zooms))
	for _, z := range zooms {
		if err := checkZoom(z); err != nil {
			return TileSet{}, err
		}
		if seen[z] {
			return TileSet{}, fmt.Errorf("%w: zoom %d given more than once", ErrInvalidArgument, z)
		}
		seen[z] = true
	}

	var cs []corners
	for _, b := range splitBox(box, truncate) {
		c, err := clampedCorners(b)
		if err != nil {
			return TileSet{}, err
		}
		cs = append(cs, c)
	}
	return TileSet{corners: cs, zooms: slices.Clone(zooms)}, nil
}

// Zooms returns the zoom levels of the set in enumeration order.
func (s TileSet) Zooms() []int {
	return slices.Clone(s.zooms)
}

// span is the inclusive tile range of one clamped box at one zoom.
type span struct {
	ul, lr Tile
}

func (sp span) count() int {
	w, h := sp.lr.X-sp.ul.X+1, sp.lr.Y-sp.ul.Y+1
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// splitBox applies truncation and the antimeridian split.
func splitBox(b LngLatBBox, truncate bool) []LngLatBBox {
	if truncate {
		b.West, b.South = TruncateLngLat(b.West, b.South)
		b.East, b.North = TruncateLngLat(b.East, b.North)
	}
	if b.West > b.East {
		return []LngLatBBox{
			{West: -180, South: b.South, East: b.East, North: b.North},
			{West: b.West, South: b.South, East: 180, North: b.North},
		}
	}
	return []LngLatBBox{b}
}

// clampedCorners clamps b to the tile grid and projects its corners.
func clampedCorners(b LngLatBBox) (corners, error) {
	w := math.Max(-180, b.West)
	e := math.Min(180, b.East)
	south := math.Max(-MaxLatitude, math.Min(MaxLatitude, b.South))
	n := math.Max(-MaxLatitude, math.Min(MaxLatitude, b.North))

	ulx, uly, err := Fraction(w, n, false)
	if err != nil {
		return corners{}, err
	}
	lrx, lry, err := Fraction(e-LLEpsilon, south+LLEpsilon, false)
	if err != nil {
		return corners{}, err
	}
	return corners{ulx: ulx, uly: uly, lrx: lrx, lry: lry}, nil
}

func (s TileSet) spans(yield func(span) bool) {
	var west []span
	for _, c := range s.corners {
		cur := make([]span, len(s.zooms))
		for k, z := range s.zooms {
			sp := span{ul: fractionToTile(c.ulx, c.uly, z), lr: fractionToTile(c.lrx, c.lry, z)}
			// At coarse zooms both halves of a split box can reach the same column.
			if west != nil && sp.ul.X <= west[k].lr.X {
				sp.ul.X = west[k].lr.X + 1
			}
			cur[k] = sp
			if !yield(sp) {
				return
			}
		}
		west = cur
	}
}

// All yields every tile of the set: box by box (west half first for a split box), zoom by
// zoom, x outer and y inner. The sequence must be driven by a single consumer.
func (s TileSet) All() iter.Seq[Tile] {
	return func(yield func(Tile) bool) {
		for sp := range s.spans {
			for i := sp.ul.X; i <= sp.lr.X; i++ {
				for j := sp.ul.Y; j <= sp.lr.Y; j++ {
					if !yield(Tile{X: i, Y: j, Z: sp.ul.Z}) {
						return
					}
				}
			}
		}
	}
}

// Count returns the number of tiles All yields without enumerating them. It saturates at
// math.MaxInt.
func (s TileSet) Count() int {
	total := 0
	for sp := range s.spans {
		total = addSaturating(total, sp.count())
	}
	return total
}

func addSaturating(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// Collect materialises the set.
func (s TileSet) Collect() []Tile {
	return slices.Collect(s.All())
}
