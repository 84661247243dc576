package pyramid

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/jewhyena/tilepyramid/pkg/mercantile"
)

// DefaultKeyTemplate names tile objects the way the upload pipeline stores them.
const DefaultKeyTemplate KeyTemplate = "{z}_{x}_{y}.png"

// KeyTemplate is an object key or URL with {z}, {x} and {y} placeholders.
type KeyTemplate string

// Validate checks that every placeholder is present, otherwise keys would collide.
func (t KeyTemplate) Validate() error {
	s := string(t)
	if !strings.Contains(s, "{z}") || !strings.Contains(s, "{x}") || !strings.Contains(s, "{y}") {
		return fmt.Errorf("%w: key template %q must contain {z}, {x} and {y}", mercantile.ErrInvalidArgument, s)
	}
	return nil
}

// Render replaces the placeholders with the tile address.
func (t KeyTemplate) Render(tile mercantile.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(tile.Z),
		"{x}", strconv.Itoa(tile.X),
		"{y}", strconv.Itoa(tile.Y),
	).Replace(string(t))
}

// Entry is one unit of work for the crop and upload pipeline.
type Entry struct {
	Tile mercantile.Tile `json:"tile"`
	// Bounds is the crop window in Web Mercator meters.
	Bounds mercantile.BBox `json:"bounds"`
	Key    string          `json:"key"`
}

// Manifest lazily pairs each planned tile with its crop window and object key.
func (p *Plan) Manifest(tmpl KeyTemplate) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for tile := range p.Tiles.All() {
			e := Entry{
				Tile:   tile,
				Bounds: mercantile.XYBounds(tile),
				Key:    tmpl.Render(tile),
			}
			if !yield(e) {
				return
			}
		}
	}
}
