package mercantile

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustTiles(t *testing.T, box LngLatBBox, truncate bool, zooms ...int) TileSet {
	t.Helper()
	set, err := Tiles(box, truncate, zooms...)
	require.NoError(t, err)
	return set
}

func TestTilesSingleGlobalTile(t *testing.T) {
	set := mustTiles(t, LngLatBBox{West: -180, South: -MaxLatitude, East: 180, North: MaxLatitude}, false, 0)
	require.Equal(t, []Tile{{0, 0, 0}}, set.Collect())
	require.Equal(t, 1, set.Count())
}

func TestTilesWholeWorld(t *testing.T) {
	set := mustTiles(t, LngLatBBox{West: -180, South: -90, East: 180, North: 90}, false, 0, 1, 2)
	require.Equal(t, 1+4+16, set.Count())

	got := set.Collect()
	require.Len(t, got, 21)
	// zoom by zoom, x outer, y inner
	require.Equal(t, []Tile{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {1, 0, 1}, {1, 1, 1}}, got[:5])
}

func TestTilesEdgeOnGridLine(t *testing.T) {
	// east and south edges sit exactly on tile boundaries and must not pull in neighbours
	set := mustTiles(t, LngLatBBox{West: 0, South: 0, East: 90, North: MaxLatitude}, false, 2)
	require.Equal(t, []Tile{{2, 0, 2}, {2, 1, 2}}, set.Collect())
}

func TestTilesAntimeridian(t *testing.T) {
	crossing := mustTiles(t, LngLatBBox{West: 170, South: -10, East: -170, North: 10}, false, 2)
	east := mustTiles(t, LngLatBBox{West: 170, South: -10, East: 180, North: 10}, false, 2)
	west := mustTiles(t, LngLatBBox{West: -180, South: -10, East: -170, North: 10}, false, 2)

	got := crossing.Collect()
	want := append(west.Collect(), east.Collect()...)
	require.Equal(t, want, got)
	require.Equal(t, []Tile{{0, 1, 2}, {0, 2, 2}, {3, 1, 2}, {3, 2, 2}}, got)

	seen := make(map[Tile]bool, len(got))
	for _, tile := range got {
		require.Falsef(t, seen[tile], "duplicate tile %v", tile)
		seen[tile] = true
	}
	require.Equal(t, len(got), crossing.Count())
}

func TestTilesAntimeridianCoarseZoom(t *testing.T) {
	set := mustTiles(t, LngLatBBox{West: 170, South: -50, East: -160, North: -30}, false, 0, 1)
	require.Equal(t, []Tile{{0, 0, 0}, {0, 1, 1}, {1, 1, 1}}, set.Collect())
	require.Equal(t, 3, set.Count())
}

func TestTilesTruncate(t *testing.T) {
	box := LngLatBBox{West: 190, South: 0, East: 185, North: 10}

	// west > east, so the box is split and the western half already spans the whole row
	loose := mustTiles(t, box, false, 2)
	require.Equal(t, []Tile{{0, 1, 2}, {1, 1, 2}, {2, 1, 2}, {3, 1, 2}}, loose.Collect())

	// both longitudes clamp to 180 and the box collapses to the last column
	truncated := mustTiles(t, box, true, 2)
	require.Equal(t, []Tile{{3, 1, 2}}, truncated.Collect())
}

func TestTilesPolarClamp(t *testing.T) {
	set := mustTiles(t, LngLatBBox{West: -1, South: 80, East: 1, North: 90}, false, 1)
	require.Equal(t, []Tile{{0, 0, 1}, {1, 0, 1}}, set.Collect())
}

func TestTilesDegeneratePolarBox(t *testing.T) {
	tests := []struct {
		name string
		box  LngLatBBox
		want []Tile
	}{
		{name: "south pole", box: LngLatBBox{West: 10, South: -90, East: 20, North: -90}, want: []Tile{{2, 3, 2}}},
		{name: "north pole", box: LngLatBBox{West: 10, South: 90, East: 20, North: 90}, want: []Tile{{2, 0, 2}}},
		{name: "below the grid", box: LngLatBBox{West: 10, South: -89, East: 20, North: -88}, want: []Tile{{2, 3, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := mustTiles(t, tt.box, false, 2)
			require.Equal(t, tt.want, set.Collect())
			require.Equal(t, len(tt.want), set.Count())
		})
	}
}

func TestTilesMonotonicZoom(t *testing.T) {
	boxes := []LngLatBBox{
		{West: -10, South: -10, East: 10, North: 10},
		{West: 5.95, South: 45.8, East: 10.5, North: 47.8},
		{West: 170, South: -50, East: -160, North: -30},
		{West: -0.01, South: 51.49, East: 0.01, North: 51.51},
	}
	for _, box := range boxes {
		prev := 0
		for z := 0; z <= 12; z++ {
			n := mustTiles(t, box, false, z).Count()
			require.GreaterOrEqualf(t, n, prev, "box %+v zoom %d", box, z)
			prev = n
		}
	}
}

func TestTilesCountMatchesEnumeration(t *testing.T) {
	boxes := []LngLatBBox{
		{West: -180, South: -90, East: 180, North: 90},
		{West: 170, South: -10, East: -170, North: 10},
		{West: 10, South: 20, East: 5, North: 30},
		{West: 0, South: 10, East: 10, North: 0}, // south above north yields nothing
	}
	for _, box := range boxes {
		set := mustTiles(t, box, false, 0, 3, 5, 7)
		require.Len(t, set.Collect(), set.Count())
	}

	empty := mustTiles(t, LngLatBBox{West: 0, South: 10, East: 10, North: 0}, false, 4)
	require.Zero(t, empty.Count())
	require.Empty(t, empty.Collect())
}

func TestTilesRestartable(t *testing.T) {
	set := mustTiles(t, LngLatBBox{West: -5, South: 40, East: 5, North: 50}, false, 4, 5)

	first := set.Collect()
	second := set.Collect()
	require.Equal(t, first, second)

	// stopping early must not disturb later runs
	n := 0
	for range set.All() {
		n++
		if n == 3 {
			break
		}
	}
	require.Equal(t, 3, n)
	require.Equal(t, first, set.Collect())
}

func TestTilesNoZooms(t *testing.T) {
	set := mustTiles(t, LngLatBBox{West: -5, South: 40, East: 5, North: 50}, false)
	require.Zero(t, set.Count())
	require.Empty(t, set.Collect())
	require.Empty(t, set.Zooms())
}

func TestTilesInvalidArguments(t *testing.T) {
	_, err := Tiles(LngLatBBox{West: -5, South: 40, East: 5, North: 50}, false, 3, -1)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Tiles(LngLatBBox{West: math.NaN(), South: 40, East: 5, North: 50}, false, 3)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Tiles(LngLatBBox{West: -180, South: -90, East: 180, North: 90}, false, 30, 2, 30)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTilesCountFinestZoom(t *testing.T) {
	set := mustTiles(t, LngLatBBox{West: -180, South: -90, East: 180, North: 90}, false, 30)
	require.Equal(t, 1<<60, set.Count())
}

func TestAddSaturating(t *testing.T) {
	require.Equal(t, 5, addSaturating(2, 3))
	require.Equal(t, math.MaxInt, addSaturating(math.MaxInt-1, 2))
	require.Equal(t, math.MaxInt, addSaturating(1<<62, 1<<62))
}

func TestTilesZoomsIsACopy(t *testing.T) {
	zooms := []int{1, 2}
	set := mustTiles(t, LngLatBBox{West: -5, South: 40, East: 5, North: 50}, false, zooms...)
	zooms[0] = 9

	got := set.Zooms()
	require.Equal(t, []int{1, 2}, got)
	got[1] = 9
	require.Equal(t, []int{1, 2}, set.Zooms())
}
