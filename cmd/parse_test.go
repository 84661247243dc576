package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jewhyena/tilepyramid/pkg/mercantile"
	"github.com/jewhyena/tilepyramid/pkg/pyramid"
)

func TestParseGeoTransform(t *testing.T) {
	gt, err := parseGeoTransform("950000, 0.5, 0, 6005000, 0, -0.5")
	require.NoError(t, err)
	require.Equal(t, pyramid.GeoTransform{950000, 0.5, 0, 6005000, 0, -0.5}, gt)

	_, err = parseGeoTransform("0,10,0,0,0")
	require.Error(t, err)
	_, err = parseGeoTransform("0,10,0,0,0,x")
	require.Error(t, err)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    pyramid.RasterSize
		wantErr bool
	}{
		{in: "1000x750", want: pyramid.RasterSize{X: 1000, Y: 750}},
		{in: "256X256", want: pyramid.RasterSize{X: 256, Y: 256}},
		{in: "1000", wantErr: true},
		{in: "ax10", wantErr: true},
		{in: "10x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseBBox(t *testing.T) {
	box, err := parseBBox("170,-10,-170,10")
	require.NoError(t, err)
	require.Equal(t, mercantile.LngLatBBox{West: 170, South: -10, East: -170, North: 10}, box)

	_, err = parseBBox("1,2,3")
	require.Error(t, err)
}
