package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jewhyena/tilepyramid/pkg/mercantile"
	"github.com/jewhyena/tilepyramid/pkg/pyramid"
)

// parseFloats parses a comma separated list of exactly n numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %d", n, len(parts))
	}

	values := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %v", p, err)
		}
		values[i] = v
	}
	return values, nil
}

// parseGeoTransform parses 'originX,pixelWidth,rot,originY,rot,pixelHeight'.
func parseGeoTransform(s string) (pyramid.GeoTransform, error) {
	var gt pyramid.GeoTransform
	values, err := parseFloats(s, 6)
	if err != nil {
		return gt, fmt.Errorf("geotransform: %w", err)
	}
	copy(gt[:], values)
	return gt, nil
}

// parseSize parses 'WIDTHxHEIGHT'.
func parseSize(s string) (pyramid.RasterSize, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return pyramid.RasterSize{}, fmt.Errorf("size must be in format 'WIDTHxHEIGHT', got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return pyramid.RasterSize{}, fmt.Errorf("invalid width in size: %v", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return pyramid.RasterSize{}, fmt.Errorf("invalid height in size: %v", err)
	}
	return pyramid.RasterSize{X: x, Y: y}, nil
}

// parseBBox parses 'west,south,east,north'.
func parseBBox(s string) (mercantile.LngLatBBox, error) {
	values, err := parseFloats(s, 4)
	if err != nil {
		return mercantile.LngLatBBox{}, fmt.Errorf("bbox must be in format 'west,south,east,north': %w", err)
	}
	return mercantile.LngLatBBox{West: values[0], South: values[1], East: values[2], North: values[3]}, nil
}
