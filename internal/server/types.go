package server

import (
	"time"

	"github.com/jewhyena/tilepyramid/pkg/mercantile"
	"github.com/jewhyena/tilepyramid/pkg/pyramid"
)

// HealthStatus is the state reported by the health endpoint.
type HealthStatus string

const Healthy HealthStatus = "healthy"

// Error codes
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeInvalidArgument  = "INVALID_ARGUMENT"
	ErrCodeComputation      = "COMPUTATION_ERROR"
	ErrCodeTooManyTiles     = "TOO_MANY_TILES"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    *int         `json:"uptime,omitempty"`
	Version   *string      `json:"version,omitempty"`
}

type ErrorResponse struct {
	Error     string                  `json:"error"`
	Message   string                  `json:"message"`
	RequestId *string                 `json:"request_id,omitempty"`
	Details   *map[string]interface{} `json:"details,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	RequestId        *string           `json:"request_id,omitempty"`
	ValidationErrors []ValidationError `json:"validation_errors"`
}

// PlanRequest carries what the pipeline knows about a raster after warping it.
type PlanRequest struct {
	GeoTransform []float64           `json:"geoTransform"`
	RasterSize   *pyramid.RasterSize `json:"rasterSize"`
	KeyTemplate  *string             `json:"keyTemplate,omitempty"`
}

type PlanResponse struct {
	LeftTop     mercantile.LngLat `json:"leftTop"`
	RightBottom mercantile.LngLat `json:"rightBottom"`
	MinZoom     int               `json:"minZoom"`
	MaxZoom     int               `json:"maxZoom"`
	TileCount   int               `json:"tileCount"`
	Tiles       []pyramid.Entry   `json:"tiles"`
}

type TilesResponse struct {
	Count int               `json:"count"`
	Tiles []mercantile.Tile `json:"tiles"`
}

type TileResponse struct {
	Tile         mercantile.Tile       `json:"tile"`
	InRange      bool                  `json:"in_range"`
	Bounds       mercantile.BBox       `json:"bounds"`
	LngLatBounds mercantile.LngLatBBox `json:"lnglat_bounds"`
}
