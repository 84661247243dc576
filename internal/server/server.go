package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"

	"github.com/jewhyena/tilepyramid/pkg/mercantile"
	"github.com/jewhyena/tilepyramid/pkg/pyramid"
)

// DefaultMaxTiles bounds the tiles returned by a single response.
const DefaultMaxTiles = 100000

// Options configures a Server.
type Options struct {
	Version     string
	MaxTiles    int
	KeyTemplate pyramid.KeyTemplate
}

// Server serves tile pyramid plans and tile lookups over HTTP
type Server struct {
	startTime   time.Time
	version     string
	maxTiles    int
	keyTemplate pyramid.KeyTemplate
}

// NewServer creates a new server instance
func NewServer(opts Options) *Server {
	if opts.MaxTiles <= 0 {
		opts.MaxTiles = DefaultMaxTiles
	}
	if opts.KeyTemplate == "" {
		opts.KeyTemplate = pyramid.DefaultKeyTemplate
	}
	return &Server{
		startTime:   time.Now(),
		version:     opts.Version,
		maxTiles:    opts.MaxTiles,
		keyTemplate: opts.KeyTemplate,
	}
}

// Routes mounts the API endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.GetHealth)
	r.Post("/plan", s.CreatePlan)
	r.Get("/tiles", s.ListTiles)
	r.Get("/tiles/{z}/{x}/{y}", s.GetTile)
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := HealthResponse{
		Status:    Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}
	s.writeJSON(w, http.StatusOK, response)
}

// CreatePlan derives the tile pyramid and manifest of a warped raster
func (s *Server) CreatePlan(w http.ResponseWriter, r *http.Request) {
	requestID := reqID(r)

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidJSON,
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	if field, err := validatePlanRequest(&req); err != nil {
		s.writeValidationErrorResponse(w, field, err.Error(), &requestID)
		return
	}

	tmpl := s.keyTemplate
	if req.KeyTemplate != nil {
		tmpl = pyramid.KeyTemplate(*req.KeyTemplate)
	}
	if err := tmpl.Validate(); err != nil {
		s.writeValidationErrorResponse(w, "keyTemplate", err.Error(), &requestID)
		return
	}

	var gt pyramid.GeoTransform
	copy(gt[:], req.GeoTransform)
	plan, err := pyramid.NewPlan(gt, *req.RasterSize)
	if err != nil {
		s.handleCoreError(w, err, &requestID)
		return
	}

	count := plan.TileCount()
	if count > s.maxTiles {
		s.writeTooManyTiles(w, count, &requestID)
		return
	}

	entries := make([]pyramid.Entry, 0, count)
	for e := range plan.Manifest(tmpl) {
		if !e.Tile.InRange() {
			log.Printf("request %s: tile %s is outside the grid", requestID, e.Tile)
		}
		entries = append(entries, e)
	}

	s.writeJSON(w, http.StatusOK, PlanResponse{
		LeftTop:     plan.LeftTop,
		RightBottom: plan.RightBottom,
		MinZoom:     plan.MinZoom,
		MaxZoom:     plan.MaxZoom,
		TileCount:   count,
		Tiles:       entries,
	})
}

// validatePlanRequest reports the offending field of a malformed plan request
func validatePlanRequest(req *PlanRequest) (string, error) {
	if len(req.GeoTransform) != 6 {
		return "geoTransform", fmt.Errorf("geoTransform must have 6 coefficients, got %d", len(req.GeoTransform))
	}
	if req.RasterSize == nil {
		return "rasterSize", fmt.Errorf("rasterSize is required")
	}
	return "", nil
}

// ListTiles enumerates the tiles covering a bounding box
func (s *Server) ListTiles(w http.ResponseWriter, r *http.Request) {
	requestID := reqID(r)
	query := r.URL.Query()

	var bbox []float64
	if err := runtime.BindQueryParameter("form", false, true, "bbox", query, &bbox); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidParameter,
			fmt.Sprintf("Invalid format for parameter bbox: %s", err), &requestID, nil)
		return
	}
	if len(bbox) != 4 {
		s.writeValidationErrorResponse(w, "bbox", "bbox must be 'west,south,east,north'", &requestID)
		return
	}

	var rawZooms []float64
	if err := runtime.BindQueryParameter("form", true, true, "zoom", query, &rawZooms); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidParameter,
			fmt.Sprintf("Invalid format for parameter zoom: %s", err), &requestID, nil)
		return
	}

	var truncate *bool
	if err := runtime.BindQueryParameter("form", true, false, "truncate", query, &truncate); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidParameter,
			fmt.Sprintf("Invalid format for parameter truncate: %s", err), &requestID, nil)
		return
	}

	zooms := make([]int, 0, len(rawZooms))
	for _, raw := range rawZooms {
		z, err := mercantile.ParseZoom(raw)
		if err != nil {
			s.handleCoreError(w, err, &requestID)
			return
		}
		zooms = append(zooms, z)
	}

	box := mercantile.LngLatBBox{West: bbox[0], South: bbox[1], East: bbox[2], North: bbox[3]}
	set, err := mercantile.Tiles(box, truncate != nil && *truncate, zooms...)
	if err != nil {
		s.handleCoreError(w, err, &requestID)
		return
	}

	count := set.Count()
	if count > s.maxTiles {
		s.writeTooManyTiles(w, count, &requestID)
		return
	}

	tiles := set.Collect()
	if tiles == nil {
		tiles = []mercantile.Tile{}
	}
	s.writeJSON(w, http.StatusOK, TilesResponse{Count: count, Tiles: tiles})
}

// GetTile describes a single tile
func (s *Server) GetTile(w http.ResponseWriter, r *http.Request) {
	requestID := reqID(r)

	var rawZoom float64
	var x, y int
	for _, p := range []struct {
		name string
		dest interface{}
	}{{"z", &rawZoom}, {"x", &x}, {"y", &y}} {
		err := runtime.BindStyledParameterWithOptions("simple", p.name, chi.URLParam(r, p.name), p.dest,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			s.writeErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidParameter,
				fmt.Sprintf("Invalid format for parameter %s: %s", p.name, err), &requestID, nil)
			return
		}
	}

	z, err := mercantile.ParseZoom(rawZoom)
	if err != nil {
		s.handleCoreError(w, err, &requestID)
		return
	}
	tile, err := mercantile.NewTile(x, y, z)
	if err != nil {
		s.handleCoreError(w, err, &requestID)
		return
	}
	if !tile.InRange() {
		log.Printf("request %s: tile %s is outside the grid", requestID, tile)
	}

	bounds := mercantile.XYBounds(tile)
	s.writeJSON(w, http.StatusOK, TileResponse{
		Tile:         tile,
		InRange:      tile.InRange(),
		Bounds:       bounds,
		LngLatBounds: bounds.LngLatBounds(),
	})
}

// handleCoreError maps errors from the tiling core to responses
func (s *Server) handleCoreError(w http.ResponseWriter, err error, requestID *string) {
	switch {
	case errors.Is(err, mercantile.ErrInvalidArgument):
		s.writeErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidArgument, err.Error(), requestID, nil)
	case errors.Is(err, mercantile.ErrComputation):
		s.writeErrorResponse(w, http.StatusUnprocessableEntity, ErrCodeComputation, err.Error(), requestID, nil)
	default:
		log.Printf("request %s: %v", *requestID, err)
		s.writeErrorResponse(w, http.StatusInternalServerError, ErrCodeInternal,
			"Internal server error", requestID, nil)
	}
}

func (s *Server) writeTooManyTiles(w http.ResponseWriter, count int, requestID *string) {
	s.writeErrorResponse(w, http.StatusUnprocessableEntity, ErrCodeTooManyTiles,
		fmt.Sprintf("Request covers %d tiles, the limit is %d", count, s.maxTiles), requestID,
		map[string]interface{}{
			"tile_count": count,
			"max_tiles":  s.maxTiles,
		})
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	s.writeJSON(w, statusCode, response)
}

// writeValidationErrorResponse writes a validation error response
func (s *Server) writeValidationErrorResponse(w http.ResponseWriter, field, message string, requestID *string) {
	response := ValidationErrorResponse{
		Error:     ErrCodeValidation,
		Message:   message,
		RequestId: requestID,
		ValidationErrors: []ValidationError{
			{
				Field:   field,
				Message: message,
			},
		},
	}

	s.writeJSON(w, http.StatusBadRequest, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// reqID returns the id assigned by the RequestID middleware, or a fresh one
func reqID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return fmt.Sprintf("req_%d", time.Now().UnixNano())
}
