// Package server exposes the footprint store and region analysis over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/wegman-software/osm-footprints/internal/aggregate"
	"github.com/wegman-software/osm-footprints/internal/classify"
	"github.com/wegman-software/osm-footprints/internal/geomath"
	"github.com/wegman-software/osm-footprints/internal/logger"
	"github.com/wegman-software/osm-footprints/internal/metrics"
	"github.com/wegman-software/osm-footprints/internal/pipeline"
	"github.com/wegman-software/osm-footprints/internal/proj"
	"github.com/wegman-software/osm-footprints/internal/store"
)

const maxBodyBytes = 64 << 20

// Runner runs one region analysis
type Runner interface {
	Run(ctx context.Context, region geomath.Region) (*pipeline.Result, error)
}

// Server serves the footprint endpoints
type Server struct {
	store   *store.DirStore
	runner  Runner
	origins []string
	system  *metrics.Collector

	// serializes analysis runs; persistence is last write wins
	runMu sync.Mutex
}

// Option configures a Server
type Option func(*Server)

// WithRunner enables POST /api/analyze
func WithRunner(r Runner) Option {
	return func(s *Server) {
		s.runner = r
	}
}

// WithCORSOrigins sets the allowed cross-origin callers
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithCollector reports the latest resource usage sample on /health
func WithCollector(c *metrics.Collector) Option {
	return func(s *Server) {
		s.system = c
	}
}

// New creates a server backed by a directory store
func New(st *store.DirStore, opts ...Option) *Server {
	s := &Server{store: st, origins: []string{"*"}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post(store.SavePath, s.handleSave)
	r.Get("/analyze-footprints", s.handleAnalyzeFootprints)
	if s.runner != nil {
		r.Post("/api/analyze", s.handleAnalyzeRegion)
	}
	return r
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	log := logger.Get()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("Starting server", zap.String("addr", addr), zap.String("dir", s.store.Dir()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.system != nil {
		if sample, ok := s.system.Last(); ok {
			resp["system"] = sample
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var p store.Payload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if err := p.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	if err := s.store.Save(r.Context(), p); err != nil {
		logger.Get().Error("Failed to save footprints", zap.String("category", p.Category), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save footprints")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Footprints for %s saved successfully", p.Category),
	})
}

// GreenSummary is the response of GET /analyze-footprints
type GreenSummary struct {
	GreenFeatures    int     `json:"green_features"`
	TotalGreenAreaM2 float64 `json:"total_green_area_m2"`
}

func (s *Server) handleAnalyzeFootprints(w http.ResponseWriter, r *http.Request) {
	fc, err := s.store.Load(string(classify.Greenspace))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "greenspace.geojson not found")
		return
	}
	if err != nil {
		logger.Get().Error("Failed to load greenspace", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load greenspace.geojson")
		return
	}

	writeJSON(w, http.StatusOK, SummarizeGreenSpace(fc))
}

// SummarizeGreenSpace counts the features with a positive Web Mercator area
// and sums that area, rounded to centimeters
func SummarizeGreenSpace(fc *geojson.FeatureCollection) GreenSummary {
	var sum GreenSummary
	for _, f := range fc.Features {
		area := projectedArea(f.Geometry)
		if area > 0 {
			sum.TotalGreenAreaM2 += area
			sum.GreenFeatures++
		}
	}
	sum.TotalGreenAreaM2 = math.Round(sum.TotalGreenAreaM2*100) / 100
	return sum
}

// projectedArea is the Web Mercator planar area; non-areal geometry has none
func projectedArea(g orb.Geometry) float64 {
	switch g := g.(type) {
	case orb.Polygon:
		return proj.MercatorArea(g)
	case orb.MultiPolygon:
		var total float64
		for _, p := range g {
			total += proj.MercatorArea(p)
		}
		return total
	default:
		return 0
	}
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Region geomath.Region `json:"region"`
}

// AnalyzeResponse reports one pipeline run
type AnalyzeResponse struct {
	RunID         string             `json:"runId"`
	Metrics       aggregate.Snapshot `json:"metrics"`
	Accessibility *aggregate.Index   `json:"accessibility,omitempty"`
	Features      int                `json:"features"`
	Errors        []string           `json:"errors,omitempty"`
}

func (s *Server) handleAnalyzeRegion(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Region.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.runMu.Lock()
	res, err := s.runner.Run(r.Context(), req.Region)
	s.runMu.Unlock()
	if err != nil {
		logger.Get().Error("Analysis failed", zap.Stringer("region", req.Region), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := AnalyzeResponse{
		RunID:    res.RunID,
		Metrics:  res.Batch.Snapshot,
		Features: len(res.Batch.Features),
	}
	if res.Batch.IndexErr == nil {
		idx := res.Batch.Index
		resp.Accessibility = &idx
	}
	for _, e := range res.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
