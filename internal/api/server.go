// Package api serves health, metrics, and read-only earthquake endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/quake-cli/internal/apperr"
	"github.com/sells-group/quake-cli/internal/geo"
	"github.com/sells-group/quake-cli/internal/store"
)

// Query limits for /v1/quakes and /v1/runs.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Server exposes the HTTP routes over a store.
type Server struct {
	httpServer *http.Server
	store      store.Store
}

// NewServer creates a server with /healthz, /readyz, /metrics, and the /v1
// read routes.
func NewServer(addr string, s store.Store) *Server {
	srv := &Server{store: s}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", srv.handleHealth)
	r.Get("/readyz", srv.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/quakes", srv.handleQuakes)
		r.Get("/runs", srv.handleRuns)
		r.Get("/antipode", srv.handleAntipode)
	})

	srv.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	zap.L().Info("http server starting", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the ctx deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleQuakes returns matching rows as a GeoJSON FeatureCollection.
func (s *Server) handleQuakes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	opts := store.SearchOpts{Limit: limit}
	if v := q.Get("min_mag"); v != "" {
		m, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, apperr.Lookup(eris.Errorf("api: min_mag %q is not a number", v)))
			return
		}
		opts.MinMagnitude = &m
	}
	if v := q.Get("columns"); v != "" {
		opts.Columns = withCoordinates(strings.Split(v, ","))
	}

	rows, err := s.store.Search(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	for rec, err := range rows {
		if err != nil {
			writeError(w, err)
			return
		}
		f, err := toFeature(rec)
		if err != nil {
			writeError(w, err)
			return
		}
		fc.Features = append(fc.Features, f)
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(fc) //nolint:errcheck
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, err)
		return
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []store.RunEntry{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleAntipode(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	if errLon != nil || errLat != nil {
		writeError(w, apperr.Lookup(eris.New("api: lon and lat are required numbers")))
		return
	}
	p, err := geo.AntipodePoint(geo.Point(lon, lat))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &geojson.Feature{
		Geometry:   p,
		Properties: map[string]any{"source_longitude": lon, "source_latitude": lat},
	})
}

// toFeature turns a search row into a point feature keyed by usgs_id.
func toFeature(rec map[string]any) (*geojson.Feature, error) {
	lon, okLon := rec[store.LongitudeColumn].(float64)
	lat, okLat := rec[store.LatitudeColumn].(float64)
	if !okLon || !okLat {
		return nil, apperr.Lookup(eris.Errorf("api: row %v has no coordinates", rec[store.KeyColumn]))
	}
	id, _ := rec[store.KeyColumn].(string)

	props := make(map[string]any, len(rec))
	for k, v := range rec {
		switch k {
		case store.KeyColumn, store.LongitudeColumn, store.LatitudeColumn:
		default:
			props[k] = v
		}
	}
	return &geojson.Feature{
		ID:         id,
		Geometry:   geo.Point(lon, lat),
		Properties: props,
	}, nil
}

// withCoordinates makes sure a requested column list can build features.
func withCoordinates(cols []string) []string {
	out := make([]string, 0, len(cols)+3)
	seen := make(map[string]bool, len(cols)+3)
	for _, c := range append([]string{store.KeyColumn, store.LongitudeColumn, store.LatitudeColumn}, cols...) {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, apperr.Lookup(eris.Errorf("api: limit %q must be a positive integer", v))
	}
	return min(n, MaxLimit), nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindLookup, apperr.KindConfiguration:
		status = http.StatusBadRequest
	case apperr.KindConnection:
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
