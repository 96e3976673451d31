package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nao1215/siteparser/internal/config"
	"github.com/nao1215/siteparser/internal/metrics"
	"github.com/nao1215/siteparser/internal/parser"
)

// requestTimeout bounds one API request end to end. It sits above the
// largest crawl budget an override can ask for.
const requestTimeout = 3620 * time.Second

// Server routes HTTP requests to the crawl engine.
type Server struct {
	router  chi.Router
	baseCfg *config.Config
	logger  *slog.Logger
}

// parseRequest is the body of POST /api/parse.
type parseRequest struct {
	// URL is the start URL. Required.
	URL string `json:"url"`

	// Config optionally names a TOML/JSON config file on the server.
	Config string `json:"config,omitempty"`

	// Overrides are validated field overrides merged over the config.
	Overrides map[string]any `json:"overrides,omitempty"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Detail string `json:"detail"`
}

// NewServer constructs a Server over a base configuration. Per-request
// config files and overrides are layered on top of it.
func NewServer(baseCfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{baseCfg: baseCfg, logger: logger}

	metrics.Init()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/api/health", s.health)
	r.Post("/api/parse", s.parse)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusUnprocessableEntity, "url is required")
		return
	}

	cfg := s.baseCfg
	if req.Config != "" {
		loaded, err := config.Load(req.Config)
		if err != nil {
			writeError(w, http.StatusBadRequest, "config: "+err.Error())
			return
		}
		cfg = loaded
	}
	if len(req.Overrides) > 0 {
		merged, err := config.ApplyOverrides(cfg, req.Overrides)
		if err != nil {
			writeError(w, http.StatusBadRequest, "overrides: "+err.Error())
			return
		}
		cfg = merged
	}

	result, err := parser.ParseSite(r.Context(), req.URL, cfg, parser.WithLogger(s.logger))
	if err != nil {
		if errors.Is(err, parser.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("unexpected parse failure", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
