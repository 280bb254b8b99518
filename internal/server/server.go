// Package server exposes the grid search engine and store over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/rankgrid/internal/model"
	"github.com/sells-group/rankgrid/internal/search"
	"github.com/sells-group/rankgrid/internal/store"
)

// Server handles the HTTP API: run a grid search, list stored runs, and
// fetch one run with its full result.
type Server struct {
	engine *search.Engine
	store  store.Store
	log    *zap.Logger
}

// New creates a server. The store may be nil, which disables the read
// endpoints with 503 responses.
func New(engine *search.Engine, st store.Store) *Server {
	return &Server{
		engine: engine,
		store:  st,
		log:    zap.L().With(zap.String("component", "server")),
	}
}

// Routes mounts the API on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/grid-search", s.handleGridSearch)
		r.Get("/searches", s.handleListSearches)
		r.Get("/searches/{id}", s.handleGetSearch)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGridSearch(w http.ResponseWriter, r *http.Request) {
	var cfg model.SearchConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.engine.Run(r.Context(), cfg)
	if err != nil {
		if cfg.Validate() != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Error("grid search failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "grid search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":      res.SessionID,
		"elapsed_seconds": res.Elapsed.Seconds(),
		"result":          res.Result,
	})
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	q := r.URL.Query()
	filter := store.SearchFilter{
		City:  q.Get("city"),
		State: q.Get("state"),
		Mode:  model.SearchMode(q.Get("mode")),
		Limit: 20,
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	searches, err := s.store.ListSearches(r.Context(), filter)
	if err != nil {
		s.log.Error("list searches failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list searches failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"searches": searches})
}

func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	id := chi.URLParam(r, "id")
	gs, err := s.store.GetSearch(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "search not found")
			return
		}
		s.log.Error("get search failed", zap.Error(err), zap.String("id", id))
		writeError(w, http.StatusInternalServerError, "get search failed")
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
