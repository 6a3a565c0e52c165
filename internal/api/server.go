// Package api serves log searches over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"logreader/internal/resolver"
	"logreader/internal/search"
	"logreader/internal/store"
)

// History is the part of the store the API uses.
type History interface {
	RecordSearch(sn, pn string, results int) error
	RecentSearches(limit int) ([]store.Search, error)
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	searcher *search.Searcher
	roots    []string
	resolver resolver.Resolver
	history  History
	log      *zap.Logger
}

// NewServer creates and configures the HTTP server. res and history may be nil.
func NewServer(searcher *search.Searcher, roots []string, res resolver.Resolver, history History, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		searcher: searcher,
		roots:    roots,
		resolver: res,
		history:  history,
		log:      log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/resolve", s.handleResolve)
		r.Get("/history", s.handleHistory)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
