package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/loader"
	"github.com/dgallion1/docnav/internal/navtree"
	"github.com/dgallion1/docnav/internal/pathstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Publisher pushes a table to an external store.
type Publisher interface {
	Publish(ctx context.Context, t *navtree.Table, prefix string) (pathstore.PublishStats, error)
}

// Server is the HTTP API server for docnav.
type Server struct {
	router    chi.Router
	current   atomic.Pointer[loader.Result]
	publisher Publisher
	log       *slog.Logger
	cfg       config.Config
}

// NewServer creates and configures the HTTP server around a loaded table.
// publisher may be nil, in which case publishing is unavailable.
func NewServer(res *loader.Result, publisher Publisher, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		publisher: publisher,
		log:       log,
		cfg:       cfg,
	}
	s.current.Store(res)
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Table returns the table currently being served.
func (s *Server) Table() *navtree.Table {
	return s.current.Load().Table
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/navtreedata.js", s.handleNavData)
	r.Get("/js/{file}", s.handleCompanion)

	r.Route("/api/navtree", func(r chi.Router) {
		r.Get("/", s.handleExport)
		r.Get("/stats", s.handleStats)
		r.Get("/index", s.handleIndex)
		r.Get("/index/{pos}", s.handleIndexAt)
		r.Get("/refs/{name}", s.handleRefs)
		r.Get("/locate", s.handleLocate)

		// Authenticated endpoints.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

			r.Post("/check", s.handleCheck)
			r.Post("/publish", s.handlePublish)
			r.Post("/reload", s.handleReload)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
