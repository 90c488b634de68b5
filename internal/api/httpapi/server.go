// Package httpapi exposes the turn resolution engine over HTTP: action
// submission, readiness checks, turn resolution, and read access to results,
// resources, and the audit trail.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/louisbranch/concord.quest/internal/api/readywatch"
	"github.com/louisbranch/concord.quest/internal/game/catalog"
	"github.com/louisbranch/concord.quest/internal/game/engine"
	"github.com/louisbranch/concord.quest/internal/game/ledger"
	"github.com/louisbranch/concord.quest/internal/storage"
)

// Server routes engine operations over HTTP.
type Server struct {
	engine  *engine.Engine
	stores  storage.Stores
	ledger  *ledger.Ledger
	catalog *catalog.Catalog
	hub     *readywatch.Hub
	logger  zerolog.Logger
	router  chi.Router
	locks   *resolveLocks
}

// New constructs a server, installs middleware, and registers routes.
func New(eng *engine.Engine, stores storage.Stores, l *ledger.Ledger, cat *catalog.Catalog, hub *readywatch.Hub, logger zerolog.Logger) *Server {
	s := &Server{
		engine:  eng,
		stores:  stores,
		ledger:  l,
		catalog: cat,
		hub:     hub,
		logger:  logger,
		locks:   newResolveLocks(),
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Post("/participants", s.handleEnrollParticipant)
		r.Route("/turns/{turn}", func(r chi.Router) {
			r.Post("/actions", s.handleSubmitAction)
			r.Get("/readiness", s.handleReadiness)
			r.Get("/readiness/watch", s.handleReadinessWatch)
			r.Post("/resolve", s.handleResolve)
			r.Get("/result", s.handleResult)
			r.Get("/resources", s.handleResources)
		})
		r.Get("/audit", s.handleAudit)
	})

	return r
}

// Router exposes the router for embedding and tests.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
