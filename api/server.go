// Package api exposes the experimentation core over HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gosplit/app"
)

// Server wires the core into a chi router
type Server struct {
	core   *app.Core
	router *chi.Mux
}

// NewServer creates the HTTP surface for a core
func NewServer(core *app.Core) *Server {
	s := &Server{
		core:   core,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root http handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Route("/experiments", func(r chi.Router) {
		r.Post("/", s.handleCreateExperiment)
		r.Get("/", s.handleListExperiments)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetExperiment)
			r.Post("/start", s.handleStartExperiment)
			r.Post("/stop", s.handleStopExperiment)
			r.Post("/pause", s.handlePauseExperiment)
			r.Post("/resume", s.handleResumeExperiment)
			r.Get("/results", s.handleGetResults)
			r.Get("/report", s.handleGetReport)
		})
	})

	s.router.Post("/assignments", s.handleAssign)
	s.router.Post("/events", s.handleTrackEvent)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}
