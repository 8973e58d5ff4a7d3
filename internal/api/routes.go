package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jobboard/tracker/internal/config"
	"github.com/jobboard/tracker/internal/controller"
	"github.com/jobboard/tracker/internal/ws"
)

// NewRouter mounts the HTML, JSON and live routes. The caller owns live and
// closes it on shutdown.
func NewRouter(cfg *config.Config, ctrl *controller.Controller, live *ws.Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	h := NewHandlers(cfg, ctrl)

	// Health & Info
	r.Get("/health", h.Health)
	r.Get("/info", h.Info)
	r.Get("/stats", h.Stats)

	// HTML board
	r.Get("/", h.Index)
	r.Post("/tabs/{filter}", h.SelectTabForm)
	r.Post("/jobs/{id}/toggle/{status}", h.ToggleForm)
	r.Post("/jobs/{id}/delete", h.DeleteForm)

	// JSON API
	r.Route("/api", func(r chi.Router) {
		r.Get("/view", h.GetView)
		r.Put("/filter", h.SetFilter)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Post("/jobs/{id}/toggle", h.ToggleJob)
		r.Delete("/jobs/{id}", h.DeleteJob)
	})

	// Live view
	r.Get("/ws", live.HandleSubscribe)

	return r
}
