// internal/app/features/events/routes.go
package events

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openvolunteer/volunteerhub/internal/app/system/apicors"
)

// Routes returns a router with the event API endpoints.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())

	r.Get("/", h.ListHandler)
	r.Post("/", h.CreateHandler)
	r.Get("/stats", h.AllStatsHandler)
	r.Get("/overview", h.OverviewHandler)

	r.Route("/{id}", func(er chi.Router) {
		er.Get("/", h.GetHandler)
		er.Delete("/", h.DeleteHandler)
		er.Post("/register", h.RegisterHandler)
		er.Post("/feedback", h.FeedbackHandler)
		er.Post("/reviews", h.ReviewHandler)
		er.Get("/stats", h.StatsHandler)
		er.Get("/progress", h.ProgressHandler)
		er.Get("/report", h.ReportHandler)
		er.Get("/registered-volunteers", h.RegisteredVolunteersHandler)
		er.Get("/potential-volunteers", h.PotentialVolunteersHandler)
		er.Get("/tasks", h.TasksHandler)
	})

	return r
}
