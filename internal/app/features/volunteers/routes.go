// internal/app/features/volunteers/routes.go
package volunteers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openvolunteer/volunteerhub/internal/app/system/apicors"
)

// Routes returns a router with the volunteer API endpoints.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())

	r.Post("/register", h.RegisterHandler)
	r.Post("/login", h.LoginHandler)
	r.Post("/", h.AddHandler)
	r.Get("/", h.ListHandler)
	r.Get("/leaderboard", h.LeaderboardHandler)
	r.Get("/ranks", h.RanksHandler)
	r.Get("/id-by-email", h.IDByEmailHandler)
	r.Post("/tasks", h.BulkAssignTaskHandler)
	r.Post("/participation", h.ParticipationHandler)

	r.Route("/{id}", func(vr chi.Router) {
		vr.Get("/", h.GetHandler)
		vr.Put("/", h.UpdateHandler)
		vr.Post("/tasks", h.AssignTaskHandler)
		vr.Put("/tasks/status", h.TaskStatusHandler)
		vr.Post("/event-requests", h.EventRequestHandler)
		vr.Post("/points", h.AddPointsHandler)
	})

	return r
}
