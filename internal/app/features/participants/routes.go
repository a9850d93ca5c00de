// internal/app/features/participants/routes.go
package participants

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openvolunteer/volunteerhub/internal/app/system/apicors"
)

// Routes returns a router with the participant API endpoints.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())

	r.Post("/signup", h.SignupHandler)
	r.Get("/{id}", h.GetHandler)
	r.Get("/{id}/events", h.EventsHandler)

	return r
}
