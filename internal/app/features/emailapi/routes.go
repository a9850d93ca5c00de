// internal/app/features/emailapi/routes.go
package emailapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openvolunteer/volunteerhub/internal/app/system/apicors"
)

// Routes returns a router with the email API endpoints.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())
	r.Post("/send", h.SendHandler)

	return r
}
