// internal/app/features/reports/routes.go
package reports

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openvolunteer/volunteerhub/internal/app/system/apicors"
	"github.com/openvolunteer/volunteerhub/internal/app/system/auth"
	"go.uber.org/zap"
)

// Routes returns a router with the report API endpoints. When apiKey is
// non-empty the whole surface requires "Authorization: Bearer <api-key>".
func Routes(h *Handler, apiKey string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())
	if apiKey != "" {
		r.Use(auth.APIKeyAuth(apiKey, logger))
	}

	r.Get("/events", h.EventsHandler)
	r.Get("/categories", h.CategoriesHandler)
	r.Get("/dashboard", h.DashboardHandler)
	r.Get("/activities", h.ActivitiesHandler)
	r.Get("/volunteer-overview", h.VolunteerOverviewHandler)
	r.Get("/event-detail", h.EventDetailHandler)

	return r
}
