// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	emailapifeature "github.com/openvolunteer/volunteerhub/internal/app/features/emailapi"
	eventsfeature "github.com/openvolunteer/volunteerhub/internal/app/features/events"
	healthfeature "github.com/openvolunteer/volunteerhub/internal/app/features/health"
	participantsfeature "github.com/openvolunteer/volunteerhub/internal/app/features/participants"
	reportsfeature "github.com/openvolunteer/volunteerhub/internal/app/features/reports"
	volunteersfeature "github.com/openvolunteer/volunteerhub/internal/app/features/volunteers"
	eventstore "github.com/openvolunteer/volunteerhub/internal/app/store/events"
	outboxstore "github.com/openvolunteer/volunteerhub/internal/app/store/outbox"
	participantstore "github.com/openvolunteer/volunteerhub/internal/app/store/participants"
	userstore "github.com/openvolunteer/volunteerhub/internal/app/store/users"
	"github.com/openvolunteer/volunteerhub/internal/app/system/notify"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// The whole surface is a JSON API, so the middleware stack is slim: request
// timeout, CORS, and security headers. Per-feature routers add their own
// middleware (the reports router gates on the API key, for example).
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Stores over the shared MongoDB database.
	users := userstore.New(deps.MongoDatabase)
	events := eventstore.New(deps.MongoDatabase)
	participants := participantstore.New(deps.MongoDatabase)
	outbox := outboxstore.New(deps.MongoDatabase)

	// The enqueuer writes notification emails to the outbox; the worker
	// started in Startup delivers them.
	enq := notify.NewEnqueuer(outbox, logger)

	eventsHandler := eventsfeature.NewHandler(events, users, participants, enq, logger)
	volunteersHandler := volunteersfeature.NewHandler(users, events, participants, enq, deps.Redis, appCfg.LeaderboardCacheTTL, logger)
	participantsHandler := participantsfeature.NewHandler(participants, events, logger)
	reportsHandler := reportsfeature.NewHandler(events, users, participants, logger)
	emailHandler := emailapifeature.NewHandler(enq, logger)
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)

	r := chi.NewRouter()

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.Route("/api", func(api chi.Router) {
		api.Mount("/events", eventsfeature.Routes(eventsHandler))
		api.Mount("/volunteers", volunteersfeature.Routes(volunteersHandler))
		api.Mount("/participants", participantsfeature.Routes(participantsHandler))
		api.Mount("/reports", reportsfeature.Routes(reportsHandler, appCfg.APIKey, logger))
		api.Mount("/email", emailapifeature.Routes(emailHandler))
	})

	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	return r, nil
}
