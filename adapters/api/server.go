// Package api exposes the deployment engine as a REST server: one resource
// tree under /api/apps plus health and metrics endpoints.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/greenroom-dev/greenroom/internal/logging"
	"github.com/greenroom-dev/greenroom/usecase/app"
)

// HeaderDeploymentID carries the correlation ID of deploy and stop
// operations, on requests optionally and on responses always.
const HeaderDeploymentID = "X-Deployment-Id"

// Server handles the REST API on top of the app use cases.
type Server struct {
	app     *app.UseCase
	log     logging.Logger
	metrics *Metrics
}

// New builds a Server around the given use cases.
func New(uc *app.UseCase, log logging.Logger) *Server {
	return &Server{app: uc, log: log, metrics: NewMetrics()}
}

// Handler returns the routed HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(bodySizeLimit)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/apps", func(r chi.Router) {
		r.Get("/", s.listApps)
		r.Route("/{appName}", func(r chi.Router) {
			r.Post("/", s.deployApp)
			r.Delete("/", s.stopApp)
			r.Get("/status-changes/{deploymentId}", s.statusChange)
			r.Get("/logs/{serviceName}", s.serviceLogs)
			r.Put("/states/{serviceName}", s.changeServiceState)
		})
	})

	return r
}
