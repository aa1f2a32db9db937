package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docukeep/session-guard/internal/application"
)

// Handler is the HTTP adapter entrypoint for guard use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers guard HTTP routes and middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/guard/v1", func(r chi.Router) {
		r.Post("/reverify/complete", handler.reverifyComplete)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/activity", handler.activity)
			r.Get("/idle", handler.idleState)
			r.Post("/idle/still-here", handler.stillHere)
			r.Post("/idle/logout", handler.logout)

			r.Post("/routes/{route_id}/enter", handler.enterRoute)
			r.Post("/visits/{visit_id}/guard", handler.guardVisit)
			r.Post("/visits/{visit_id}/passcode", handler.submitPasscode)
			r.Delete("/visits/{visit_id}", handler.leaveVisit)

			r.Get("/lock", handler.lockStatus)
			r.Put("/lock", handler.enableLock)
			r.Delete("/lock", handler.disableLock)
			r.Get("/lock/attempts", handler.attemptHistory)
		})
	})

	return r
}
