package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	phOtel "github.com/salamjillani/mauritius-property-hub/internal/adapter/otel"
	"github.com/salamjillani/mauritius-property-hub/internal/config"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
	"github.com/salamjillani/mauritius-property-hub/internal/middleware"
	"github.com/salamjillani/mauritius-property-hub/internal/service"
)

// NewRouter assembles the chi router. Listing reads are public with
// optional credentials; everything mutating requires a session, and the
// admin surface requires the admin role.
func NewRouter(h *Handler, authSvc *service.AuthService, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(Logger)
	r.Use(SecurityHeaders)
	r.Use(CORS(cfg.Server.CORSOrigin))
	if cfg.Otel.Enabled {
		r.Use(phOtel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(middleware.Auth(authSvc))

	r.Get("/health", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Get("/properties", h.listProperties)
		r.Get("/properties/{id}", h.getProperty)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/auth/me", h.me)

			r.Post("/properties", h.createProperty)
			r.Put("/properties/{id}", h.updateProperty)
			r.Delete("/properties/{id}", h.deleteProperty)

			r.Get("/subscriptions/me", h.mySubscription)
			r.Post("/subscriptions/{id}/feature-property", h.featureProperty)
			r.Post("/subscriptions/{id}/unfeature-property", h.unfeatureProperty)

			r.Post("/media", h.uploadMedia)

			r.Post("/registration-requests", h.applyForRole)

			r.Get("/notifications", h.listNotifications)
			r.Post("/notifications/{id}/read", h.markNotificationRead)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(user.RoleAdmin))

			r.Post("/admin/properties/{id}/approve", h.approveProperty)
			r.Post("/admin/properties/{id}/reject", h.rejectProperty)

			r.Post("/subscriptions", h.createSubscription)
			r.Put("/subscriptions/{id}", h.updateSubscription)

			r.Get("/admin/registration-requests", h.listRegistrationRequests)
			r.Post("/admin/registration-requests/{id}/approve", h.approveRegistration)
			r.Post("/admin/registration-requests/{id}/reject", h.rejectRegistration)
		})
	})

	return r
}
