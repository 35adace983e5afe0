package http

import (
	"log/slog"
	"net/http"

	"github.com/salamjillani/mauritius-property-hub/internal/domain/authz"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
	"github.com/salamjillani/mauritius-property-hub/internal/middleware"
	"github.com/salamjillani/mauritius-property-hub/internal/service"
)

// Handler bundles the application services behind the REST surface.
type Handler struct {
	auth          *service.AuthService
	listings      *service.ListingService
	ledger        *service.LedgerService
	registrations *service.RegistrationService
	notifications *service.NotificationService
	log           *slog.Logger
}

// NewHandler creates the HTTP handler set.
func NewHandler(
	auth *service.AuthService,
	listings *service.ListingService,
	ledger *service.LedgerService,
	registrations *service.RegistrationService,
	notifications *service.NotificationService,
	log *slog.Logger,
) *Handler {
	return &Handler{
		auth:          auth,
		listings:      listings,
		ledger:        ledger,
		registrations: registrations,
		notifications: notifications,
		log:           log,
	}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionUser returns the authenticated user, or nil for anonymous.
func sessionUser(r *http.Request) *user.User {
	return middleware.UserFromContext(r.Context())
}

// actorFrom builds the authz actor for a request. Routes behind
// RequireAuth always have a user.
func actorFrom(r *http.Request) authz.Actor {
	u := sessionUser(r)
	return authz.Actor{ID: u.ID, Role: u.Role}
}
