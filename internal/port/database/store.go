// Package database defines the database store port (interface).
package database

import (
	"context"
	"time"

	"github.com/salamjillani/mauritius-property-hub/internal/domain/agency"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/notification"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/property"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/registration"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/subscription"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
)

// PropertyFilter narrows listing queries.
type PropertyFilter struct {
	Category property.Category
	Type     property.Type
	City     string
	Statuses []property.Status
	OwnerID  string
	Featured *bool
	Limit    int
	Offset   int
}

// Reservation is one ledger slot reservation recorded for crash
// compensation. A reservation is pending until the listing it paid for is
// persisted, committed afterwards, and released when compensated or when
// the listing is deleted.
type Reservation struct {
	ID             string
	SubscriptionID string
	PropertyID     string
	State          string // "pending", "committed", "released"
	CreatedAt      time.Time
}

// Reservation states.
const (
	ReservationPending   = "pending"
	ReservationCommitted = "committed"
	ReservationReleased  = "released"
)

// Store is the port interface for database operations.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUser(ctx context.Context, u *user.User) error
	ListAdminIDs(ctx context.Context) ([]string, error)
	// DebitGoldCard atomically decrements the user's gold card allowance,
	// failing with domain.ErrGoldCardExhausted at zero.
	DebitGoldCard(ctx context.Context, userID string) error
	// RefundGoldCard increments the allowance back.
	RefundGoldCard(ctx context.Context, userID string) error

	// Agents, agencies, promoters
	CreateAgent(ctx context.Context, a *agency.Agent) error
	GetAgent(ctx context.Context, id string) (*agency.Agent, error)
	GetAgentByUserID(ctx context.Context, userID string) (*agency.Agent, error)
	FirstApprovedAgent(ctx context.Context, agencyID string) (*agency.Agent, error)
	CreateAgency(ctx context.Context, a *agency.Agency) error
	GetAgency(ctx context.Context, id string) (*agency.Agency, error)
	GetAgencyByUserID(ctx context.Context, userID string) (*agency.Agency, error)
	CreatePromoter(ctx context.Context, p *agency.Promoter) error

	// Registration requests
	CreateRegistrationRequest(ctx context.Context, r *registration.Request) error
	GetRegistrationRequest(ctx context.Context, id string) (*registration.Request, error)
	PendingRegistrationByUser(ctx context.Context, userID string) (*registration.Request, error)
	ListRegistrationRequests(ctx context.Context, status registration.Status) ([]registration.Request, error)
	UpdateRegistrationStatus(ctx context.Context, id string, status registration.Status, reviewedBy string) error

	// Subscriptions (ledger)
	CreateSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, id string) (*subscription.Subscription, error)
	GetSubscriptionByUserID(ctx context.Context, userID string) (*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, s *subscription.Subscription) error
	// ReserveSlot atomically checks capacity and increments listings_used,
	// recording a pending reservation. Fails with domain.ErrQuotaExceeded
	// when the ceiling is reached.
	ReserveSlot(ctx context.Context, subscriptionID string) (*Reservation, error)
	// CompensateReservation releases a still-pending reservation and
	// decrements listings_used. Idempotent: released reservations are left
	// alone.
	CompensateReservation(ctx context.Context, reservationID string) error
	// StaleReservations returns pending reservations older than the cutoff.
	StaleReservations(ctx context.Context, olderThan time.Time) ([]Reservation, error)
	// ReserveFeaturedSlot atomically checks the platinum plan and the
	// featured cap, then records the property as featured.
	ReserveFeaturedSlot(ctx context.Context, subscriptionID, propertyID string) error
	// ReleaseFeaturedSlot removes the property from the featured set.
	// Idempotent.
	ReleaseFeaturedSlot(ctx context.Context, subscriptionID, propertyID string) error
	ListFeatured(ctx context.Context, subscriptionID string) ([]string, error)

	// Properties
	// CreateProperty persists the listing and commits its reservation in
	// one transaction. reservationID may be empty for admin-created
	// listings that consumed no quota.
	CreateProperty(ctx context.Context, p *property.Property, reservationID string) error
	GetProperty(ctx context.Context, id string) (*property.Property, error)
	ListProperties(ctx context.Context, f PropertyFilter) ([]property.Property, error)
	UpdateProperty(ctx context.Context, p *property.Property) error
	// UpdatePropertyStatus writes only the status and rejection reason;
	// concurrent approve/reject resolve last-writer-wins on these fields.
	UpdatePropertyStatus(ctx context.Context, id string, status property.Status, rejectionReason string) error
	// DeletePropertyAndRelease removes the listing and, in the same
	// transaction, releases its slot and featured slot. Idempotent against
	// double release.
	DeletePropertyAndRelease(ctx context.Context, p *property.Property, subscriptionID string) error

	// Notifications
	CreateNotification(ctx context.Context, n *notification.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}
