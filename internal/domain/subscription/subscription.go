// Package subscription defines the subscription ledger domain model.
// A subscription meters how many listings its owner may publish and how
// many of those may occupy featured placement slots.
package subscription

import (
	"fmt"
	"time"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
)

// Plan is the paid tier of a subscription.
type Plan string

const (
	PlanBasic    Plan = "basic"
	PlanElite    Plan = "elite"
	PlanPlatinum Plan = "platinum"
)

// ValidPlans is the set of all valid subscription plans.
var ValidPlans = map[Plan]bool{
	PlanBasic:    true,
	PlanElite:    true,
	PlanPlatinum: true,
}

// Status is the billing state of a subscription. Plan and status are
// settled facts supplied by the external billing process.
type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
	StatusExpired Status = "expired"
)

// UnlimitedListings is the sentinel listing limit meaning no ceiling.
const UnlimitedListings = -1

// FeaturedCapRatio is the fraction of the listing limit available as
// featured slots.
const FeaturedCapRatio = 0.25

// Subscription meters listing and featured-slot usage for one user or agency.
type Subscription struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Plan             Plan      `json:"plan"`
	ListingLimit     int       `json:"listing_limit"` // UnlimitedListings means no ceiling
	ListingsUsed     int       `json:"listings_used"`
	FeaturedListings []string  `json:"featured_listings"` // property IDs
	Status           Status    `json:"status"`
	ExpirationDate   time.Time `json:"expiration_date"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Unlimited reports whether the subscription has no listing ceiling.
func (s *Subscription) Unlimited() bool { return s.ListingLimit == UnlimitedListings }

// FeaturedCap returns the maximum number of featured slots for the
// subscription: floor(listingLimit * 0.25). Unlimited subscriptions have
// no featured cap.
func (s *Subscription) FeaturedCap() int {
	if s.Unlimited() {
		return UnlimitedListings
	}
	return FeaturedCap(s.ListingLimit)
}

// FeaturedCap computes floor(limit * FeaturedCapRatio) for a finite limit.
func FeaturedCap(limit int) int {
	return int(float64(limit) * FeaturedCapRatio)
}

// HasCapacity reports whether one more listing fits under the limit.
func (s *Subscription) HasCapacity() bool {
	return s.Unlimited() || s.ListingsUsed < s.ListingLimit
}

// AllowsFeatured reports whether the plan permits featured placement.
func (s *Subscription) AllowsFeatured() bool {
	return s.Plan == PlanElite || s.Plan == PlanPlatinum
}

// AllowsPremium reports whether the plan permits premium placement.
func (s *Subscription) AllowsPremium() bool {
	return s.Plan != PlanBasic
}

// CreateRequest is the admin input for creating a subscription ledger.
type CreateRequest struct {
	UserID         string    `json:"user_id"`
	Plan           Plan      `json:"plan"`
	ListingLimit   int       `json:"listing_limit"`
	Status         Status    `json:"status"`
	ExpirationDate time.Time `json:"expiration_date"`
}

// Validate checks the CreateRequest fields.
func (r *CreateRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user_id is required", domain.ErrValidation)
	}
	if !ValidPlans[r.Plan] {
		return fmt.Errorf("%w: invalid plan %q (must be basic, elite, or platinum)", domain.ErrValidation, r.Plan)
	}
	if r.ListingLimit < 0 && r.ListingLimit != UnlimitedListings {
		return fmt.Errorf("%w: listing_limit must be non-negative or %d for unlimited", domain.ErrValidation, UnlimitedListings)
	}
	switch r.Status {
	case StatusActive, StatusPending, StatusExpired, "":
	default:
		return fmt.Errorf("%w: invalid status %q", domain.ErrValidation, r.Status)
	}
	return nil
}

// UpdateRequest is the admin input for adjusting plan, limit, or status.
type UpdateRequest struct {
	Plan           Plan       `json:"plan,omitempty"`
	ListingLimit   *int       `json:"listing_limit,omitempty"`
	Status         Status     `json:"status,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// Validate checks the UpdateRequest fields.
func (r *UpdateRequest) Validate() error {
	if r.Plan != "" && !ValidPlans[r.Plan] {
		return fmt.Errorf("%w: invalid plan %q", domain.ErrValidation, r.Plan)
	}
	if r.ListingLimit != nil && *r.ListingLimit < 0 && *r.ListingLimit != UnlimitedListings {
		return fmt.Errorf("%w: listing_limit must be non-negative or %d for unlimited", domain.ErrValidation, UnlimitedListings)
	}
	switch r.Status {
	case StatusActive, StatusPending, StatusExpired, "":
	default:
		return fmt.Errorf("%w: invalid status %q", domain.ErrValidation, r.Status)
	}
	return nil
}
