package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/authz"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/property"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/subscription"
	"github.com/salamjillani/mauritius-property-hub/internal/port/cache"
	"github.com/salamjillani/mauritius-property-hub/internal/port/database"
	"github.com/salamjillani/mauritius-property-hub/internal/port/messagequeue"
)

// LedgerService manages subscription ledgers and their slot accounting.
// All featuring flows through ReserveFeaturedSlot here, whether triggered
// by the create payload or the feature endpoint: the ledger is the single
// authoritative path.
type LedgerService struct {
	store database.Store
	queue messagequeue.Queue
	cache cache.Cache
	log   *slog.Logger
}

// NewLedgerService creates a LedgerService.
func NewLedgerService(store database.Store, queue messagequeue.Queue, c cache.Cache, log *slog.Logger) *LedgerService {
	return &LedgerService{store: store, queue: queue, cache: c, log: log}
}

// CreateSubscription provisions a ledger for a user. Admin-only at the
// HTTP boundary; plan and status are settled facts from billing.
func (s *LedgerService) CreateSubscription(ctx context.Context, req *subscription.CreateRequest) (*subscription.Subscription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = subscription.StatusActive
	}

	sub := &subscription.Subscription{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		Plan:           req.Plan,
		ListingLimit:   req.ListingLimit,
		Status:         status,
		ExpirationDate: req.ExpirationDate,
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// UpdateSubscription adjusts plan, limit, status, or expiration.
// listings_used is never writable here: only the reserve/release ops
// touch it.
func (s *LedgerService) UpdateSubscription(ctx context.Context, id string, req *subscription.UpdateRequest) (*subscription.Subscription, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Plan != "" {
		sub.Plan = req.Plan
	}
	if req.ListingLimit != nil {
		sub.ListingLimit = *req.ListingLimit
	}
	if req.Status != "" {
		sub.Status = req.Status
	}
	if req.ExpirationDate != nil {
		sub.ExpirationDate = *req.ExpirationDate
	}

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetByUser returns the ledger for a user.
func (s *LedgerService) GetByUser(ctx context.Context, userID string) (*subscription.Subscription, error) {
	return s.store.GetSubscriptionByUserID(ctx, userID)
}

// FeatureProperty moves a listing into the subscription's featured set.
// The plan and cap checks happen inside the store under a row lock.
func (s *LedgerService) FeatureProperty(ctx context.Context, actor authz.Actor, subscriptionID, propertyID string) error {
	p, sub, err := s.resolveFeatureTarget(ctx, actor, subscriptionID, propertyID)
	if err != nil {
		return err
	}

	if err := s.store.ReserveFeaturedSlot(ctx, sub.ID, p.ID); err != nil {
		return err
	}

	p.IsFeatured = true
	if err := s.store.UpdateProperty(ctx, p); err != nil {
		// Roll the slot back so the ledger does not count a listing that
		// never became featured.
		if relErr := s.store.ReleaseFeaturedSlot(ctx, sub.ID, p.ID); relErr != nil {
			s.log.Error("featured slot rollback failed",
				"subscription_id", sub.ID, "property_id", p.ID, "error", relErr)
		}
		return err
	}

	s.invalidate(ctx, p.ID)
	s.publishFeatured(ctx, p.ID, true)
	return nil
}

// UnfeatureProperty removes a listing from the featured set. Releasing a
// listing that is not featured is a no-op.
func (s *LedgerService) UnfeatureProperty(ctx context.Context, actor authz.Actor, subscriptionID, propertyID string) error {
	p, sub, err := s.resolveFeatureTarget(ctx, actor, subscriptionID, propertyID)
	if err != nil {
		return err
	}

	if err := s.store.ReleaseFeaturedSlot(ctx, sub.ID, p.ID); err != nil {
		return err
	}

	if p.IsFeatured {
		p.IsFeatured = false
		if err := s.store.UpdateProperty(ctx, p); err != nil {
			return err
		}
	}

	s.invalidate(ctx, p.ID)
	s.publishFeatured(ctx, p.ID, false)
	return nil
}

// resolveFeatureTarget loads the listing and subscription for a feature
// operation, verifying the actor and that the subscription actually
// belongs to the listing's owner.
func (s *LedgerService) resolveFeatureTarget(ctx context.Context, actor authz.Actor, subscriptionID, propertyID string) (*property.Property, *subscription.Subscription, error) {
	p, err := s.store.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	if err := authz.CheckOwnerOrAdmin(actor, p.OwnerID); err != nil {
		return nil, nil, err
	}

	sub, err := s.store.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, nil, err
	}
	if sub.UserID != p.OwnerID {
		return nil, nil, fmt.Errorf("%w: subscription does not belong to the listing owner", domain.ErrForbidden)
	}
	return p, sub, nil
}

func (s *LedgerService) invalidate(ctx context.Context, propertyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listingCacheKey(propertyID)); err != nil {
		s.log.Warn("cache invalidation failed", "property_id", propertyID, "error", err)
	}
}

func (s *LedgerService) publishFeatured(ctx context.Context, propertyID string, featured bool) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"property_id": propertyID,
		"featured":    featured,
		"at":          time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectListingFeatured, payload); err != nil {
		s.log.Warn("event publish failed",
			"subject", messagequeue.SubjectListingFeatured, "error", err)
	}
}
