package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	phOtel "github.com/salamjillani/mauritius-property-hub/internal/adapter/otel"
	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/authz"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/notification"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/property"
	"github.com/salamjillani/mauritius-property-hub/internal/port/cache"
	"github.com/salamjillani/mauritius-property-hub/internal/port/database"
	"github.com/salamjillani/mauritius-property-hub/internal/port/media"
	"github.com/salamjillani/mauritius-property-hub/internal/port/messagequeue"
	"github.com/salamjillani/mauritius-property-hub/internal/port/notifier"
)

func listingCacheKey(id string) string { return "listing:" + id }

// ListingService orchestrates the listing lifecycle: creation with quota
// reservation and compensation, owner and admin status changes, viewer
// projection on reads, and deletion with slot release.
type ListingService struct {
	store         database.Store
	resolver      *authz.Resolver
	notifications *NotificationService
	queue         messagequeue.Queue
	cache         cache.Cache
	media         media.Store
	metrics       *phOtel.Metrics
	cacheTTL      time.Duration
	log           *slog.Logger
}

// NewListingService creates a ListingService. queue, cache, media, and
// metrics may be nil; the corresponding side effects are skipped.
func NewListingService(
	store database.Store,
	resolver *authz.Resolver,
	notifications *NotificationService,
	queue messagequeue.Queue,
	c cache.Cache,
	m media.Store,
	metrics *phOtel.Metrics,
	cacheTTL time.Duration,
	log *slog.Logger,
) *ListingService {
	return &ListingService{
		store:         store,
		resolver:      resolver,
		notifications: notifications,
		queue:         queue,
		cache:         c,
		media:         m,
		metrics:       metrics,
		cacheTTL:      cacheTTL,
		log:           log,
	}
}

// Create submits a new listing. For non-admin actors the path is:
// resolve association → check plan eligibility → debit gold card →
// reserve a quota slot (and a featured slot when requested) → persist as
// pending. Every acquired resource is compensated when a later step
// fails. Admins are operators: their listings consume no quota.
func (s *ListingService) Create(ctx context.Context, actor authz.Actor, req *property.CreateRequest) (*property.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()

	p := &property.Property{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Description:    req.Description,
		Address:        req.Address,
		Location:       req.Location,
		Price:          req.Price,
		Currency:       req.Currency,
		Category:       req.Category,
		Type:           req.Type,
		Size:           req.Size,
		Bedrooms:       req.Bedrooms,
		Bathrooms:      req.Bathrooms,
		Amenities:      req.Amenities,
		Images:         req.Images,
		Status:         property.StatusPending, // always, regardless of payload
		IsPremium:      req.IsPremium,
		IsGoldCard:     req.IsGoldCard,
		ContactDetails: req.ContactDetails,
		OwnerID:        actor.ID,
	}

	if actor.IsAdmin() {
		p.IsFeatured = req.IsFeatured
		if err := s.store.CreateProperty(ctx, p, ""); err != nil {
			return nil, err
		}
		s.afterCreate(ctx, p)
		return p, nil
	}

	assoc, err := s.resolver.ResolveCreate(ctx, actor, req.AgentID)
	if err != nil {
		return nil, err
	}
	p.AgentID = assoc.AgentID
	p.AgencyID = assoc.AgencyID

	sub, err := s.store.GetSubscriptionByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no subscription ledger for this account", domain.ErrForbidden)
		}
		return nil, err
	}

	// Eligibility before any ledger mutation.
	if err := authz.CheckFeatureEligibility(sub, req.IsFeatured, req.IsPremium); err != nil {
		return nil, err
	}

	goldDebited := false
	if req.IsGoldCard {
		if err := s.store.DebitGoldCard(ctx, actor.ID); err != nil {
			return nil, err
		}
		goldDebited = true
	}

	reservation, err := s.store.ReserveSlot(ctx, sub.ID)
	if err != nil {
		s.refundGoldCard(ctx, goldDebited, actor.ID)
		if errors.Is(err, domain.ErrQuotaExceeded) && s.metrics != nil {
			s.metrics.QuotaDenied.Add(ctx, 1)
		}
		return nil, err
	}

	featuredHeld := false
	if req.IsFeatured {
		if err := s.store.ReserveFeaturedSlot(ctx, sub.ID, p.ID); err != nil {
			s.compensate(ctx, reservation.ID)
			s.refundGoldCard(ctx, goldDebited, actor.ID)
			return nil, err
		}
		featuredHeld = true
		p.IsFeatured = true
	}

	if err := s.store.CreateProperty(ctx, p, reservation.ID); err != nil {
		if featuredHeld {
			if relErr := s.store.ReleaseFeaturedSlot(ctx, sub.ID, p.ID); relErr != nil {
				s.log.Error("featured slot rollback failed",
					"subscription_id", sub.ID, "property_id", p.ID, "error", relErr)
			}
		}
		s.compensate(ctx, reservation.ID)
		s.refundGoldCard(ctx, goldDebited, actor.ID)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReserveDuration.Record(ctx, time.Since(start).Seconds())
	}
	s.afterCreate(ctx, p)
	return p, nil
}

// compensate releases a pending reservation and escalates when even the
// compensation fails, because that leaks a quota slot until the
// reconciler catches it.
func (s *ListingService) compensate(ctx context.Context, reservationID string) {
	if err := s.store.CompensateReservation(ctx, reservationID); err != nil {
		s.log.Error("slot compensation failed", "reservation_id", reservationID, "error", err)
		s.notifications.Escalate(ctx, notifier.Notification{
			Title:   "Slot compensation failed",
			Message: fmt.Sprintf("Reservation %s could not be released; the reconciler will retry.", reservationID),
			Level:   "error",
			Source:  "ledger.compensate",
		})
	}
}

func (s *ListingService) refundGoldCard(ctx context.Context, debited bool, userID string) {
	if !debited {
		return
	}
	if err := s.store.RefundGoldCard(ctx, userID); err != nil {
		s.log.Error("gold card refund failed", "user_id", userID, "error", err)
	}
}

func (s *ListingService) afterCreate(ctx context.Context, p *property.Property) {
	if s.metrics != nil {
		s.metrics.ListingsCreated.Add(ctx, 1)
	}
	if err := s.notifications.NotifyAdmins(ctx, notification.TypeListingSubmitted,
		fmt.Sprintf("New listing %q awaits review", p.Title)); err != nil {
		s.log.Warn("admin notification failed", "property_id", p.ID, "error", err)
	}
	s.publish(ctx, messagequeue.SubjectListingSubmitted, p.ID)
}

// UploadImage stores a listing image with the external media host and
// returns the hosted URL and public ID for the listing's images array.
func (s *ListingService) UploadImage(ctx context.Context, name string, r io.Reader) (*media.Asset, error) {
	if s.media == nil {
		return nil, errors.New("media storage not configured")
	}
	asset, err := s.media.Upload(ctx, name, r)
	if err != nil {
		return nil, fmt.Errorf("upload image %s: %w", name, err)
	}
	return asset, nil
}

// Get returns a listing projected for the caller. Listings hidden from
// the caller are reported as not found.
func (s *ListingService) Get(ctx context.Context, id, userID string, isAdmin bool) (*property.Property, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	viewer := property.ResolveViewer(p, userID, isAdmin, s.viewerAgentID(ctx, p, userID, isAdmin))
	if !viewer.CanSeeListing(p) {
		return nil, fmt.Errorf("get property %s: %w", id, domain.ErrNotFound)
	}
	return property.Redact(p, viewer), nil
}

// viewerAgentID resolves the caller's agent profile ID, but only when the
// listing has an agent at all; the lookup is skipped otherwise.
func (s *ListingService) viewerAgentID(ctx context.Context, p *property.Property, userID string, isAdmin bool) string {
	if userID == "" || isAdmin || p.AgentID == "" {
		return ""
	}
	ag, err := s.store.GetAgentByUserID(ctx, userID)
	if err != nil {
		return ""
	}
	return ag.ID
}

// load fetches a listing through the read cache.
func (s *ListingService) load(ctx context.Context, id string) (*property.Property, error) {
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, listingCacheKey(id)); err == nil && ok {
			var p property.Property
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, listingCacheKey(id), data, s.cacheTTL)
		}
	}
	return p, nil
}

// List returns listings projected for the caller. Callers other than the
// owner or an admin only ever see publicly visible statuses, whatever the
// filter asked for.
func (s *ListingService) List(ctx context.Context, f database.PropertyFilter, userID string, isAdmin bool) ([]property.Property, error) {
	ownQuery := userID != "" && f.OwnerID == userID
	if !isAdmin && !ownQuery {
		f.Statuses = []property.Status{property.StatusApproved, property.StatusActive}
	}

	items, err := s.store.ListProperties(ctx, f)
	if err != nil {
		return nil, err
	}

	// One agent lookup covers the whole page; agent-mediated listings
	// project the same way here as on a single Get.
	agentID := ""
	if userID != "" && !isAdmin {
		if ag, err := s.store.GetAgentByUserID(ctx, userID); err == nil {
			agentID = ag.ID
		}
	}

	out := make([]property.Property, 0, len(items))
	for i := range items {
		p := &items[i]
		viewer := property.ResolveViewer(p, userID, isAdmin, agentID)
		if !viewer.CanSeeListing(p) {
			continue
		}
		out = append(out, *property.Redact(p, viewer))
	}
	return out, nil
}

// Update patches a listing. Content fields apply directly; a requested
// status runs through the state machine: owners may only deactivate or
// resubmit (Reactivate → pending + admin notification), admins set any
// status. Placement flag changes re-check plan eligibility and flow
// through the featured ledger.
func (s *ListingService) Update(ctx context.Context, actor authz.Actor, id string, req *property.UpdateRequest) (*property.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckOwnerOrAdmin(actor, p.OwnerID); err != nil {
		return nil, err
	}

	reactivated := false
	if req.Status != nil {
		if actor.IsAdmin() {
			st, err := property.ApplyAdminStatus(*req.Status)
			if err != nil {
				return nil, err
			}
			p.Status = st
		} else {
			outcome, err := property.ApplyOwnerStatus(p.Status, *req.Status)
			if err != nil {
				return nil, err
			}
			p.Status = outcome.Status
			reactivated = outcome.Reactivated
		}
	}

	wantFeatured := p.IsFeatured
	if req.IsFeatured != nil {
		wantFeatured = *req.IsFeatured
	}
	wantPremium := p.IsPremium
	if req.IsPremium != nil {
		wantPremium = *req.IsPremium
	}

	if wantFeatured != p.IsFeatured || wantPremium != p.IsPremium {
		sub, err := s.store.GetSubscriptionByUserID(ctx, p.OwnerID)
		switch {
		case err == nil:
			if !actor.IsAdmin() {
				if err := authz.CheckFeatureEligibility(sub, wantFeatured, wantPremium); err != nil {
					return nil, err
				}
			}
			if wantFeatured != p.IsFeatured {
				if wantFeatured {
					if err := s.store.ReserveFeaturedSlot(ctx, sub.ID, p.ID); err != nil {
						return nil, err
					}
				} else if err := s.store.ReleaseFeaturedSlot(ctx, sub.ID, p.ID); err != nil {
					return nil, err
				}
			}
		case errors.Is(err, domain.ErrNotFound) && actor.IsAdmin():
			// Admin-owned listings have no ledger; the flag applies as-is.
		default:
			return nil, err
		}
	}
	p.IsFeatured = wantFeatured

	req.Apply(p)

	if err := s.store.UpdateProperty(ctx, p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)

	if reactivated {
		if err := s.notifications.NotifyAdmins(ctx, notification.TypeListingSubmitted,
			fmt.Sprintf("Listing %q was resubmitted for review", p.Title)); err != nil {
			s.log.Warn("admin notification failed", "property_id", p.ID, "error", err)
		}
		s.publish(ctx, messagequeue.SubjectListingSubmitted, p.ID)
	}
	return p, nil
}

// Delete removes a listing, its media, and releases its quota and
// featured slots. Media deletion is best-effort: a failed delete is
// logged and never blocks the removal.
func (s *ListingService) Delete(ctx context.Context, actor authz.Actor, id string) error {
	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CheckOwnerOrAdmin(actor, p.OwnerID); err != nil {
		return err
	}

	if s.media != nil {
		for _, img := range p.Images {
			if img.PublicID == "" {
				continue
			}
			if err := s.media.Delete(ctx, img.PublicID); err != nil {
				s.log.Warn("media delete failed", "public_id", img.PublicID, "error", err)
			}
		}
	}

	subscriptionID := ""
	sub, err := s.store.GetSubscriptionByUserID(ctx, p.OwnerID)
	if err == nil {
		subscriptionID = sub.ID
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if err := s.store.DeletePropertyAndRelease(ctx, p, subscriptionID); err != nil {
		return err
	}

	if p.IsGoldCard {
		if err := s.store.RefundGoldCard(ctx, p.OwnerID); err != nil {
			s.log.Error("gold card refund failed", "user_id", p.OwnerID, "error", err)
		}
	}

	s.invalidate(ctx, p.ID)
	s.publish(ctx, messagequeue.SubjectListingDeleted, p.ID)
	return nil
}

// Approve moves a listing to approved and clears any rejection reason.
// The ledger is untouched: the slot was consumed at creation.
func (s *ListingService) Approve(ctx context.Context, actor authz.Actor, id string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins approve listings", domain.ErrForbidden)
	}

	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	if err := property.CanApprove(p.Status); err != nil {
		return err
	}

	if err := s.store.UpdatePropertyStatus(ctx, id, property.StatusApproved, ""); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ListingsApproved.Add(ctx, 1)
	}
	s.invalidate(ctx, id)
	if err := s.notifications.Notify(ctx, p.OwnerID, notification.TypeListingApproved,
		fmt.Sprintf("Your listing %q was approved", p.Title)); err != nil {
		s.log.Warn("owner notification failed", "property_id", id, "error", err)
	}
	s.publish(ctx, messagequeue.SubjectListingApproved, id)
	return nil
}

// Reject moves a listing to rejected with a mandatory reason.
func (s *ListingService) Reject(ctx context.Context, actor authz.Actor, id, reason string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins reject listings", domain.ErrForbidden)
	}

	p, err := s.store.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	if err := property.CanReject(p.Status, reason); err != nil {
		return err
	}

	if err := s.store.UpdatePropertyStatus(ctx, id, property.StatusRejected, reason); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ListingsRejected.Add(ctx, 1)
	}
	s.invalidate(ctx, id)
	if err := s.notifications.Notify(ctx, p.OwnerID, notification.TypeListingRejected,
		fmt.Sprintf("Your listing %q was rejected: %s", p.Title, reason)); err != nil {
		s.log.Warn("owner notification failed", "property_id", id, "error", err)
	}
	s.publish(ctx, messagequeue.SubjectListingRejected, id)
	return nil
}

func (s *ListingService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listingCacheKey(id)); err != nil {
		s.log.Warn("cache invalidation failed", "property_id", id, "error", err)
	}
}

func (s *ListingService) publish(ctx context.Context, subject, propertyID string) {
	if s.queue == nil {
		return
	}
	// The payload stays timestamp-free so a retried emit of the same
	// event hashes to the same stream message ID.
	payload, err := json.Marshal(map[string]string{"property_id": propertyID})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, subject, payload); err != nil {
		s.log.Warn("event publish failed", "subject", subject, "error", err)
	}
}
