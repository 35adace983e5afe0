package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/subscription"
	"github.com/salamjillani/mauritius-property-hub/internal/port/database"
)

const subscriptionColumns = `id, user_id, plan, listing_limit, listings_used, status, expiration_date, created_at, updated_at`

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := row.Scan(&s.ID, &s.UserID, &s.Plan, &s.ListingLimit, &s.ListingsUsed,
		&s.Status, &s.ExpirationDate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (id, user_id, plan, listing_limit, listings_used, status, expiration_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.UserID, sub.Plan, sub.ListingLimit, sub.ListingsUsed, sub.Status, sub.ExpirationDate)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get subscription %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get subscription %s: %w", id, err)
	}
	if err := s.loadFeatured(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) GetSubscriptionByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get subscription for user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get subscription for user %s: %w", userID, err)
	}
	if err := s.loadFeatured(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Store) loadFeatured(ctx context.Context, sub *subscription.Subscription) error {
	ids, err := s.ListFeatured(ctx, sub.ID)
	if err != nil {
		return err
	}
	sub.FeaturedListings = ids
	return nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE subscriptions SET plan = $2, listing_limit = $3, status = $4, expiration_date = $5, updated_at = now()
		 WHERE id = $1`,
		sub.ID, sub.Plan, sub.ListingLimit, sub.Status, sub.ExpirationDate)
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", sub.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update subscription %s: %w", sub.ID, domain.ErrNotFound)
	}
	return nil
}

// ReserveSlot is the atomic quota check-and-increment: the conditional
// UPDATE either consumes a slot or matches no row, so two concurrent
// reservations can never both pass the ceiling. A pending reservation row
// is written in the same transaction so a crash before the listing is
// persisted can be compensated later.
func (s *Store) ReserveSlot(ctx context.Context, subscriptionID string) (*database.Reservation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("reserve slot: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE subscriptions
		 SET listings_used = listings_used + 1, updated_at = now()
		 WHERE id = $1 AND status = $2
		   AND (listing_limit = $3 OR listings_used < listing_limit)`,
		subscriptionID, subscription.StatusActive, subscription.UnlimitedListings)
	if err != nil {
		return nil, fmt.Errorf("reserve slot %s: %w", subscriptionID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, s.classifyReserveFailure(ctx, subscriptionID)
	}

	r := &database.Reservation{
		ID:             uuid.NewString(),
		SubscriptionID: subscriptionID,
		State:          database.ReservationPending,
		CreatedAt:      time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO slot_reservations (id, subscription_id, state, created_at)
		 VALUES ($1, $2, $3, $4)`,
		r.ID, r.SubscriptionID, r.State, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("record reservation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("reserve slot: commit: %w", err)
	}
	return r, nil
}

// classifyReserveFailure distinguishes a missing ledger, an inactive
// subscription, and an exhausted quota after the conditional update
// matched nothing.
func (s *Store) classifyReserveFailure(ctx context.Context, subscriptionID string) error {
	sub, err := s.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.Status != subscription.StatusActive {
		return fmt.Errorf("subscription %s is %s: %w", subscriptionID, sub.Status, domain.ErrForbidden)
	}
	return domain.ErrQuotaExceeded
}

// CompensateReservation releases a still-pending reservation: the state
// flip and the counter decrement happen in one transaction, and a
// reservation already released (or committed) is left untouched, which
// makes the compensation idempotent.
func (s *Store) CompensateReservation(ctx context.Context, reservationID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("compensate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var subscriptionID string
	err = tx.QueryRow(ctx,
		`UPDATE slot_reservations SET state = $2
		 WHERE id = $1 AND state = $3
		 RETURNING subscription_id`,
		reservationID, database.ReservationReleased, database.ReservationPending).Scan(&subscriptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil // already committed or released
		}
		return fmt.Errorf("compensate reservation %s: %w", reservationID, err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE subscriptions
		 SET listings_used = GREATEST(listings_used - 1, 0), updated_at = now()
		 WHERE id = $1`, subscriptionID)
	if err != nil {
		return fmt.Errorf("release slot %s: %w", subscriptionID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("compensate: commit: %w", err)
	}
	return nil
}

func (s *Store) StaleReservations(ctx context.Context, olderThan time.Time) ([]database.Reservation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, subscription_id, COALESCE(property_id, ''), state, created_at
		 FROM slot_reservations
		 WHERE state = $1 AND created_at < $2`,
		database.ReservationPending, olderThan)
	if err != nil {
		return nil, fmt.Errorf("stale reservations: %w", err)
	}
	defer rows.Close()

	var out []database.Reservation
	for rows.Next() {
		var r database.Reservation
		if err := rows.Scan(&r.ID, &r.SubscriptionID, &r.PropertyID, &r.State, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReserveFeaturedSlot locks the subscription row, verifies the platinum
// plan and the floor(limit*0.25) cap, then records the property as
// featured. The row lock serializes concurrent cap checks on the same
// subscription.
func (s *Store) ReserveFeaturedSlot(ctx context.Context, subscriptionID, propertyID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("reserve featured: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var plan subscription.Plan
	var limit int
	err = tx.QueryRow(ctx,
		`SELECT plan, listing_limit FROM subscriptions WHERE id = $1 FOR UPDATE`,
		subscriptionID).Scan(&plan, &limit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("reserve featured %s: %w", subscriptionID, domain.ErrNotFound)
		}
		return fmt.Errorf("reserve featured %s: %w", subscriptionID, err)
	}

	if plan != subscription.PlanPlatinum {
		return fmt.Errorf("%w: featured slots require a platinum plan", domain.ErrPlanIneligible)
	}

	// Exclude the target property so re-featuring an already featured
	// listing stays idempotent even at the cap.
	var used int
	err = tx.QueryRow(ctx,
		`SELECT count(*) FROM featured_listings WHERE subscription_id = $1 AND property_id <> $2`,
		subscriptionID, propertyID).Scan(&used)
	if err != nil {
		return fmt.Errorf("count featured %s: %w", subscriptionID, err)
	}

	if limit != subscription.UnlimitedListings && used >= subscription.FeaturedCap(limit) {
		return domain.ErrFeaturedCapExceeded
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO featured_listings (subscription_id, property_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		subscriptionID, propertyID)
	if err != nil {
		return fmt.Errorf("insert featured %s/%s: %w", subscriptionID, propertyID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("reserve featured: commit: %w", err)
	}
	return nil
}

// ReleaseFeaturedSlot removes the property from the featured set.
// Removing an absent entry is a no-op.
func (s *Store) ReleaseFeaturedSlot(ctx context.Context, subscriptionID, propertyID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM featured_listings WHERE subscription_id = $1 AND property_id = $2`,
		subscriptionID, propertyID)
	if err != nil {
		return fmt.Errorf("release featured %s/%s: %w", subscriptionID, propertyID, err)
	}
	return nil
}

func (s *Store) ListFeatured(ctx context.Context, subscriptionID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT property_id FROM featured_listings WHERE subscription_id = $1 ORDER BY created_at ASC`,
		subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list featured %s: %w", subscriptionID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan featured id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
