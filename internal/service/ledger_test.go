package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/authz"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/property"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/subscription"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
)

func newTestLedgerService(store *mockStore) *LedgerService {
	return NewLedgerService(store, nil, nil, testLogger())
}

func TestCreateSubscriptionDefaultsActive(t *testing.T) {
	store := &mockStore{}
	svc := newTestLedgerService(store)

	sub, err := svc.CreateSubscription(context.Background(), &subscription.CreateRequest{
		UserID: "u1", Plan: subscription.PlanElite, ListingLimit: 10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sub.Status != subscription.StatusActive {
		t.Errorf("status = %q, want active default", sub.Status)
	}
	if sub.ListingsUsed != 0 {
		t.Errorf("listings_used = %d, want 0", sub.ListingsUsed)
	}
}

func TestUpdateSubscriptionNeverTouchesUsage(t *testing.T) {
	store := &mockStore{}
	store.subscriptions = append(store.subscriptions, subscription.Subscription{
		ID: "sub-1", UserID: "u1", Plan: subscription.PlanBasic,
		ListingLimit: 5, ListingsUsed: 3, Status: subscription.StatusActive,
	})
	svc := newTestLedgerService(store)

	limit := 20
	sub, err := svc.UpdateSubscription(context.Background(), "sub-1", &subscription.UpdateRequest{
		Plan: subscription.PlanPlatinum, ListingLimit: &limit,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if sub.Plan != subscription.PlanPlatinum || sub.ListingLimit != 20 {
		t.Errorf("update not applied: %+v", sub)
	}

	got, _ := store.GetSubscription(context.Background(), "sub-1")
	if got.ListingsUsed != 3 {
		t.Errorf("listings_used = %d, want 3 untouched", got.ListingsUsed)
	}
}

func seedFeatureFixture(store *mockStore, plan subscription.Plan, limit int) {
	store.subscriptions = append(store.subscriptions, subscription.Subscription{
		ID: "sub-1", UserID: "u1", Plan: plan,
		ListingLimit: limit, Status: subscription.StatusActive,
	})
	store.properties = append(store.properties, property.Property{
		ID: "p1", Status: property.StatusApproved, OwnerID: "u1",
	})
}

func TestFeatureProperty(t *testing.T) {
	store := &mockStore{}
	seedFeatureFixture(store, subscription.PlanPlatinum, 8)
	svc := newTestLedgerService(store)
	ctx := context.Background()
	owner := authz.Actor{ID: "u1", Role: user.RoleIndividual}

	if err := svc.FeatureProperty(ctx, owner, "sub-1", "p1"); err != nil {
		t.Fatalf("feature: %v", err)
	}

	p, _ := store.GetProperty(ctx, "p1")
	if !p.IsFeatured {
		t.Error("listing flag not set")
	}
	sub, _ := store.GetSubscription(ctx, "sub-1")
	if len(sub.FeaturedListings) != 1 || sub.FeaturedListings[0] != "p1" {
		t.Errorf("featured set = %v, want [p1]", sub.FeaturedListings)
	}
}

func TestFeaturePropertyCap(t *testing.T) {
	store := &mockStore{}
	// limit 8 gives floor(8*0.25) = 2 featured slots.
	seedFeatureFixture(store, subscription.PlanPlatinum, 8)
	for i := 2; i <= 3; i++ {
		store.properties = append(store.properties, property.Property{
			ID: fmt.Sprintf("p%d", i), Status: property.StatusApproved, OwnerID: "u1",
		})
	}
	svc := newTestLedgerService(store)
	ctx := context.Background()
	owner := authz.Actor{ID: "u1", Role: user.RoleIndividual}

	if err := svc.FeatureProperty(ctx, owner, "sub-1", "p1"); err != nil {
		t.Fatalf("feature p1: %v", err)
	}
	if err := svc.FeatureProperty(ctx, owner, "sub-1", "p2"); err != nil {
		t.Fatalf("feature p2: %v", err)
	}
	if err := svc.FeatureProperty(ctx, owner, "sub-1", "p3"); !errors.Is(err, domain.ErrFeaturedCapExceeded) {
		t.Fatalf("feature p3: err = %v, want featured cap exceeded", err)
	}

	// Releasing one slot frees the cap.
	if err := svc.UnfeatureProperty(ctx, owner, "sub-1", "p1"); err != nil {
		t.Fatalf("unfeature p1: %v", err)
	}
	if err := svc.FeatureProperty(ctx, owner, "sub-1", "p3"); err != nil {
		t.Errorf("feature p3 after release: %v", err)
	}
}

func TestFeaturePropertyNonPlatinum(t *testing.T) {
	store := &mockStore{}
	seedFeatureFixture(store, subscription.PlanElite, 8)
	svc := newTestLedgerService(store)

	err := svc.FeatureProperty(context.Background(), authz.Actor{ID: "u1", Role: user.RoleIndividual}, "sub-1", "p1")
	if !errors.Is(err, domain.ErrPlanIneligible) {
		t.Fatalf("err = %v, want plan ineligible", err)
	}
}

func TestFeaturePropertyWrongSubscription(t *testing.T) {
	store := &mockStore{}
	seedFeatureFixture(store, subscription.PlanPlatinum, 8)
	store.subscriptions = append(store.subscriptions, subscription.Subscription{
		ID: "sub-2", UserID: "someone-else", Plan: subscription.PlanPlatinum,
		ListingLimit: 8, Status: subscription.StatusActive,
	})
	svc := newTestLedgerService(store)

	// The subscription in the URL must belong to the listing's owner.
	err := svc.FeatureProperty(context.Background(), authz.Actor{ID: "u1", Role: user.RoleIndividual}, "sub-2", "p1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestFeaturePropertyForbiddenForStranger(t *testing.T) {
	store := &mockStore{}
	seedFeatureFixture(store, subscription.PlanPlatinum, 8)
	svc := newTestLedgerService(store)

	err := svc.FeatureProperty(context.Background(), authz.Actor{ID: "u2", Role: user.RoleIndividual}, "sub-1", "p1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestUnfeaturePropertyIdempotent(t *testing.T) {
	store := &mockStore{}
	seedFeatureFixture(store, subscription.PlanPlatinum, 8)
	svc := newTestLedgerService(store)
	ctx := context.Background()
	owner := authz.Actor{ID: "u1", Role: user.RoleIndividual}

	// Unfeaturing a listing that was never featured is a no-op.
	if err := svc.UnfeatureProperty(ctx, owner, "sub-1", "p1"); err != nil {
		t.Fatalf("unfeature: %v", err)
	}
	if err := svc.UnfeatureProperty(ctx, owner, "sub-1", "p1"); err != nil {
		t.Fatalf("second unfeature: %v", err)
	}
}

func TestFeaturePropertyRollsBackSlotOnPersistFailure(t *testing.T) {
	store := &mockStore{}
	seedFeatureFixture(store, subscription.PlanPlatinum, 8)
	store.updatePropertyErr = errors.New("write failed")
	svc := newTestLedgerService(store)

	err := svc.FeatureProperty(context.Background(), authz.Actor{ID: "u1", Role: user.RoleIndividual}, "sub-1", "p1")
	if err == nil {
		t.Fatal("expected persist error")
	}
	held, _ := store.ListFeatured(context.Background(), "sub-1")
	if len(held) != 0 {
		t.Errorf("featured set = %v, want empty after rollback", held)
	}
}
