package service

import (
	"context"
	"errors"
	"testing"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/authz"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/registration"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
)

func newTestRegistrationService(store *mockStore) *RegistrationService {
	log := testLogger()
	return NewRegistrationService(store, NewNotificationService(store, nil, log), log)
}

func TestRegistrationApply(t *testing.T) {
	store := &mockStore{}
	store.users = append(store.users,
		user.User{ID: "u1", Email: "u1@x.com", Role: user.RoleIndividual},
		user.User{ID: "adm", Email: "adm@x.com", Role: user.RoleAdmin},
	)
	svc := newTestRegistrationService(store)
	ctx := context.Background()
	actor := authz.Actor{ID: "u1", Role: user.RoleIndividual}

	r, err := svc.Apply(ctx, actor, &registration.CreateRequest{RequestedRole: user.RoleAgent})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if r.Status != registration.StatusPending {
		t.Errorf("status = %q, want pending", r.Status)
	}

	// One pending application per user.
	_, err = svc.Apply(ctx, actor, &registration.CreateRequest{RequestedRole: user.RoleAgent})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("second apply: err = %v, want conflict", err)
	}

	// Admins were notified of the application.
	inbox, _ := store.ListNotificationsByUser(ctx, "adm", false)
	if len(inbox) != 1 {
		t.Errorf("admin inbox = %d entries, want 1", len(inbox))
	}
}

func TestRegistrationApplyValidation(t *testing.T) {
	svc := newTestRegistrationService(&mockStore{})
	actor := authz.Actor{ID: "u1", Role: user.RoleIndividual}

	// Only professional roles may be requested.
	_, err := svc.Apply(context.Background(), actor, &registration.CreateRequest{RequestedRole: user.RoleAdmin})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("admin role: err = %v, want validation error", err)
	}

	// Agency applications need a company name.
	_, err = svc.Apply(context.Background(), actor, &registration.CreateRequest{RequestedRole: user.RoleAgency})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("agency without company: err = %v, want validation error", err)
	}
}

func TestRegistrationApprovePromotesAndCreatesProfile(t *testing.T) {
	store := &mockStore{}
	store.users = append(store.users, user.User{ID: "u1", Email: "u1@x.com", Role: user.RoleIndividual})
	store.registrations = append(store.registrations, registration.Request{
		ID: "req-1", UserID: "u1", RequestedRole: user.RoleAgency,
		CompanyName: "Island Estates", Status: registration.StatusPending,
	})
	svc := newTestRegistrationService(store)
	ctx := context.Background()
	admin := authz.Actor{ID: "adm", Role: user.RoleAdmin}

	if err := svc.Approve(ctx, admin, "req-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	u, _ := store.GetUser(ctx, "u1")
	if u.Role != user.RoleAgency || u.ApprovalStatus != user.ApprovalApproved {
		t.Errorf("user after approval: role=%q approval=%q", u.Role, u.ApprovalStatus)
	}

	agc, err := store.GetAgencyByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("agency profile not created: %v", err)
	}
	if agc.Name != "Island Estates" {
		t.Errorf("agency name = %q, want Island Estates", agc.Name)
	}

	// The applicant was told.
	inbox, _ := store.ListNotificationsByUser(ctx, "u1", false)
	if len(inbox) != 1 {
		t.Errorf("applicant inbox = %d entries, want 1", len(inbox))
	}
}

func TestRegistrationApproveCreatesAgentProfile(t *testing.T) {
	store := &mockStore{}
	store.users = append(store.users, user.User{ID: "u1", Email: "u1@x.com", Role: user.RoleIndividual})
	store.registrations = append(store.registrations, registration.Request{
		ID: "req-1", UserID: "u1", RequestedRole: user.RoleAgent, Status: registration.StatusPending,
	})
	svc := newTestRegistrationService(store)

	if err := svc.Approve(context.Background(), authz.Actor{ID: "adm", Role: user.RoleAdmin}, "req-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	ag, err := store.GetAgentByUserID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("agent profile not created: %v", err)
	}
	if !ag.Approved() {
		t.Errorf("agent approval = %q, want approved", ag.ApprovalStatus)
	}
}

func TestRegistrationReviewGuards(t *testing.T) {
	store := &mockStore{}
	store.users = append(store.users, user.User{ID: "u1", Email: "u1@x.com", Role: user.RoleIndividual})
	store.registrations = append(store.registrations, registration.Request{
		ID: "req-1", UserID: "u1", RequestedRole: user.RoleAgent, Status: registration.StatusPending,
	})
	svc := newTestRegistrationService(store)
	ctx := context.Background()

	// Only admins review.
	if err := svc.Approve(ctx, authz.Actor{ID: "u1", Role: user.RoleIndividual}, "req-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("non-admin approve: err = %v, want forbidden", err)
	}

	admin := authz.Actor{ID: "adm", Role: user.RoleAdmin}
	if err := svc.Reject(ctx, admin, "req-1"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// A reviewed request cannot be reviewed again.
	if err := svc.Approve(ctx, admin, "req-1"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("re-review: err = %v, want conflict", err)
	}

	// Rejection leaves the user's role untouched.
	u, _ := store.GetUser(ctx, "u1")
	if u.Role != user.RoleIndividual {
		t.Errorf("role = %q, want individual", u.Role)
	}
}
