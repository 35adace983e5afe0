package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/agency"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/subscription"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
)

// fakeDirectory is an in-memory Directory for resolver tests.
type fakeDirectory struct {
	agents        []agency.Agent
	agencies      []agency.Agency
	subscriptions []subscription.Subscription
}

var _ Directory = (*fakeDirectory)(nil)

func (d *fakeDirectory) GetAgent(_ context.Context, id string) (*agency.Agent, error) {
	for i := range d.agents {
		if d.agents[i].ID == id {
			return &d.agents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (d *fakeDirectory) GetAgentByUserID(_ context.Context, userID string) (*agency.Agent, error) {
	for i := range d.agents {
		if d.agents[i].UserID == userID {
			return &d.agents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (d *fakeDirectory) GetAgency(_ context.Context, id string) (*agency.Agency, error) {
	for i := range d.agencies {
		if d.agencies[i].ID == id {
			return &d.agencies[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (d *fakeDirectory) GetAgencyByUserID(_ context.Context, userID string) (*agency.Agency, error) {
	for i := range d.agencies {
		if d.agencies[i].UserID == userID {
			return &d.agencies[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (d *fakeDirectory) FirstApprovedAgent(_ context.Context, agencyID string) (*agency.Agent, error) {
	for i := range d.agents {
		if d.agents[i].AgencyID == agencyID && d.agents[i].Approved() {
			return &d.agents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (d *fakeDirectory) GetSubscriptionByUserID(_ context.Context, userID string) (*subscription.Subscription, error) {
	for i := range d.subscriptions {
		if d.subscriptions[i].UserID == userID {
			return &d.subscriptions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func TestCheckOwnerOrAdmin(t *testing.T) {
	owner := Actor{ID: "u1", Role: user.RoleIndividual}
	admin := Actor{ID: "a1", Role: user.RoleAdmin}
	other := Actor{ID: "u2", Role: user.RoleIndividual}

	if err := CheckOwnerOrAdmin(owner, "u1"); err != nil {
		t.Errorf("owner: %v", err)
	}
	if err := CheckOwnerOrAdmin(admin, "u1"); err != nil {
		t.Errorf("admin: %v", err)
	}
	if err := CheckOwnerOrAdmin(other, "u1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger: err = %v, want forbidden", err)
	}
}

func TestCheckFeatureEligibility(t *testing.T) {
	basic := &subscription.Subscription{Plan: subscription.PlanBasic}
	elite := &subscription.Subscription{Plan: subscription.PlanElite}

	if err := CheckFeatureEligibility(basic, false, false); err != nil {
		t.Errorf("basic plain listing: %v", err)
	}
	if err := CheckFeatureEligibility(basic, true, false); !errors.Is(err, domain.ErrPlanIneligible) {
		t.Errorf("basic featured: err = %v, want plan ineligible", err)
	}
	if err := CheckFeatureEligibility(basic, false, true); !errors.Is(err, domain.ErrPlanIneligible) {
		t.Errorf("basic premium: err = %v, want plan ineligible", err)
	}
	if err := CheckFeatureEligibility(elite, true, true); err != nil {
		t.Errorf("elite featured+premium: %v", err)
	}
}

func TestResolveCreateIndividual(t *testing.T) {
	r := NewResolver(&fakeDirectory{})
	assoc, err := r.ResolveCreate(context.Background(), Actor{ID: "u1", Role: user.RoleIndividual}, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if assoc.AgentID != "" || assoc.AgencyID != "" {
		t.Errorf("individual listing should carry no association, got %+v", assoc)
	}
}

func TestResolveCreateAgentWithoutProfile(t *testing.T) {
	r := NewResolver(&fakeDirectory{})
	_, err := r.ResolveCreate(context.Background(), Actor{ID: "u1", Role: user.RoleAgent}, "")
	if !errors.Is(err, domain.ErrAgentProfileMissing) {
		t.Fatalf("err = %v, want agent profile missing", err)
	}
}

func TestResolveCreateIndependentAgent(t *testing.T) {
	dir := &fakeDirectory{
		agents: []agency.Agent{{ID: "ag-1", UserID: "u1", ApprovalStatus: user.ApprovalApproved}},
	}
	r := NewResolver(dir)

	assoc, err := r.ResolveCreate(context.Background(), Actor{ID: "u1", Role: user.RoleAgent}, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if assoc.AgentID != "ag-1" || assoc.AgencyID != "" {
		t.Errorf("assoc = %+v, want agent ag-1 without agency", assoc)
	}
}

func TestResolveCreateAgencyCascade(t *testing.T) {
	dir := &fakeDirectory{
		agents:   []agency.Agent{{ID: "ag-1", UserID: "u1", AgencyID: "agc-1", ApprovalStatus: user.ApprovalApproved}},
		agencies: []agency.Agency{{ID: "agc-1", UserID: "agency-owner"}},
		subscriptions: []subscription.Subscription{{
			ID: "sub-1", UserID: "agency-owner",
			Plan: subscription.PlanElite, ListingLimit: 10, ListingsUsed: 3,
			Status: subscription.StatusActive,
		}},
	}
	r := NewResolver(dir)

	assoc, err := r.ResolveCreate(context.Background(), Actor{ID: "u1", Role: user.RoleAgent}, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if assoc.AgentID != "ag-1" || assoc.AgencyID != "agc-1" {
		t.Errorf("assoc = %+v", assoc)
	}

	// Agency ledger full: agent creation is blocked, even though the
	// agent's own quota was never consulted here.
	dir.subscriptions[0].ListingsUsed = 10
	if _, err := r.ResolveCreate(context.Background(), Actor{ID: "u1", Role: user.RoleAgent}, ""); !errors.Is(err, domain.ErrAgencyQuotaExceeded) {
		t.Errorf("full agency: err = %v, want agency quota exceeded", err)
	}

	// Agency subscription not active.
	dir.subscriptions[0].ListingsUsed = 3
	dir.subscriptions[0].Status = subscription.StatusExpired
	if _, err := r.ResolveCreate(context.Background(), Actor{ID: "u1", Role: user.RoleAgent}, ""); !errors.Is(err, domain.ErrAgencyInactive) {
		t.Errorf("expired agency: err = %v, want agency inactive", err)
	}

	// Agency with no subscription at all behaves as inactive.
	dir.subscriptions = nil
	if _, err := r.ResolveCreate(context.Background(), Actor{ID: "u1", Role: user.RoleAgent}, ""); !errors.Is(err, domain.ErrAgencyInactive) {
		t.Errorf("missing agency subscription: err = %v, want agency inactive", err)
	}
}

func TestResolveCreateAgencyActor(t *testing.T) {
	dir := &fakeDirectory{
		agents: []agency.Agent{
			{ID: "ag-1", UserID: "u-agent-1", AgencyID: "agc-1", ApprovalStatus: user.ApprovalPending},
			{ID: "ag-2", UserID: "u-agent-2", AgencyID: "agc-1", ApprovalStatus: user.ApprovalApproved},
			{ID: "ag-3", UserID: "u-agent-3", AgencyID: "agc-2", ApprovalStatus: user.ApprovalApproved},
		},
		agencies: []agency.Agency{{ID: "agc-1", UserID: "u-agency"}},
	}
	r := NewResolver(dir)
	actor := Actor{ID: "u-agency", Role: user.RoleAgency}

	// No explicit agent: first approved agent is auto-assigned.
	assoc, err := r.ResolveCreate(context.Background(), actor, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if assoc.AgentID != "ag-2" || assoc.AgencyID != "agc-1" {
		t.Errorf("assoc = %+v, want auto-assigned ag-2", assoc)
	}

	// Explicit agent of the same agency.
	assoc, err = r.ResolveCreate(context.Background(), actor, "ag-1")
	if err != nil {
		t.Fatalf("resolve explicit: %v", err)
	}
	if assoc.AgentID != "ag-1" {
		t.Errorf("assoc = %+v, want ag-1", assoc)
	}

	// An agent of another agency cannot be attached.
	if _, err := r.ResolveCreate(context.Background(), actor, "ag-3"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign agent: err = %v, want forbidden", err)
	}
}
