// Package authz decides, for a given actor and target, whether an action
// is permitted. Checks are small composable functions so each rule is
// independently testable; the listing service chains them.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/agency"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/subscription"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role user.Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == user.RoleAdmin }

// CreateAssociation is the agent/agency attachment resolved for a new
// listing.
type CreateAssociation struct {
	AgentID  string
	AgencyID string
}

// Directory is the read surface the resolver needs. The postgres store
// satisfies it.
type Directory interface {
	GetAgent(ctx context.Context, id string) (*agency.Agent, error)
	GetAgentByUserID(ctx context.Context, userID string) (*agency.Agent, error)
	GetAgency(ctx context.Context, id string) (*agency.Agency, error)
	GetAgencyByUserID(ctx context.Context, userID string) (*agency.Agency, error)
	FirstApprovedAgent(ctx context.Context, agencyID string) (*agency.Agent, error)
	GetSubscriptionByUserID(ctx context.Context, userID string) (*subscription.Subscription, error)
}

// CheckCreateRole verifies the actor's role may create listings.
func CheckCreateRole(role user.Role) error {
	if !user.ValidRoles[role] {
		return fmt.Errorf("%w: role %q may not create listings", domain.ErrForbidden, role)
	}
	return nil
}

// CheckOwnerOrAdmin verifies the actor owns the target or is an admin.
func CheckOwnerOrAdmin(actor Actor, ownerID string) error {
	if actor.IsAdmin() || actor.ID == ownerID {
		return nil
	}
	return fmt.Errorf("%w: only the owner or an admin may modify this listing", domain.ErrForbidden)
}

// CheckAgencyCapacity verifies an agency's own subscription permits one
// more listing. The agency quota only gates creation; it is never
// consumed by an agent's listing.
func CheckAgencyCapacity(sub *subscription.Subscription) error {
	if sub.Status != subscription.StatusActive {
		return domain.ErrAgencyInactive
	}
	if !sub.HasCapacity() {
		return domain.ErrAgencyQuotaExceeded
	}
	return nil
}

// CheckFeatureEligibility verifies the plan permits the requested
// placement flags. Evaluated before any ledger mutation, on create and
// update alike.
func CheckFeatureEligibility(sub *subscription.Subscription, wantFeatured, wantPremium bool) error {
	if wantFeatured && !sub.AllowsFeatured() {
		return fmt.Errorf("%w: featured listings require an elite or platinum plan", domain.ErrPlanIneligible)
	}
	if wantPremium && !sub.AllowsPremium() {
		return fmt.Errorf("%w: premium listings require an elite or platinum plan", domain.ErrPlanIneligible)
	}
	return nil
}

// Resolver resolves the create-path association and runs the agency
// cascade check.
type Resolver struct {
	dir Directory
}

// NewResolver creates a Resolver backed by the given directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// ResolveCreate determines the agent/agency association for a listing
// created by the actor, and verifies the agency cascade when the actor is
// an agency-linked agent. requestedAgentID is the explicit agent chosen
// by an agency actor, if any.
func (r *Resolver) ResolveCreate(ctx context.Context, actor Actor, requestedAgentID string) (CreateAssociation, error) {
	if err := CheckCreateRole(actor.Role); err != nil {
		return CreateAssociation{}, err
	}

	switch actor.Role {
	case user.RoleAgent:
		return r.resolveAgentCreate(ctx, actor)
	case user.RoleAgency:
		return r.resolveAgencyCreate(ctx, actor, requestedAgentID)
	case user.RolePromoter:
		// Legacy shim: a promoter with a personal agent profile gets it
		// attached. Promoters without one create bare listings.
		ag, err := r.dir.GetAgentByUserID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return CreateAssociation{}, nil
			}
			return CreateAssociation{}, fmt.Errorf("resolve promoter agent: %w", err)
		}
		return CreateAssociation{AgentID: ag.ID}, nil
	default:
		return CreateAssociation{}, nil
	}
}

func (r *Resolver) resolveAgentCreate(ctx context.Context, actor Actor) (CreateAssociation, error) {
	ag, err := r.dir.GetAgentByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return CreateAssociation{}, fmt.Errorf("%w: no agent profile for user %s", domain.ErrAgentProfileMissing, actor.ID)
		}
		return CreateAssociation{}, fmt.Errorf("resolve agent: %w", err)
	}

	assoc := CreateAssociation{AgentID: ag.ID}
	if ag.AgencyID == "" {
		return assoc, nil
	}
	assoc.AgencyID = ag.AgencyID

	// Agency cascade: the parent agency's own subscription must be active
	// and under its listing limit. This is layered on top of the agent's
	// personal quota check done by the ledger.
	parent, err := r.dir.GetAgency(ctx, ag.AgencyID)
	if err != nil {
		return CreateAssociation{}, fmt.Errorf("resolve agency %s: %w", ag.AgencyID, err)
	}
	sub, err := r.dir.GetSubscriptionByUserID(ctx, parent.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return CreateAssociation{}, domain.ErrAgencyInactive
		}
		return CreateAssociation{}, fmt.Errorf("resolve agency subscription: %w", err)
	}
	if err := CheckAgencyCapacity(sub); err != nil {
		return CreateAssociation{}, err
	}
	return assoc, nil
}

func (r *Resolver) resolveAgencyCreate(ctx context.Context, actor Actor, requestedAgentID string) (CreateAssociation, error) {
	agc, err := r.dir.GetAgencyByUserID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return CreateAssociation{}, fmt.Errorf("%w: no agency profile for user %s", domain.ErrForbidden, actor.ID)
		}
		return CreateAssociation{}, fmt.Errorf("resolve agency: %w", err)
	}

	assoc := CreateAssociation{AgencyID: agc.ID}

	if requestedAgentID != "" {
		ag, err := r.dir.GetAgent(ctx, requestedAgentID)
		if err != nil {
			return CreateAssociation{}, fmt.Errorf("resolve agent %s: %w", requestedAgentID, err)
		}
		if ag.AgencyID != agc.ID {
			return CreateAssociation{}, fmt.Errorf("%w: agent %s does not belong to this agency", domain.ErrForbidden, requestedAgentID)
		}
		assoc.AgentID = ag.ID
		return assoc, nil
	}

	// No explicit agent: auto-assign the first approved agent of the agency.
	ag, err := r.dir.FirstApprovedAgent(ctx, agc.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return assoc, nil
		}
		return CreateAssociation{}, fmt.Errorf("auto-assign agent: %w", err)
	}
	assoc.AgentID = ag.ID
	return assoc, nil
}
