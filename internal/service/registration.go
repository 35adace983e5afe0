package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/agency"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/authz"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/notification"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/registration"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
	"github.com/salamjillani/mauritius-property-hub/internal/port/database"
)

// RegistrationService runs the professional role application workflow:
// a user applies for agent/agency/promoter, an admin reviews, and
// approval cascades into role promotion and profile record creation.
type RegistrationService struct {
	store         database.Store
	notifications *NotificationService
	log           *slog.Logger
}

// NewRegistrationService creates a RegistrationService.
func NewRegistrationService(store database.Store, notifications *NotificationService, log *slog.Logger) *RegistrationService {
	return &RegistrationService{store: store, notifications: notifications, log: log}
}

// Apply files an application for a professional role. A user may have at
// most one pending application.
func (s *RegistrationService) Apply(ctx context.Context, actor authz.Actor, req *registration.CreateRequest) (*registration.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.PendingRegistrationByUser(ctx, actor.ID); err == nil {
		return nil, fmt.Errorf("%w: an application is already pending", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	r := &registration.Request{
		ID:            uuid.NewString(),
		UserID:        actor.ID,
		RequestedRole: req.RequestedRole,
		CompanyName:   req.CompanyName,
		Message:       req.Message,
		Status:        registration.StatusPending,
	}
	if err := s.store.CreateRegistrationRequest(ctx, r); err != nil {
		return nil, err
	}

	if err := s.notifications.NotifyAdmins(ctx, notification.TypeRegistration,
		fmt.Sprintf("New %s application awaits review", req.RequestedRole)); err != nil {
		s.log.Warn("admin notification failed", "request_id", r.ID, "error", err)
	}
	return r, nil
}

// List returns applications, optionally filtered by status. Admin-only at
// the HTTP boundary.
func (s *RegistrationService) List(ctx context.Context, status registration.Status) ([]registration.Request, error) {
	return s.store.ListRegistrationRequests(ctx, status)
}

// Approve accepts an application: the request flips to approved, the user
// is promoted to the requested role, and the matching professional
// profile record is created.
func (s *RegistrationService) Approve(ctx context.Context, actor authz.Actor, id string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins review applications", domain.ErrForbidden)
	}

	r, err := s.store.GetRegistrationRequest(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.UpdateRegistrationStatus(ctx, id, registration.StatusApproved, actor.ID); err != nil {
		return err
	}

	u, err := s.store.GetUser(ctx, r.UserID)
	if err != nil {
		return err
	}
	u.Role = r.RequestedRole
	u.ApprovalStatus = user.ApprovalApproved
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return err
	}

	if err := s.createProfile(ctx, r); err != nil {
		return err
	}

	if err := s.notifications.Notify(ctx, r.UserID, notification.TypeRegistration,
		fmt.Sprintf("Your %s application was approved", r.RequestedRole)); err != nil {
		s.log.Warn("applicant notification failed", "request_id", id, "error", err)
	}
	return nil
}

func (s *RegistrationService) createProfile(ctx context.Context, r *registration.Request) error {
	switch r.RequestedRole {
	case user.RoleAgent:
		return s.store.CreateAgent(ctx, &agency.Agent{
			ID:             uuid.NewString(),
			UserID:         r.UserID,
			ApprovalStatus: user.ApprovalApproved,
		})
	case user.RoleAgency:
		return s.store.CreateAgency(ctx, &agency.Agency{
			ID:             uuid.NewString(),
			UserID:         r.UserID,
			Name:           r.CompanyName,
			ApprovalStatus: user.ApprovalApproved,
		})
	case user.RolePromoter:
		return s.store.CreatePromoter(ctx, &agency.Promoter{
			ID:             uuid.NewString(),
			UserID:         r.UserID,
			CompanyName:    r.CompanyName,
			ApprovalStatus: user.ApprovalApproved,
		})
	default:
		return fmt.Errorf("%w: unexpected requested role %q", domain.ErrValidation, r.RequestedRole)
	}
}

// Reject declines an application. The user keeps their current role.
func (s *RegistrationService) Reject(ctx context.Context, actor authz.Actor, id string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins review applications", domain.ErrForbidden)
	}

	r, err := s.store.GetRegistrationRequest(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.UpdateRegistrationStatus(ctx, id, registration.StatusRejected, actor.ID); err != nil {
		return err
	}

	if err := s.notifications.Notify(ctx, r.UserID, notification.TypeRegistration,
		fmt.Sprintf("Your %s application was rejected", r.RequestedRole)); err != nil {
		s.log.Warn("applicant notification failed", "request_id", id, "error", err)
	}
	return nil
}
