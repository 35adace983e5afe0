// Package registration defines the workflow for users applying to become
// an agent, agency, or promoter.
package registration

import (
	"fmt"
	"time"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
)

// Status is the review state of a registration request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a pending application by a user for a professional role.
// At most one request is pending per user at a time.
type Request struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	RequestedRole user.Role `json:"requested_role"`
	CompanyName   string    `json:"company_name,omitempty"`
	Message       string    `json:"message,omitempty"`
	Status        Status    `json:"status"`
	ReviewedBy    string    `json:"reviewed_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateRequest is the input for applying for a professional role.
type CreateRequest struct {
	RequestedRole user.Role `json:"requested_role"`
	CompanyName   string    `json:"company_name,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// Validate checks the application fields. Only professional roles may be
// requested.
func (r *CreateRequest) Validate() error {
	switch r.RequestedRole {
	case user.RoleAgent, user.RoleAgency, user.RolePromoter:
	default:
		return fmt.Errorf("%w: requested_role must be agent, agency, or promoter", domain.ErrValidation)
	}
	if r.RequestedRole != user.RoleAgent && r.CompanyName == "" {
		return fmt.Errorf("%w: company_name is required for agency and promoter applications", domain.ErrValidation)
	}
	return nil
}
