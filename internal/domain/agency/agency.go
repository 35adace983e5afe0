// Package agency defines the agent and agency domain models.
package agency

import (
	"time"

	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
)

// Agent is the professional profile of a user with the agent role.
// An agent optionally belongs to one agency; listings created by an
// agency-linked agent are checked against the agency's subscription too.
type Agent struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	AgencyID       string              `json:"agency_id,omitempty"`
	Title          string              `json:"title,omitempty"`
	Phone          string              `json:"phone,omitempty"`
	ApprovalStatus user.ApprovalStatus `json:"approval_status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Approved reports whether the agent has been approved by an admin.
func (a *Agent) Approved() bool { return a.ApprovalStatus == user.ApprovalApproved }

// Agency groups agents under one brand and holds its own subscription.
type Agency struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	Name           string              `json:"name"`
	Description    string              `json:"description,omitempty"`
	LogoURL        string              `json:"logo_url,omitempty"`
	ApprovalStatus user.ApprovalStatus `json:"approval_status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Promoter is the profile of a property development promoter.
type Promoter struct {
	ID             string              `json:"id"`
	UserID         string              `json:"user_id"`
	CompanyName    string              `json:"company_name,omitempty"`
	ApprovalStatus user.ApprovalStatus `json:"approval_status"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
