package property

import (
	"fmt"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
)

// Status is the lifecycle state of a listing.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ValidStatuses is the set of all valid listing statuses.
var ValidStatuses = map[Status]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
	StatusActive:   true,
	StatusInactive: true,
}

// StatusOutcome describes the result of applying an owner status change.
type StatusOutcome struct {
	// Status is the value actually persisted.
	Status Status
	// Reactivated is true when the owner requested "active" and the
	// listing was instead resubmitted for review.
	Reactivated bool
}

// ApplyOwnerStatus applies a status requested by the listing's owner.
//
// Owners may only request active or inactive. A request for "active" never
// activates the listing directly: it is the Reactivate transition, which
// resubmits the listing as pending so an admin reviews it again, exactly
// like a first submission. A listing that is inactive is terminal for the
// owner; only an admin can move it further.
func ApplyOwnerStatus(current, requested Status) (StatusOutcome, error) {
	if !ValidStatuses[requested] {
		return StatusOutcome{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, requested)
	}
	if current == StatusInactive {
		return StatusOutcome{}, fmt.Errorf("%w: listing is inactive and can only be adjusted by an admin", domain.ErrInvalidTransition)
	}
	switch requested {
	case StatusInactive:
		return StatusOutcome{Status: StatusInactive}, nil
	case StatusActive:
		return StatusOutcome{Status: StatusPending, Reactivated: true}, nil
	default:
		return StatusOutcome{}, fmt.Errorf("%w: owners may only set status to active or inactive", domain.ErrInvalidTransition)
	}
}

// ApplyAdminStatus applies a status set by an admin. Admins may set any
// status directly with no forced re-review.
func ApplyAdminStatus(requested Status) (Status, error) {
	if !ValidStatuses[requested] {
		return "", fmt.Errorf("%w: unknown status %q", domain.ErrValidation, requested)
	}
	return requested, nil
}

// CanApprove reports whether a listing in the given status may be approved.
// Inactive listings are explicitly guarded against approval.
func CanApprove(current Status) error {
	if current == StatusInactive {
		return fmt.Errorf("%w: cannot approve an inactive listing", domain.ErrInvalidTransition)
	}
	return nil
}

// CanReject reports whether a listing in the given status may be rejected
// with the given reason. A non-empty reason is required.
func CanReject(current Status, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: rejection reason is required", domain.ErrValidation)
	}
	if current == StatusInactive {
		return fmt.Errorf("%w: cannot reject an inactive listing", domain.ErrInvalidTransition)
	}
	return nil
}

// PubliclyVisible reports whether a listing in the given status is shown
// to callers other than its owner or an admin.
func PubliclyVisible(s Status) bool {
	return s == StatusApproved || s == StatusActive
}
