// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist, or is
// intentionally hidden from the caller.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates malformed or missing request fields.
var ErrValidation = errors.New("validation failed")

// ErrForbidden indicates the actor is not permitted to perform the action.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates a concurrent modification conflict.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrQuotaExceeded indicates the subscription's listing limit is reached.
var ErrQuotaExceeded = errors.New("listing quota exceeded")

// ErrFeaturedCapExceeded indicates the featured-slot cap is reached.
var ErrFeaturedCapExceeded = errors.New("featured listing cap exceeded")

// ErrPlanIneligible indicates the subscription plan does not permit the action.
var ErrPlanIneligible = errors.New("subscription plan not eligible")

// ErrInvalidTransition indicates an illegal listing status change.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrAgencyInactive indicates the parent agency's subscription is not active.
var ErrAgencyInactive = errors.New("agency subscription not active")

// ErrAgencyQuotaExceeded indicates the parent agency's listing limit is reached.
var ErrAgencyQuotaExceeded = errors.New("agency listing quota exceeded")

// ErrAgentProfileMissing indicates an agent-role actor has no agent record.
var ErrAgentProfileMissing = errors.New("agent profile missing")

// ErrGoldCardExhausted indicates the user has no gold card entitlements left.
var ErrGoldCardExhausted = errors.New("gold card allowance exhausted")
