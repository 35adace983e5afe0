// Package notification defines persisted per-user notifications.
package notification

import "time"

// Type classifies a notification for client-side rendering.
type Type string

const (
	TypeListingSubmitted Type = "listing_submitted"
	TypeListingApproved  Type = "listing_approved"
	TypeListingRejected  Type = "listing_rejected"
	TypeRegistration     Type = "registration"
	TypeSystem           Type = "system"
)

// Notification is one message delivered to a user's inbox.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
