package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/salamjillani/mauritius-property-hub/internal/domain/notification"
	"github.com/salamjillani/mauritius-property-hub/internal/port/database"
	"github.com/salamjillani/mauritius-property-hub/internal/port/notifier"
)

// NotificationService persists per-user inbox notifications and escalates
// operator-facing events to the registered external notifiers.
type NotificationService struct {
	store     database.Store
	notifiers []notifier.Notifier
	log       *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(store database.Store, notifiers []notifier.Notifier, log *slog.Logger) *NotificationService {
	return &NotificationService{store: store, notifiers: notifiers, log: log}
}

// Notify stores one notification in a user's inbox.
func (s *NotificationService) Notify(ctx context.Context, userID string, typ notification.Type, message string) error {
	n := &notification.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    typ,
		Message: message,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("notify user %s: %w", userID, err)
	}
	return nil
}

// NotifyAdmins fans one notification out to every admin account. The
// fan-out is concurrent; a single failed insert fails the whole call so
// the caller can decide whether delivery matters.
func (s *NotificationService) NotifyAdmins(ctx context.Context, typ notification.Type, message string) error {
	adminIDs, err := s.store.ListAdminIDs(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range adminIDs {
		id := id
		g.Go(func() error {
			return s.Notify(ctx, id, typ, message)
		})
	}
	return g.Wait()
}

// Escalate pushes an operator-facing event to all external notifiers.
// Delivery failures are logged, never propagated: escalation is
// best-effort by contract.
func (s *NotificationService) Escalate(ctx context.Context, n notifier.Notification) {
	for _, provider := range s.notifiers {
		if err := provider.Send(ctx, n); err != nil {
			s.log.Warn("operator notification failed",
				"provider", provider.Name(),
				"title", n.Title,
				"error", err,
			)
			continue
		}
		s.log.Debug("operator notification sent", "provider", provider.Name(), "title", n.Title)
	}
}

// List returns a user's notifications, optionally only unread ones.
func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	return s.store.ListNotificationsByUser(ctx, userID, unreadOnly)
}

// MarkRead marks one notification as read. The user scoping prevents
// marking someone else's notification.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return s.store.MarkNotificationRead(ctx, id, userID)
}
