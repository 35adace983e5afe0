package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	phOtel "github.com/salamjillani/mauritius-property-hub/internal/adapter/otel"
	"github.com/salamjillani/mauritius-property-hub/internal/port/database"
	"github.com/salamjillani/mauritius-property-hub/internal/port/notifier"
)

// ReconcileService sweeps pending slot reservations that out-lived their
// TTL. A reservation left pending means the process died between reserving
// the slot and persisting the listing; the sweep returns the slot.
type ReconcileService struct {
	store         database.Store
	notifications *NotificationService
	metrics       *phOtel.Metrics
	ttl           time.Duration
	log           *slog.Logger
}

// NewReconcileService creates a ReconcileService.
func NewReconcileService(store database.Store, notifications *NotificationService, metrics *phOtel.Metrics, ttl time.Duration, log *slog.Logger) *ReconcileService {
	return &ReconcileService{
		store:         store,
		notifications: notifications,
		metrics:       metrics,
		ttl:           ttl,
		log:           log,
	}
}

// Run performs one reconciliation pass. It keeps going past individual
// failures so one stuck reservation cannot block the rest; persistent
// failures are escalated to the operator channel.
func (s *ReconcileService) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-s.ttl)
	stale, err := s.store.StaleReservations(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	s.log.Info("reconciling stale slot reservations", "count", len(stale))

	var failed int
	for _, r := range stale {
		if err := s.store.CompensateReservation(ctx, r.ID); err != nil {
			failed++
			s.log.Error("reservation compensation failed",
				"reservation_id", r.ID, "subscription_id", r.SubscriptionID, "error", err)
			continue
		}
		if s.metrics != nil {
			s.metrics.SlotsCompensated.Add(ctx, 1)
		}
	}

	if failed > 0 {
		s.notifications.Escalate(ctx, notifier.Notification{
			Title:   "Ledger reconciliation incomplete",
			Message: fmt.Sprintf("%d of %d stale reservations could not be compensated.", failed, len(stale)),
			Level:   "error",
			Source:  "ledger.reconcile",
		})
		return fmt.Errorf("reconcile: %d of %d compensations failed", failed, len(stale))
	}
	return nil
}
