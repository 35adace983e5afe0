package service

import (
	"context"
	"errors"
	"testing"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/notification"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
	"github.com/salamjillani/mauritius-property-hub/internal/port/notifier"
)

func TestNotifyAdminsFanOut(t *testing.T) {
	store := &mockStore{}
	store.users = append(store.users,
		user.User{ID: "adm1", Email: "a1@x.com", Role: user.RoleAdmin},
		user.User{ID: "adm2", Email: "a2@x.com", Role: user.RoleAdmin},
		user.User{ID: "u1", Email: "u1@x.com", Role: user.RoleIndividual},
	)
	svc := NewNotificationService(store, nil, testLogger())
	ctx := context.Background()

	if err := svc.NotifyAdmins(ctx, notification.TypeListingSubmitted, "new listing"); err != nil {
		t.Fatalf("notify admins: %v", err)
	}

	for _, id := range []string{"adm1", "adm2"} {
		inbox, _ := store.ListNotificationsByUser(ctx, id, false)
		if len(inbox) != 1 {
			t.Errorf("%s inbox = %d entries, want 1", id, len(inbox))
		}
	}
	inbox, _ := store.ListNotificationsByUser(ctx, "u1", false)
	if len(inbox) != 0 {
		t.Errorf("non-admin inbox = %d entries, want 0", len(inbox))
	}
}

func TestMarkReadScopedToUser(t *testing.T) {
	store := &mockStore{}
	svc := NewNotificationService(store, nil, testLogger())
	ctx := context.Background()

	if err := svc.Notify(ctx, "u1", notification.TypeSystem, "hello"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	id := store.notifications[0].ID

	// Another user cannot mark it read.
	if err := svc.MarkRead(ctx, id, "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign mark read: err = %v, want not found", err)
	}
	if err := svc.MarkRead(ctx, id, "u1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, _ := svc.List(ctx, "u1", true)
	if len(unread) != 0 {
		t.Errorf("unread = %d entries, want 0", len(unread))
	}
	all, _ := svc.List(ctx, "u1", false)
	if len(all) != 1 || !all[0].Read {
		t.Errorf("all = %+v, want one read entry", all)
	}
}

func TestEscalateIsBestEffort(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("webhook down")}
	working := &recordingNotifier{}
	svc := NewNotificationService(&mockStore{}, []notifier.Notifier{failing, working}, testLogger())

	// A failing provider never blocks the others.
	svc.Escalate(context.Background(), notifier.Notification{
		Title: "Ledger drift", Level: "error", Source: "ledger.reconcile",
	})

	if len(working.sent) != 1 {
		t.Errorf("working notifier sent = %d, want 1", len(working.sent))
	}
}
