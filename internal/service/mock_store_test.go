package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/agency"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/notification"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/property"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/registration"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/subscription"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
	"github.com/salamjillani/mauritius-property-hub/internal/port/database"
)

// Ensure mockStore implements database.Store at compile time.
var _ database.Store = (*mockStore)(nil)

// mockStore is an in-memory implementation of database.Store for testing.
// The mutex makes the ledger operations safe for the concurrency tests,
// mirroring the atomicity the real store gets from conditional updates.
type mockStore struct {
	mu sync.Mutex

	users         []user.User
	agents        []agency.Agent
	agencies      []agency.Agency
	promoters     []agency.Promoter
	registrations []registration.Request
	subscriptions []subscription.Subscription
	reservations  []database.Reservation
	featured      map[string][]string // subscription ID -> property IDs
	properties    []property.Property
	notifications []notification.Notification

	reservationSeq int

	// Error hooks — set these to inject failures.
	createPropertyErr  error
	updatePropertyErr  error
	reserveSlotErr     error
	reserveFeaturedErr error
	compensateErr      error
	staleErr           error
}

func (m *mockStore) CreateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == u.Email {
			return domain.ErrConflict
		}
	}
	m.users = append(m.users, *u)
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == id {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].Email == email {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListUsers(_ context.Context) ([]user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]user.User(nil), m.users...), nil
}

func (m *mockStore) UpdateUser(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == u.ID {
			m.users[i] = *u
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListAdminIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for i := range m.users {
		if m.users[i].Role == user.RoleAdmin {
			ids = append(ids, m.users[i].ID)
		}
	}
	return ids, nil
}

func (m *mockStore) DebitGoldCard(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == userID {
			if m.users[i].GoldCardAllowance <= 0 {
				return domain.ErrGoldCardExhausted
			}
			m.users[i].GoldCardAllowance--
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) RefundGoldCard(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == userID {
			m.users[i].GoldCardAllowance++
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateAgent(_ context.Context, a *agency.Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents = append(m.agents, *a)
	return nil
}

func (m *mockStore) GetAgent(_ context.Context, id string) (*agency.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agents {
		if m.agents[i].ID == id {
			a := m.agents[i]
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetAgentByUserID(_ context.Context, userID string) (*agency.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agents {
		if m.agents[i].UserID == userID {
			a := m.agents[i]
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) FirstApprovedAgent(_ context.Context, agencyID string) (*agency.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agents {
		if m.agents[i].AgencyID == agencyID && m.agents[i].Approved() {
			a := m.agents[i]
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateAgency(_ context.Context, a *agency.Agency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agencies = append(m.agencies, *a)
	return nil
}

func (m *mockStore) GetAgency(_ context.Context, id string) (*agency.Agency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agencies {
		if m.agencies[i].ID == id {
			a := m.agencies[i]
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetAgencyByUserID(_ context.Context, userID string) (*agency.Agency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.agencies {
		if m.agencies[i].UserID == userID {
			a := m.agencies[i]
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreatePromoter(_ context.Context, p *agency.Promoter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promoters = append(m.promoters, *p)
	return nil
}

func (m *mockStore) CreateRegistrationRequest(_ context.Context, r *registration.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations = append(m.registrations, *r)
	return nil
}

func (m *mockStore) GetRegistrationRequest(_ context.Context, id string) (*registration.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.registrations {
		if m.registrations[i].ID == id {
			r := m.registrations[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) PendingRegistrationByUser(_ context.Context, userID string) (*registration.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.registrations {
		if m.registrations[i].UserID == userID && m.registrations[i].Status == registration.StatusPending {
			r := m.registrations[i]
			return &r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListRegistrationRequests(_ context.Context, status registration.Status) ([]registration.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []registration.Request
	for i := range m.registrations {
		if status == "" || m.registrations[i].Status == status {
			out = append(out, m.registrations[i])
		}
	}
	return out, nil
}

func (m *mockStore) UpdateRegistrationStatus(_ context.Context, id string, status registration.Status, reviewedBy string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.registrations {
		if m.registrations[i].ID == id {
			if m.registrations[i].Status != registration.StatusPending {
				return fmt.Errorf("%w: request already reviewed", domain.ErrConflict)
			}
			m.registrations[i].Status = status
			m.registrations[i].ReviewedBy = reviewedBy
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateSubscription(_ context.Context, s *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, *s)
	return nil
}

func (m *mockStore) GetSubscription(_ context.Context, id string) (*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subscriptions {
		if m.subscriptions[i].ID == id {
			s := m.subscriptions[i]
			s.FeaturedListings = append([]string(nil), m.featured[s.ID]...)
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetSubscriptionByUserID(_ context.Context, userID string) (*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subscriptions {
		if m.subscriptions[i].UserID == userID {
			s := m.subscriptions[i]
			s.FeaturedListings = append([]string(nil), m.featured[s.ID]...)
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) UpdateSubscription(_ context.Context, s *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.subscriptions {
		if m.subscriptions[i].ID == s.ID {
			used := m.subscriptions[i].ListingsUsed
			m.subscriptions[i] = *s
			m.subscriptions[i].ListingsUsed = used // never writable via update
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ReserveSlot(_ context.Context, subscriptionID string) (*database.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveSlotErr != nil {
		return nil, m.reserveSlotErr
	}
	for i := range m.subscriptions {
		if m.subscriptions[i].ID != subscriptionID {
			continue
		}
		s := &m.subscriptions[i]
		if s.Status != subscription.StatusActive {
			return nil, fmt.Errorf("subscription %s is %s: %w", s.ID, s.Status, domain.ErrForbidden)
		}
		if !s.Unlimited() && s.ListingsUsed >= s.ListingLimit {
			return nil, domain.ErrQuotaExceeded
		}
		s.ListingsUsed++
		m.reservationSeq++
		r := database.Reservation{
			ID:             fmt.Sprintf("res-%d", m.reservationSeq),
			SubscriptionID: subscriptionID,
			State:          database.ReservationPending,
			CreatedAt:      time.Now().UTC(),
		}
		m.reservations = append(m.reservations, r)
		return &r, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CompensateReservation(_ context.Context, reservationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.compensateErr != nil {
		return m.compensateErr
	}
	for i := range m.reservations {
		if m.reservations[i].ID != reservationID {
			continue
		}
		if m.reservations[i].State != database.ReservationPending {
			return nil // already committed or released
		}
		m.reservations[i].State = database.ReservationReleased
		m.decrementUsed(m.reservations[i].SubscriptionID)
		return nil
	}
	return nil
}

// decrementUsed must be called with the mutex held.
func (m *mockStore) decrementUsed(subscriptionID string) {
	for i := range m.subscriptions {
		if m.subscriptions[i].ID == subscriptionID && m.subscriptions[i].ListingsUsed > 0 {
			m.subscriptions[i].ListingsUsed--
		}
	}
}

func (m *mockStore) StaleReservations(_ context.Context, olderThan time.Time) ([]database.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.staleErr != nil {
		return nil, m.staleErr
	}
	var out []database.Reservation
	for i := range m.reservations {
		r := m.reservations[i]
		if r.State == database.ReservationPending && r.CreatedAt.Before(olderThan) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ReserveFeaturedSlot(_ context.Context, subscriptionID, propertyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserveFeaturedErr != nil {
		return m.reserveFeaturedErr
	}
	for i := range m.subscriptions {
		if m.subscriptions[i].ID != subscriptionID {
			continue
		}
		s := &m.subscriptions[i]
		if s.Plan != subscription.PlanPlatinum {
			return fmt.Errorf("%w: featured slots require a platinum plan", domain.ErrPlanIneligible)
		}
		held := m.featured[subscriptionID]
		for _, id := range held {
			if id == propertyID {
				return nil
			}
		}
		if !s.Unlimited() && len(held) >= subscription.FeaturedCap(s.ListingLimit) {
			return domain.ErrFeaturedCapExceeded
		}
		if m.featured == nil {
			m.featured = map[string][]string{}
		}
		m.featured[subscriptionID] = append(held, propertyID)
		return nil
	}
	return domain.ErrNotFound
}

func (m *mockStore) ReleaseFeaturedSlot(_ context.Context, subscriptionID, propertyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	held := m.featured[subscriptionID]
	for i, id := range held {
		if id == propertyID {
			m.featured[subscriptionID] = append(held[:i], held[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockStore) ListFeatured(_ context.Context, subscriptionID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.featured[subscriptionID]...), nil
}

func (m *mockStore) CreateProperty(_ context.Context, p *property.Property, reservationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createPropertyErr != nil {
		return m.createPropertyErr
	}
	if reservationID != "" {
		committed := false
		for i := range m.reservations {
			if m.reservations[i].ID == reservationID && m.reservations[i].State == database.ReservationPending {
				m.reservations[i].State = database.ReservationCommitted
				m.reservations[i].PropertyID = p.ID
				committed = true
			}
		}
		if !committed {
			return fmt.Errorf("commit reservation %s: %w", reservationID, domain.ErrConflict)
		}
	}
	m.properties = append(m.properties, *p)
	return nil
}

func (m *mockStore) GetProperty(_ context.Context, id string) (*property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.properties {
		if m.properties[i].ID == id {
			p := m.properties[i]
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListProperties(_ context.Context, f database.PropertyFilter) ([]property.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []property.Property
	for i := range m.properties {
		p := m.properties[i]
		if f.OwnerID != "" && p.OwnerID != f.OwnerID {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.City != "" && p.Address.City != f.City {
			continue
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, s := range f.Statuses {
				if p.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		if f.Featured != nil && p.IsFeatured != *f.Featured {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockStore) UpdateProperty(_ context.Context, p *property.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updatePropertyErr != nil {
		return m.updatePropertyErr
	}
	for i := range m.properties {
		if m.properties[i].ID == p.ID {
			m.properties[i] = *p
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) UpdatePropertyStatus(_ context.Context, id string, status property.Status, rejectionReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.properties {
		if m.properties[i].ID == id {
			m.properties[i].Status = status
			m.properties[i].RejectionReason = rejectionReason
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) DeletePropertyAndRelease(_ context.Context, p *property.Property, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.properties {
		if m.properties[i].ID != p.ID {
			continue
		}
		m.properties = append(m.properties[:i], m.properties[i+1:]...)
		if subscriptionID != "" {
			held := m.featured[subscriptionID]
			for j, id := range held {
				if id == p.ID {
					m.featured[subscriptionID] = append(held[:j], held[j+1:]...)
					break
				}
			}
			// Decrement only when a committed reservation actually flips.
			for j := range m.reservations {
				if m.reservations[j].PropertyID == p.ID && m.reservations[j].State == database.ReservationCommitted {
					m.reservations[j].State = database.ReservationReleased
					m.decrementUsed(subscriptionID)
				}
			}
		}
		return nil
	}
	return domain.ErrNotFound
}

func (m *mockStore) CreateNotification(_ context.Context, n *notification.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *mockStore) ListNotificationsByUser(_ context.Context, userID string, unreadOnly bool) ([]notification.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []notification.Notification
	for i := range m.notifications {
		n := m.notifications[i]
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *mockStore) MarkNotificationRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}
