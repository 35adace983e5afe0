package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/registration"
)

const registrationColumns = `id, user_id, requested_role, company_name, message, status, reviewed_by, created_at, updated_at`

func scanRegistration(row pgx.Row) (*registration.Request, error) {
	var r registration.Request
	var reviewedBy *string
	err := row.Scan(&r.ID, &r.UserID, &r.RequestedRole, &r.CompanyName,
		&r.Message, &r.Status, &reviewedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reviewedBy != nil {
		r.ReviewedBy = *reviewedBy
	}
	return &r, nil
}

func (s *Store) CreateRegistrationRequest(ctx context.Context, r *registration.Request) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO registration_requests (id, user_id, requested_role, company_name, message, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
		r.ID, r.UserID, r.RequestedRole, r.CompanyName, r.Message, r.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create registration request: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create registration request: %w", err)
	}
	return nil
}

func (s *Store) GetRegistrationRequest(ctx context.Context, id string) (*registration.Request, error) {
	r, err := scanRegistration(s.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registration_requests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get registration request %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get registration request %s: %w", id, err)
	}
	return r, nil
}

func (s *Store) PendingRegistrationByUser(ctx context.Context, userID string) (*registration.Request, error) {
	r, err := scanRegistration(s.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registration_requests
		 WHERE user_id = $1 AND status = $2`,
		userID, registration.StatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pending registration for user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("pending registration for user %s: %w", userID, err)
	}
	return r, nil
}

func (s *Store) ListRegistrationRequests(ctx context.Context, status registration.Status) ([]registration.Request, error) {
	q := `SELECT ` + registrationColumns + ` FROM registration_requests`
	var args []any
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list registration requests: %w", err)
	}
	defer rows.Close()

	var out []registration.Request
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration request: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRegistrationStatus(ctx context.Context, id string, status registration.Status, reviewedBy string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE registration_requests SET status = $2, reviewed_by = $3, updated_at = now()
		 WHERE id = $1 AND status = $4`,
		id, status, reviewedBy, registration.StatusPending)
	if err != nil {
		return fmt.Errorf("update registration request %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetRegistrationRequest(ctx, id); err != nil {
			return err
		}
		// The request exists but was already reviewed.
		return fmt.Errorf("registration request %s already reviewed: %w", id, domain.ErrConflict)
	}
	return nil
}
