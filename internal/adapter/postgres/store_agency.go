package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/salamjillani/mauritius-property-hub/internal/domain"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/agency"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
)

const agentColumns = `id, user_id, agency_id, title, phone, approval_status, created_at, updated_at`

func scanAgent(row pgx.Row) (*agency.Agent, error) {
	var a agency.Agent
	var agencyID *string
	err := row.Scan(&a.ID, &a.UserID, &agencyID, &a.Title, &a.Phone, &a.ApprovalStatus, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if agencyID != nil {
		a.AgencyID = *agencyID
	}
	return &a, nil
}

func (s *Store) CreateAgent(ctx context.Context, a *agency.Agent) error {
	var agencyID *string
	if a.AgencyID != "" {
		agencyID = &a.AgencyID
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agents (id, user_id, agency_id, title, phone, approval_status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, agencyID, a.Title, a.Phone, a.ApprovalStatus)
	if err != nil {
		return fmt.Errorf("create agent: %w", err)
	}
	return nil
}

func (s *Store) GetAgent(ctx context.Context, id string) (*agency.Agent, error) {
	a, err := scanAgent(s.pool.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get agent %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get agent %s: %w", id, err)
	}
	return a, nil
}

func (s *Store) GetAgentByUserID(ctx context.Context, userID string) (*agency.Agent, error) {
	a, err := scanAgent(s.pool.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get agent for user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get agent for user %s: %w", userID, err)
	}
	return a, nil
}

// FirstApprovedAgent returns the longest-standing approved agent of an
// agency, used to auto-assign listings created by the agency account.
func (s *Store) FirstApprovedAgent(ctx context.Context, agencyID string) (*agency.Agent, error) {
	a, err := scanAgent(s.pool.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents
		 WHERE agency_id = $1 AND approval_status = $2
		 ORDER BY created_at ASC LIMIT 1`, agencyID, user.ApprovalApproved))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("first approved agent of %s: %w", agencyID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("first approved agent of %s: %w", agencyID, err)
	}
	return a, nil
}

const agencyColumns = `id, user_id, name, description, logo_url, approval_status, created_at, updated_at`

func scanAgency(row pgx.Row) (*agency.Agency, error) {
	var a agency.Agency
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Description, &a.LogoURL, &a.ApprovalStatus, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateAgency(ctx context.Context, a *agency.Agency) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO agencies (id, user_id, name, description, logo_url, approval_status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.Name, a.Description, a.LogoURL, a.ApprovalStatus)
	if err != nil {
		return fmt.Errorf("create agency: %w", err)
	}
	return nil
}

func (s *Store) GetAgency(ctx context.Context, id string) (*agency.Agency, error) {
	a, err := scanAgency(s.pool.QueryRow(ctx,
		`SELECT `+agencyColumns+` FROM agencies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get agency %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get agency %s: %w", id, err)
	}
	return a, nil
}

func (s *Store) GetAgencyByUserID(ctx context.Context, userID string) (*agency.Agency, error) {
	a, err := scanAgency(s.pool.QueryRow(ctx,
		`SELECT `+agencyColumns+` FROM agencies WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get agency for user %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get agency for user %s: %w", userID, err)
	}
	return a, nil
}

func (s *Store) CreatePromoter(ctx context.Context, p *agency.Promoter) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO promoters (id, user_id, company_name, approval_status)
		 VALUES ($1, $2, $3, $4)`,
		p.ID, p.UserID, p.CompanyName, p.ApprovalStatus)
	if err != nil {
		return fmt.Errorf("create promoter: %w", err)
	}
	return nil
}
